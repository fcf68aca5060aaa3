package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

// HTTP talks to a remote kiosk backend over JSON.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns a client for the backend at baseURL.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SubmitSwing posts a completed phase to /api/swings.
func (h *HTTP) SubmitSwing(ctx context.Context, sub model.SwingSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal swing: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/swings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("backend returned non-2xx status: %s", resp.Status)
	}
	return nil
}

// FetchSolution reads /api/solutions/{series} with the profile as query.
func (h *HTTP) FetchSolution(ctx context.Context, seriesID string, profile model.Profile) (*model.SolutionData, error) {
	q := url.Values{}
	for key, value := range map[string]string{
		"gender":   profile.Gender,
		"ageRange": profile.AgeRange,
		"handicap": profile.Handicap,
		"club":     profile.Club,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	endpoint := h.baseURL + "/api/solutions/" + url.PathEscape(seriesID)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var sol model.SolutionData
	if err := h.getJSON(ctx, endpoint, &sol); err != nil {
		return nil, fmt.Errorf("fetch solution: %w", err)
	}
	return &sol, nil
}

// FetchAnalytics reads pre-rendered views from /api/analytics/{series}.
func (h *HTTP) FetchAnalytics(ctx context.Context, seriesID string) (*analytics.View, error) {
	var view analytics.View
	if err := h.getJSON(ctx, h.baseURL+"/api/analytics/"+url.PathEscape(seriesID), &view); err != nil {
		return nil, fmt.Errorf("fetch analytics: %w", err)
	}
	return &view, nil
}

func (h *HTTP) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned non-200 status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
