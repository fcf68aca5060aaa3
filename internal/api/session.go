package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/backend"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
)

type analyticsResponse struct {
	SeriesID   string               `json:"seriesId"`
	View       analytics.View       `json:"view"`
	Comparison *analytics.Comparison `json:"comparison,omitempty"`
}

type screenResponse struct {
	Requested  session.Screen `json:"requested"`
	Screen     session.Screen `json:"screen"`
	Redirected bool           `json:"redirected"`
	Step       model.Step     `json:"currentStep"`
}

// GetSession returns the current session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// StartSeries resets the session for the posted golfer profile.
func (h *Handler) StartSeries(w http.ResponseWriter, r *http.Request) {
	var profile model.Profile
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := h.engine.StartSeries(profile); err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// Action runs a named session input and returns the resulting snapshot.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")
	action, ok := h.actions[name]
	if !ok {
		Error(w, http.StatusNotFound, "unknown action")
		return
	}
	if err := action(); err != nil {
		h.writeEngineError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.engine.Snapshot())
}

// GetAnalytics derives the analytics of the live session.
func (h *Handler) GetAnalytics(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.Snapshot()
	cfg := h.engine.Config()
	resp := analyticsResponse{
		SeriesID: snap.SeriesID,
		View:     analytics.Derive(snap.Ledger, cfg),
	}
	if cmp, ok := analytics.Compare(snap.FirstSwing, snap.SecondSwing, cfg.DirectionalMultiplier); ok {
		resp.Comparison = &cmp
	}
	JSON(w, http.StatusOK, resp)
}

// GetSeriesAnalytics returns analytics for a series from the remote source.
func (h *Handler) GetSeriesAnalytics(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "seriesID")
	view, err := h.remote.FetchAnalytics(r.Context(), seriesID)
	if errors.Is(err, backend.ErrNotFound) {
		Error(w, http.StatusNotFound, "series not found")
		return
	}
	if err != nil {
		h.log.Warn("Failed to fetch series analytics", "series", seriesID, "error", err)
		Error(w, http.StatusBadGateway, "analytics unavailable")
		return
	}
	JSON(w, http.StatusOK, analyticsResponse{SeriesID: seriesID, View: *view})
}

// GuardScreen checks whether a screen may render at the current step and
// returns the screen the frontend should show instead when it may not.
func (h *Handler) GuardScreen(w http.ResponseWriter, r *http.Request) {
	requested, ok := session.ParseScreen(chi.URLParam(r, "screen"))
	if !ok {
		Error(w, http.StatusNotFound, "unknown screen")
		return
	}
	resolved := h.engine.Guard(requested)
	JSON(w, http.StatusOK, screenResponse{
		Requested:  requested,
		Screen:     resolved,
		Redirected: resolved != requested,
		Step:       h.engine.Snapshot().Step,
	})
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSequence):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidProfile):
		Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("Session operation failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
