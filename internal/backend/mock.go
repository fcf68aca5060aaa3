package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
)

// Mock keeps submissions in memory and serves canned solutions.
type Mock struct {
	cfg model.Config

	mu     sync.Mutex
	series map[string][]model.SwingData
}

// NewMock returns a Mock deriving analytics with cfg.
func NewMock(cfg model.Config) *Mock {
	return &Mock{cfg: cfg, series: map[string][]model.SwingData{}}
}

// SubmitSwing records the swing under its series.
func (m *Mock) SubmitSwing(_ context.Context, sub model.SwingSubmission) error {
	if sub.SeriesID == "" {
		return fmt.Errorf("submit swing %d: missing series id", sub.Swing.SwingNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[sub.SeriesID] = session.Retain(append(m.series[sub.SeriesID], sub.Swing.Clone()))
	return nil
}

// FetchSolution returns the canned back-swing solution.
func (m *Mock) FetchSolution(ctx context.Context, _ string, _ model.Profile) (*model.SolutionData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sol := MockSolution()
	return &sol, nil
}

// FetchAnalytics derives the views from the submitted swings of a series.
func (m *Mock) FetchAnalytics(_ context.Context, seriesID string) (*analytics.View, error) {
	m.mu.Lock()
	swings := append([]model.SwingData(nil), m.series[seriesID]...)
	m.mu.Unlock()
	if len(swings) == 0 {
		return nil, fmt.Errorf("analytics for %s: %w", seriesID, ErrNotFound)
	}
	view := analytics.Derive(swings, m.cfg)
	return &view, nil
}

// Submitted returns the swings held for a series.
func (m *Mock) Submitted(seriesID string) []model.SwingData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SwingData(nil), m.series[seriesID]...)
}

// MockSolution is the canned classification served by Mock.
func MockSolution() model.SolutionData {
	return model.SolutionData{
		ProblemType:        "back-swing",
		ProblemDescription: "The club goes past parallel at the top of the back swing, which makes the downswing path inconsistent.",
		Improvement:        &model.Improvement{Distance: 12.5, Accuracy: 18.3, Consistency: 15.7},
		Problems: []model.Problem{
			{Title: "Back swing issue detected", Percentage: 45.2},
			{Title: "Swing posture issue detected", Percentage: 28.7},
			{Title: "Impact issue detected", Percentage: 16.3},
		},
		Videos: []model.SolutionVideo{
			{ID: "1", Title: "Back swing correction 1", Thumbnail: "/videos/backswing-1.jpg", VideoURL: "/videos/backswing-1.mp4", Category: "back-swing"},
			{ID: "2", Title: "Back swing correction 2", Thumbnail: "/videos/backswing-2.jpg", VideoURL: "/videos/backswing-2.mp4", Category: "back-swing"},
			{ID: "3", Title: "Back swing correction 3", Thumbnail: "/videos/backswing-3.jpg", VideoURL: "/videos/backswing-3.mp4", Category: "back-swing"},
			{ID: "4", Title: "Back swing correction 4", Thumbnail: "/videos/backswing-4.jpg", VideoURL: "/videos/backswing-4.mp4", Category: "back-swing"},
			{ID: "5", Title: "Back swing correction 5", Thumbnail: "/videos/backswing-5.jpg", VideoURL: "/videos/backswing-5.mp4", Category: "back-swing"},
			{ID: "6", Title: "Back swing correction 6", Thumbnail: "/videos/backswing-6.jpg", VideoURL: "/videos/backswing-6.mp4", Category: "back-swing"},
		},
	}
}
