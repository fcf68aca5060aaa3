// Package backend is the network boundary of the kiosk: swing submission,
// solution lookup and server-side analytics.
package backend

import (
	"context"
	"errors"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

// ErrNotFound is returned when the backend has nothing for a series.
var ErrNotFound = errors.New("backend: not found")

// Backend is implemented by every kiosk backend.
type Backend interface {
	SubmitSwing(ctx context.Context, sub model.SwingSubmission) error
	FetchSolution(ctx context.Context, seriesID string, profile model.Profile) (*model.SolutionData, error)
	FetchAnalytics(ctx context.Context, seriesID string) (*analytics.View, error)
}
