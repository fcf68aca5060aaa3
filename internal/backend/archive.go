package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Recorder persists submitted swings locally.
type Recorder interface {
	InsertSwing(ctx context.Context, sub model.SwingSubmission) (int64, error)
}

// Archive records every submission locally before forwarding it.
type Archive struct {
	next Backend
	rec  Recorder
	log  *slog.Logger
}

// NewArchive wraps next so submissions are also written to rec.
func NewArchive(next Backend, rec Recorder, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Archive{next: next, rec: rec, log: logger}
}

// SubmitSwing archives the swing and forwards it. A remote failure is
// returned even when the local write succeeded.
func (a *Archive) SubmitSwing(ctx context.Context, sub model.SwingSubmission) error {
	id, err := a.rec.InsertSwing(ctx, sub)
	if err != nil {
		return fmt.Errorf("failed to archive swing: %w", err)
	}
	a.log.Debug("swing archived", "id", id, "series", sub.SeriesID, "swing", sub.Swing.SwingNumber)
	return a.next.SubmitSwing(ctx, sub)
}

// FetchSolution implements Backend.
func (a *Archive) FetchSolution(ctx context.Context, seriesID string, profile model.Profile) (*model.SolutionData, error) {
	return a.next.FetchSolution(ctx, seriesID, profile)
}

// FetchAnalytics implements Backend.
func (a *Archive) FetchAnalytics(ctx context.Context, seriesID string) (*analytics.View, error) {
	return a.next.FetchAnalytics(ctx, seriesID)
}
