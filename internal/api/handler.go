// Package api exposes the kiosk session over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/session"
)

// AnalyticsSource serves analytics for archived or remote series.
type AnalyticsSource interface {
	FetchAnalytics(ctx context.Context, seriesID string) (*analytics.View, error)
}

// Handler serves the session engine to kiosk frontends.
type Handler struct {
	engine  *session.Engine
	remote  AnalyticsSource
	log     *slog.Logger
	actions map[string]func() error
}

// NewHandler creates a Handler. remote may be nil, in which case only the live
// session's analytics are served.
func NewHandler(engine *session.Engine, remote AnalyticsSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{engine: engine, remote: remote, log: logger}
	h.actions = map[string]func() error{
		"begin":      engine.BeginPhase,
		"next":       engine.RequestNextPhase,
		"retry":      engine.RequestRetryPhase,
		"new-series": engine.RequestNewSeries,
		"complete":   engine.RequestComplete,
		"reset": func() error {
			engine.ResetSession()
			return nil
		},
		"leave": func() error {
			engine.LeavePhase()
			return nil
		},
	}
	return h
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/start", h.StartSeries)
		r.Post("/{action}", h.Action)
		r.Get("/analytics", h.GetAnalytics)
		r.Get("/screens/{screen}", h.GuardScreen)
	})
	if h.remote != nil {
		r.Get("/api/series/{seriesID}/analytics", h.GetSeriesAnalytics)
	}
	r.Get("/ws/session", h.ServeWS)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
