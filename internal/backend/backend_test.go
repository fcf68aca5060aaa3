package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
	"github.com/verte-zerg/swingkiosk/internal/store"
)

var (
	_ Backend         = (*Mock)(nil)
	_ Backend         = (*HTTP)(nil)
	_ Backend         = (*Archive)(nil)
	_ session.Backend = (*Archive)(nil)
	_ Recorder        = (*store.Store)(nil)
)

func sub(series string, number int, distance float64) model.SwingSubmission {
	return model.SwingSubmission{
		SeriesID: series,
		Profile:  model.Profile{Club: "driver"},
		Swing: model.SwingData{
			SwingNumber:  number,
			Step:         model.StepSwingFirst,
			Measurements: []model.SwingMeasurement{{ShotIndex: 1, Distance: distance}},
			Averages:     model.Averages{Distance: distance},
			CompletedAt:  time.Date(2026, 5, 1, 9, number, 0, 0, time.UTC),
		},
	}
}

func TestMockAnalyticsFromSubmissions(t *testing.T) {
	m := NewMock(model.Config{Shots: 1, TargetDistance: 230, DirectionalMultiplier: 2})
	ctx := context.Background()

	_, err := m.FetchAnalytics(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SubmitSwing(ctx, sub("s1", 1, 200)))
	require.NoError(t, m.SubmitSwing(ctx, sub("s1", 2, 250)))
	require.NoError(t, m.SubmitSwing(ctx, sub("s2", 1, 100)))

	view, err := m.FetchAnalytics(ctx, "s1")
	require.NoError(t, err)
	assert.InDelta(t, 25.0, view.ImprovementRate, 1e-9)
	assert.Len(t, view.Dispersion, 2)
	assert.Len(t, m.Submitted("s2"), 1)

	assert.Error(t, m.SubmitSwing(ctx, sub("", 1, 100)))
}

func TestMockRetainsBaseline(t *testing.T) {
	m := NewMock(model.Config{Shots: 1})
	for n := 1; n <= 8; n++ {
		require.NoError(t, m.SubmitSwing(context.Background(), sub("s", n, 200)))
	}
	got := m.Submitted("s")
	require.Len(t, got, session.LedgerCap)
	assert.Equal(t, 1, got[0].SwingNumber)
	assert.Equal(t, 8, got[4].SwingNumber)
}

func TestMockSolution(t *testing.T) {
	sol, err := NewMock(model.Config{}).FetchSolution(context.Background(), "s", model.Profile{})
	require.NoError(t, err)
	assert.Len(t, sol.Problems, 3)
	assert.Len(t, sol.Videos, 6)
	assert.Equal(t, 45.2, sol.Problems[0].Percentage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMock(model.Config{}).FetchSolution(ctx, "s", model.Profile{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSubmitSwing(t *testing.T) {
	var got model.SwingSubmission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/swings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewHTTP(srv.URL+"/", time.Second)
	require.NoError(t, client.SubmitSwing(context.Background(), sub("s1", 3, 240)))
	assert.Equal(t, "s1", got.SeriesID)
	assert.Equal(t, 3, got.Swing.SwingNumber)
	assert.Equal(t, 240.0, got.Swing.Averages.Distance)
}

func TestHTTPSubmitSwingServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewHTTP(srv.URL, time.Second).SubmitSwing(context.Background(), sub("s1", 1, 200))
	assert.ErrorContains(t, err, "500")
}

func TestHTTPFetchSolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/solutions/s1", r.URL.Path)
		assert.Equal(t, "iron7", r.URL.Query().Get("club"))
		assert.Empty(t, r.URL.Query().Get("gender"))
		_ = json.NewEncoder(w).Encode(MockSolution())
	}))
	defer srv.Close()

	sol, err := NewHTTP(srv.URL, time.Second).FetchSolution(context.Background(), "s1", model.Profile{Club: "iron7"})
	require.NoError(t, err)
	assert.Equal(t, "back-swing", sol.ProblemType)
	require.NotNil(t, sol.Improvement)
	assert.Equal(t, 12.5, sol.Improvement.Distance)
}

func TestHTTPFetchAnalyticsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTP(srv.URL, time.Second).FetchAnalytics(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetchAnalytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analytics/s1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(analytics.View{ImprovementRate: 7.5})
	}))
	defer srv.Close()

	view, err := NewHTTP(srv.URL, time.Second).FetchAnalytics(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, view.ImprovementRate)
}

func TestHTTPRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewHTTP(srv.URL, time.Second).SubmitSwing(ctx, sub("s1", 1, 200))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingRecorder struct{}

func (failingRecorder) InsertSwing(context.Context, model.SwingSubmission) (int64, error) {
	return 0, errors.New("disk full")
}

func TestArchiveWritesStoreThenForwards(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "swings.db"))
	require.NoError(t, err)
	defer st.Close()

	mock := NewMock(model.Config{Shots: 1})
	a := NewArchive(mock, st, nil)
	ctx := context.Background()
	require.NoError(t, a.SubmitSwing(ctx, sub("s1", 1, 210)))

	swings, err := st.LoadSeries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, swings, 1)
	assert.Equal(t, 210.0, swings[0].Averages.Distance)
	assert.Len(t, mock.Submitted("s1"), 1)

	sol, err := a.FetchSolution(ctx, "s1", model.Profile{})
	require.NoError(t, err)
	assert.NotEmpty(t, sol.Videos)
	_, err = a.FetchAnalytics(ctx, "s1")
	assert.NoError(t, err)
}

func TestArchiveStopsOnRecorderError(t *testing.T) {
	mock := NewMock(model.Config{Shots: 1})
	a := NewArchive(mock, failingRecorder{}, nil)
	err := a.SubmitSwing(context.Background(), sub("s1", 1, 210))
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, mock.Submitted("s1"))
}
