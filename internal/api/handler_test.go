package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/swingkiosk/internal/backend"
	"github.com/verte-zerg/swingkiosk/internal/generator"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
)

type fixture struct {
	engine *session.Engine
	sched  *session.ManualScheduler
	router http.Handler
}

func newFixture(t *testing.T, remote AnalyticsSource) *fixture {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Shots = 3
	sched := session.NewManualScheduler()
	e, err := session.New(session.Options{Config: cfg, Source: generator.NewSeeded(3), Scheduler: sched})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return &fixture{engine: e, sched: sched, router: NewRouter(NewHandler(e, remote, nil), []string{"*"})}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) runPhase(t *testing.T) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/session/begin", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cfg := f.engine.Config()
	f.sched.Advance(cfg.AnnounceDelay + time.Duration(cfg.Shots)*cfg.TickInterval + cfg.FinalizeDelay)
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	return snap
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var got map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "bar", got["foo"])
}

func TestSessionFlowOverHTTP(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/session/start", `{"club":"driver","gender":"female"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, model.StepSwingFirst, snap.Step)
	assert.Equal(t, "driver", snap.Profile.Club)

	f.runPhase(t)
	snap = decodeSnapshot(t, f.do(t, http.MethodGet, "/api/session", ""))
	assert.Equal(t, model.StepSolutionVideo, snap.Step)
	assert.Len(t, snap.Ledger, 1)

	w = f.do(t, http.MethodPost, "/api/session/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/session/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepSwingSecond, decodeSnapshot(t, w).Step)

	f.runPhase(t)
	w = f.do(t, http.MethodPost, "/api/session/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StepComplete, decodeSnapshot(t, w).Step)

	w = f.do(t, http.MethodPost, "/api/session/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, model.StepSwingFirst, snap.Step)
	assert.Empty(t, snap.Ledger)
}

func TestStartRejectsInvalidProfile(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/session/start", `{"club":"putter"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/session/start", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownAction(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/session/jump", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeaveCancelsPhase(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/session/begin", "").Code)
	f.sched.Advance(f.engine.Config().AnnounceDelay + f.engine.Config().TickInterval)

	w := f.do(t, http.MethodPost, "/api/session/leave", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, model.PhaseIdle, snap.Phase)
	assert.Zero(t, snap.FirstProgress)
}

func TestGuardScreen(t *testing.T) {
	f := newFixture(t, nil)

	var resp screenResponse
	w := f.do(t, http.MethodGet, "/api/session/screens/swing", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Redirected)
	assert.Equal(t, session.ScreenSwing, resp.Screen)

	w = f.do(t, http.MethodGet, "/api/session/screens/solution", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Redirected)
	assert.Equal(t, session.ScreenHome, resp.Screen)

	w = f.do(t, http.MethodGet, "/api/session/screens/settings", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsIncludesComparison(t *testing.T) {
	f := newFixture(t, nil)
	f.runPhase(t)

	var resp analyticsResponse
	w := f.do(t, http.MethodGet, "/api/session/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Nil(t, resp.Comparison)
	assert.Len(t, resp.View.Trend, 3)
	assert.Len(t, resp.View.Dispersion, 1)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/session/next", "").Code)
	f.runPhase(t)
	w = f.do(t, http.MethodGet, "/api/session/analytics", "")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Comparison)
	assert.Len(t, resp.Comparison.Metrics, 5)
	assert.Len(t, resp.View.Dispersion, 2)
}

func TestSeriesAnalyticsFromRemote(t *testing.T) {
	mock := backend.NewMock(session.DefaultConfig())
	f := newFixture(t, mock)
	require.NoError(t, mock.SubmitSwing(context.Background(), model.SwingSubmission{
		SeriesID: "series-1",
		Swing:    model.SwingData{SwingNumber: 1, Averages: model.Averages{Distance: 220}},
	}))

	w := f.do(t, http.MethodGet, "/api/series/series-1/analytics", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp analyticsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "series-1", resp.SeriesID)

	w = f.do(t, http.MethodGet, "/api/series/missing/analytics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSeriesAnalyticsRouteRequiresRemote(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/api/series/series-1/analytics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) wsMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg wsMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketStreamsEvents(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/session", nil)
	require.NoError(t, err)
	defer func() {
		if cerr := conn.Close(websocket.StatusNormalClosure, ""); cerr != nil {
			t.Logf("close: %v", cerr)
		}
	}()

	first := readMessage(t, ctx, conn)
	require.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, model.StepSwingFirst, first.Snapshot.Step)

	require.NoError(t, writeJSON(ctx, conn, wsMessage{Type: "ping"}))
	assert.Equal(t, "pong", readMessage(t, ctx, conn).Type)

	require.NoError(t, writeJSON(ctx, conn, wsMessage{Type: "action", Action: "begin"}))
	ev := readMessage(t, ctx, conn)
	assert.Equal(t, "event", ev.Type)
	assert.Equal(t, session.EventPhase, ev.Kind)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, model.PhaseAnnounce, ev.Snapshot.Phase)

	require.NoError(t, writeJSON(ctx, conn, wsMessage{Type: "action", Action: "complete"}))
	errMsg := readMessage(t, ctx, conn)
	assert.Equal(t, "error", errMsg.Type)
	assert.Equal(t, "complete", errMsg.Action)
}
