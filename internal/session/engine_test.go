package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/swingkiosk/internal/generator"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

var testClock = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, shots int, backend Backend) (*Engine, *ManualScheduler) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Shots = shots
	sched := NewManualScheduler()
	e, err := New(Options{
		Config:    cfg,
		Source:    generator.NewSeeded(1),
		Scheduler: sched,
		Backend:   backend,
		Now:       func() time.Time { return testClock },
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, sched
}

func phaseDuration(cfg model.Config) time.Duration {
	return cfg.AnnounceDelay + time.Duration(cfg.Shots)*cfg.TickInterval + cfg.FinalizeDelay
}

func runPhase(t *testing.T, e *Engine, sched *ManualScheduler) {
	t.Helper()
	require.NoError(t, e.BeginPhase())
	sched.Advance(phaseDuration(e.Config()))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shots = 0
	_, err := New(Options{Config: cfg})
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.TickInterval = 0
	_, err = New(Options{Config: cfg})
	assert.Error(t, err)
}

func TestInitialState(t *testing.T) {
	e, _ := newTestEngine(t, 10, nil)
	s := e.Snapshot()
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Equal(t, model.PhaseIdle, s.Phase)
	assert.Zero(t, s.FirstProgress)
	assert.Zero(t, s.SecondProgress)
	assert.Empty(t, s.Ledger)
	assert.Equal(t, 1, s.SwingCount)
	assert.NotEmpty(t, s.SeriesID)
}

func TestCollectorCountsExactlyNTicks(t *testing.T) {
	for _, n := range []int{1, 3, 10} {
		e, sched := newTestEngine(t, n, nil)
		cfg := e.Config()

		require.NoError(t, e.BeginPhase())
		assert.Equal(t, model.PhaseAnnounce, e.Snapshot().Phase)

		sched.Advance(cfg.AnnounceDelay)
		assert.Equal(t, model.PhaseCollect, e.Snapshot().Phase)
		assert.Zero(t, e.Snapshot().FirstProgress)

		for i := 1; i <= n; i++ {
			sched.Advance(cfg.TickInterval)
			s := e.Snapshot()
			assert.Equal(t, i, s.FirstProgress)
			require.NotNil(t, s.Latest)
			assert.Equal(t, i, s.Latest.ShotIndex)
		}
		assert.Equal(t, model.PhaseFinalize, e.Snapshot().Phase)
		assert.Len(t, e.first.Buffer(), n)

		sched.Advance(cfg.FinalizeDelay)
		s := e.Snapshot()
		assert.Equal(t, n, s.FirstProgress)
		require.Len(t, s.Ledger, 1)
		assert.Len(t, s.Ledger[0].Measurements, n)
	}
}

func TestTickIsNotEarly(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	require.NoError(t, e.BeginPhase())
	sched.Advance(e.Config().AnnounceDelay + e.Config().TickInterval - time.Millisecond)
	assert.Zero(t, e.Snapshot().FirstProgress)
	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, e.Snapshot().FirstProgress)
}

func TestFirstPhaseCompletesToSolutionVideo(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	runPhase(t, e, sched)

	s := e.Snapshot()
	assert.Equal(t, model.StepSolutionVideo, s.Step)
	assert.Equal(t, model.PhaseIdle, s.Phase)
	require.NotNil(t, s.FirstSwing)
	assert.Nil(t, s.SecondSwing)
	assert.Equal(t, 1, s.FirstSwing.SwingNumber)
	assert.Equal(t, model.StepSwingFirst, s.FirstSwing.Step)
	assert.Equal(t, testClock, s.FirstSwing.CompletedAt)
	assert.Equal(t, 2, s.SwingCount)
	assert.Zero(t, sched.Pending())
}

func TestSecondPhaseCompletesToSolutionChart(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	runPhase(t, e, sched)
	require.NoError(t, e.RequestNextPhase())
	s := e.Snapshot()
	assert.Equal(t, model.StepSwingSecond, s.Step)
	assert.Zero(t, s.SecondProgress)

	runPhase(t, e, sched)
	s = e.Snapshot()
	assert.Equal(t, model.StepSolutionChart, s.Step)
	require.NotNil(t, s.SecondSwing)
	assert.Equal(t, 2, s.SecondSwing.SwingNumber)
	assert.Equal(t, 10, s.SecondProgress)
	assert.Equal(t, []int{1, 2}, numbers(s.Ledger))
}

func TestRetryKeepsSeriesAndGrowsLedger(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)
	runPhase(t, e, sched)
	require.NoError(t, e.RequestNextPhase())
	runPhase(t, e, sched)
	series := e.Snapshot().SeriesID

	for i := 0; i < 6; i++ {
		require.NoError(t, e.RequestRetryPhase())
		assert.Zero(t, e.Snapshot().SecondProgress)
		runPhase(t, e, sched)
	}
	s := e.Snapshot()
	assert.Equal(t, series, s.SeriesID)
	assert.Equal(t, model.StepSolutionChart, s.Step)
	assert.Equal(t, []int{1, 5, 6, 7, 8}, numbers(s.Ledger))
	assert.Equal(t, 9, s.SwingCount)
}

func TestCompleteAndReset(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)
	runPhase(t, e, sched)
	require.NoError(t, e.RequestNextPhase())
	runPhase(t, e, sched)
	require.NoError(t, e.RequestComplete())
	assert.Equal(t, model.StepComplete, e.Snapshot().Step)

	e.ResetSession()
	s := e.Snapshot()
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Zero(t, s.FirstProgress)
	assert.Zero(t, s.SecondProgress)
	assert.Empty(t, s.Ledger)
	assert.Nil(t, s.FirstSwing)
	assert.Nil(t, s.SecondSwing)
	assert.Equal(t, 1, s.SwingCount)
}

func TestResetMidPhaseCancelsTimers(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	require.NoError(t, e.BeginPhase())
	sched.Advance(e.Config().AnnounceDelay + 3*e.Config().TickInterval)
	require.Equal(t, 3, e.Snapshot().FirstProgress)

	e.ResetSession()
	assert.Zero(t, sched.Pending())
	sched.Advance(time.Minute)
	s := e.Snapshot()
	assert.Zero(t, s.FirstProgress)
	assert.Equal(t, model.PhaseIdle, s.Phase)
	assert.Empty(t, s.Ledger)
}

func TestNewSeriesClearsLedger(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)
	require.NoError(t, e.StartSeries(model.Profile{Club: "driver"}))
	runPhase(t, e, sched)
	require.NoError(t, e.RequestNextPhase())
	runPhase(t, e, sched)
	before := e.Snapshot().SeriesID

	require.NoError(t, e.RequestNewSeries())
	s := e.Snapshot()
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Empty(t, s.Ledger)
	assert.Zero(t, s.FirstProgress)
	assert.Zero(t, s.SecondProgress)
	assert.Equal(t, 1, s.SwingCount)
	assert.NotEqual(t, before, s.SeriesID)
	assert.Equal(t, "driver", s.Profile.Club)

	runPhase(t, e, sched)
	assert.Equal(t, []int{1}, numbers(e.Snapshot().Ledger))
}

func TestSequenceViolationsAreRejected(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)

	for name, op := range map[string]func() error{
		"next":       e.RequestNextPhase,
		"retry":      e.RequestRetryPhase,
		"complete":   e.RequestComplete,
		"new series": e.RequestNewSeries,
	} {
		before := e.Snapshot()
		err := op()
		assert.ErrorIs(t, err, ErrSequence, name)
		assert.Equal(t, before, e.Snapshot(), name)
	}

	require.NoError(t, e.BeginPhase())
	assert.ErrorIs(t, e.BeginPhase(), ErrSequence)

	sched.Advance(phaseDuration(e.Config()))
	assert.ErrorIs(t, e.BeginPhase(), ErrSequence)
	assert.ErrorIs(t, e.RequestComplete(), ErrSequence)
}

func TestLeavePhaseCancelsAndDiscards(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	cfg := e.Config()
	require.NoError(t, e.BeginPhase())
	sched.Advance(cfg.AnnounceDelay + 2*cfg.TickInterval)
	require.Equal(t, 2, e.Snapshot().FirstProgress)

	assert.True(t, e.LeavePhase())
	assert.False(t, e.LeavePhase())
	assert.Zero(t, sched.Pending())

	sched.Advance(time.Minute)
	s := e.Snapshot()
	assert.Zero(t, s.FirstProgress)
	assert.Nil(t, s.Latest)
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Empty(t, s.Ledger)

	runPhase(t, e, sched)
	assert.Equal(t, model.StepSolutionVideo, e.Snapshot().Step)
}

func TestLeaveDuringFinalizeDiscards(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)
	cfg := e.Config()
	require.NoError(t, e.BeginPhase())
	sched.Advance(cfg.AnnounceDelay + 2*cfg.TickInterval)
	require.Equal(t, model.PhaseFinalize, e.Snapshot().Phase)

	e.LeavePhase()
	sched.Advance(time.Minute)
	s := e.Snapshot()
	assert.Empty(t, s.Ledger)
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Equal(t, 1, s.SwingCount)
}

func TestStaleTickDoesNotMutate(t *testing.T) {
	e, sched := newTestEngine(t, 10, nil)
	require.NoError(t, e.BeginPhase())
	sched.Advance(e.Config().AnnounceDelay + e.Config().TickInterval)

	e.mu.RLock()
	stale := e.gen
	e.mu.RUnlock()
	e.LeavePhase()

	e.advancePhaseTick(stale)
	e.finalize(stale)
	assert.Zero(t, e.Snapshot().FirstProgress)
	assert.Empty(t, e.Snapshot().Ledger)
}

func TestStartSeriesValidatesProfile(t *testing.T) {
	e, _ := newTestEngine(t, 2, nil)
	err := e.StartSeries(model.Profile{Club: "putter"})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	p := model.Profile{Gender: "female", AgeRange: "30-32", Handicap: "10-14.9", Club: "iron7"}
	require.NoError(t, e.StartSeries(p))
	assert.Equal(t, p, e.Snapshot().Profile)
	require.NoError(t, e.StartSeries(model.Profile{}))
}

func TestStartSeriesResetsEverything(t *testing.T) {
	e, sched := newTestEngine(t, 2, nil)
	runPhase(t, e, sched)
	before := e.Snapshot().SeriesID

	require.NoError(t, e.StartSeries(model.Profile{}))
	s := e.Snapshot()
	assert.NotEqual(t, before, s.SeriesID)
	assert.Equal(t, model.StepSwingFirst, s.Step)
	assert.Empty(t, s.Ledger)
	assert.Nil(t, s.FirstSwing)
}

func TestEventsFollowSchedulingOrder(t *testing.T) {
	e, sched := newTestEngine(t, 3, nil)
	sub := e.Bus().Subscribe(64)
	defer e.Bus().Unsubscribe(sub)

	runPhase(t, e, sched)

	var kinds []EventKind
	var versions []uint64
	for len(sub.C) > 0 {
		ev := <-sub.C
		kinds = append(kinds, ev.Kind)
		versions = append(versions, ev.Snapshot.Version)
	}
	assert.Equal(t, []EventKind{
		EventPhase, EventPhase,
		EventTick, EventTick, EventTick,
		EventAddSwing, EventStep,
	}, kinds)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
}

type fakeBackend struct {
	mu       sync.Mutex
	subs     []model.SwingSubmission
	release  chan struct{}
	solution *model.SolutionData
	err      error
}

func (f *fakeBackend) SubmitSwing(_ context.Context, sub model.SwingSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return f.err
}

func (f *fakeBackend) FetchSolution(_ context.Context, _ string, _ model.Profile) (*model.SolutionData, error) {
	if f.release != nil {
		<-f.release
	}
	return f.solution, f.err
}

func (f *fakeBackend) submissions() []model.SwingSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SwingSubmission(nil), f.subs...)
}

func TestCompletedSwingIsSubmittedAndSolutionStored(t *testing.T) {
	fb := &fakeBackend{solution: &model.SolutionData{ProblemType: "over-the-top"}}
	e, sched := newTestEngine(t, 2, fb)
	require.NoError(t, e.StartSeries(model.Profile{Club: "driver"}))
	runPhase(t, e, sched)

	require.Eventually(t, func() bool {
		return len(fb.submissions()) == 1 && e.Snapshot().Solution != nil
	}, time.Second, 5*time.Millisecond)

	sub := fb.submissions()[0]
	assert.Equal(t, e.Snapshot().SeriesID, sub.SeriesID)
	assert.Equal(t, "driver", sub.Profile.Club)
	assert.Equal(t, 1, sub.Swing.SwingNumber)
	assert.Equal(t, "over-the-top", e.Snapshot().Solution.ProblemType)
}

func TestStaleSolutionIsDropped(t *testing.T) {
	fb := &fakeBackend{solution: &model.SolutionData{ProblemType: "late"}, release: make(chan struct{})}
	e, sched := newTestEngine(t, 2, fb)
	runPhase(t, e, sched)

	e.ResetSession()
	close(fb.release)
	e.Close()
	assert.Nil(t, e.Snapshot().Solution)
}

func TestBackendFailureDoesNotBlockFlow(t *testing.T) {
	fb := &fakeBackend{err: errors.New("offline")}
	e, sched := newTestEngine(t, 2, fb)
	runPhase(t, e, sched)
	require.NoError(t, e.RequestNextPhase())
	runPhase(t, e, sched)
	e.Close()
	assert.Equal(t, model.StepSolutionChart, e.Snapshot().Step)
	assert.Len(t, fb.submissions(), 2)
	assert.Nil(t, e.Snapshot().Solution)
}
