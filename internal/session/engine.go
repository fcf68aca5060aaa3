// Package session runs the kiosk flow: step sequencing, the timed measurement
// collector, aggregation and the bounded swing history.
//
// Engine is the single writer of session state. Every mutation runs under its
// mutex, bumps the snapshot version and publishes an Event; readers take
// snapshots or subscribe to the bus. Timer continuations carry the phase
// generation they were scheduled for and do nothing once it is stale.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/swingkiosk/internal/generator"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Backend is the network boundary. Calls never block the timer chain.
type Backend interface {
	SubmitSwing(ctx context.Context, sub model.SwingSubmission) error
	FetchSolution(ctx context.Context, seriesID string, profile model.Profile) (*model.SolutionData, error)
}

// DefaultBackendTimeout bounds each backend call.
const DefaultBackendTimeout = 5 * time.Second

// Options configures an Engine. Zero fields fall back to defaults.
type Options struct {
	Config         model.Config
	Source         generator.Source
	Scheduler      Scheduler
	Backend        Backend
	Bus            *EventBus
	Logger         *slog.Logger
	Now            func() time.Time
	BackendTimeout time.Duration
}

// Engine owns the session state.
type Engine struct {
	cfg            model.Config
	src            generator.Source
	sched          Scheduler
	backend        Backend
	bus            *EventBus
	log            *slog.Logger
	now            func() time.Time
	backendTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	closed      bool
	seriesID    string
	profile     model.Profile
	step        model.Step
	phase       model.Phase
	first       *Progress
	second      *Progress
	firstSwing  *model.SwingData
	secondSwing *model.SwingData
	ledger      *Ledger
	swingCount  int
	solution    *model.SolutionData
	latest      *model.SwingMeasurement
	version     uint64

	gen    uint64
	timers []Timer
}

// New returns an Engine at swing-first with zeroed counters.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == (model.Config{}) {
		cfg = DefaultConfig()
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	e := &Engine{
		cfg:            cfg,
		src:            opts.Source,
		sched:          opts.Scheduler,
		backend:        opts.Backend,
		bus:            opts.Bus,
		log:            opts.Logger,
		now:            opts.Now,
		backendTimeout: opts.BackendTimeout,
	}
	if e.src == nil {
		e.src = generator.New()
	}
	if e.sched == nil {
		e.sched = RealScheduler{}
	}
	if e.bus == nil {
		e.bus = NewEventBus()
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.backendTimeout <= 0 {
		e.backendTimeout = DefaultBackendTimeout
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.resetLocked()
	return e, nil
}

// Config returns the session settings.
func (e *Engine) Config() model.Config {
	return e.cfg
}

// Bus returns the event bus mutations are published on.
func (e *Engine) Bus() *EventBus {
	return e.bus
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// StartSeries fully resets the session for a new golfer and enters swing-first.
func (e *Engine) StartSeries(profile model.Profile) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimersLocked()
	e.resetLocked()
	e.profile = profile
	e.log.Debug("series started", "series", e.seriesID, "club", profile.Club)
	e.publishLocked(EventStartSeries)
	return nil
}

// BeginPhase starts the measurement collector on a swing step.
func (e *Engine) BeginPhase() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.step.IsSwing() || e.phase != model.PhaseIdle {
		return e.rejectLocked("begin phase")
	}
	e.activeProgressLocked().Discard()
	e.latest = nil
	e.gen++
	e.phase = model.PhaseAnnounce
	e.scheduleLocked(e.cfg.AnnounceDelay, e.startCollect)
	e.log.Debug("phase announced", "step", e.step)
	e.publishLocked(EventPhase)
	return nil
}

// LeavePhase cancels the active collector and discards its partial buffer.
// It reports whether a phase was active.
func (e *Engine) LeavePhase() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == model.PhaseIdle {
		return false
	}
	e.cancelPhaseLocked()
	e.publishLocked(EventCancelPhase)
	return true
}

// RequestNextPhase moves from solution-video to swing-second.
func (e *Engine) RequestNextPhase() error {
	return e.transition("next phase", model.StepSolutionVideo, model.StepSwingSecond)
}

// RequestRetryPhase repeats the second phase from solution-chart within the same series.
func (e *Engine) RequestRetryPhase() error {
	return e.transition("retry phase", model.StepSolutionChart, model.StepSwingSecond)
}

// RequestComplete moves from solution-chart to complete.
func (e *Engine) RequestComplete() error {
	return e.transition("complete", model.StepSolutionChart, model.StepComplete)
}

func (e *Engine) transition(op string, from, to model.Step) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.step != from {
		return e.rejectLocked(op)
	}
	e.step = to
	if to == model.StepSwingSecond {
		e.second.Discard()
		e.latest = nil
	}
	e.log.Debug("step changed", "from", from, "to", to)
	e.publishLocked(EventStep)
	return nil
}

// RequestNewSeries clears the history and counters and rewinds to swing-first,
// keeping the golfer profile.
func (e *Engine) RequestNewSeries() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.step != model.StepSolutionChart {
		return e.rejectLocked("new series")
	}
	e.ledger.Clear()
	e.first.Discard()
	e.second.Discard()
	e.firstSwing = nil
	e.secondSwing = nil
	e.swingCount = 1
	e.solution = nil
	e.latest = nil
	e.seriesID = uuid.NewString()
	e.step = model.StepSwingFirst
	e.log.Debug("new series", "series", e.seriesID)
	e.publishLocked(EventResetHistory)
	return nil
}

// ResetSession returns to the initial state from any step.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimersLocked()
	e.resetLocked()
	e.log.Debug("session reset", "series", e.seriesID)
	e.publishLocked(EventReset)
}

// Close cancels pending timers and waits for in-flight backend calls.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.cancelTimersLocked()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) startCollect(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.phase != model.PhaseAnnounce {
		return
	}
	e.phase = model.PhaseCollect
	e.scheduleLocked(e.cfg.TickInterval, e.advancePhaseTick)
	e.publishLocked(EventPhase)
}

// advancePhaseTick records one reading and schedules the next tick or finalize.
func (e *Engine) advancePhaseTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.phase != model.PhaseCollect {
		return
	}
	p := e.activeProgressLocked()
	m := e.src.Next(p.Count() + 1)
	if err := p.Record(m); err != nil {
		e.log.Warn("dropping tick", "step", e.step, "error", err)
		return
	}
	e.latest = &m
	if p.Full() {
		e.phase = model.PhaseFinalize
		e.scheduleLocked(e.cfg.FinalizeDelay, e.finalize)
	} else {
		e.scheduleLocked(e.cfg.TickInterval, e.advancePhaseTick)
	}
	e.publishLocked(EventTick)
}

func (e *Engine) finalize(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.phase != model.PhaseFinalize {
		return
	}
	e.timers = nil
	p := e.activeProgressLocked()
	swing, err := BuildSwing(e.swingCount, e.step, p.Buffer(), e.cfg.Shots, e.now())
	if err == nil {
		err = e.ledger.Append(swing)
	}
	if err != nil {
		e.log.Warn("rejecting phase", "step", e.step, "error", err)
		e.cancelPhaseLocked()
		e.publishLocked(EventCancelPhase)
		return
	}
	e.swingCount++
	e.publishLocked(EventAddSwing)

	from := e.step
	if from == model.StepSwingFirst {
		e.firstSwing = &swing
		e.step = model.StepSolutionVideo
	} else {
		e.secondSwing = &swing
		e.step = model.StepSolutionChart
	}
	e.phase = model.PhaseIdle
	e.log.Debug("phase complete", "swing", swing.SwingNumber, "from", from, "to", e.step, "avg_distance", swing.Averages.Distance)
	e.publishLocked(EventStep)

	e.submitLocked(model.SwingSubmission{SeriesID: e.seriesID, Profile: e.profile, Swing: swing.Clone()})
	if from == model.StepSwingFirst {
		e.fetchSolutionLocked(e.seriesID, e.profile)
	}
}

func (e *Engine) submitLocked(sub model.SwingSubmission) {
	if e.backend == nil || e.closed {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, e.backendTimeout)
		defer cancel()
		if err := e.backend.SubmitSwing(ctx, sub); err != nil {
			e.log.Warn("failed to submit swing", "series", sub.SeriesID, "swing", sub.Swing.SwingNumber, "error", err)
		}
	}()
}

func (e *Engine) fetchSolutionLocked(seriesID string, profile model.Profile) {
	if e.backend == nil || e.closed {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(e.ctx, e.backendTimeout)
		defer cancel()
		sol, err := e.backend.FetchSolution(ctx, seriesID, profile)
		if err != nil {
			e.log.Warn("failed to fetch solution", "series", seriesID, "error", err)
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.seriesID != seriesID || sol == nil {
			return
		}
		e.solution = sol
		e.publishLocked(EventSolution)
	}()
}

func (e *Engine) scheduleLocked(delay time.Duration, fn func(gen uint64)) {
	gen := e.gen
	e.timers = append(e.timers, e.sched.Schedule(delay, func() { fn(gen) }))
}

func (e *Engine) cancelTimersLocked() {
	for _, t := range e.timers {
		t.Cancel()
	}
	e.timers = nil
	e.gen++
}

func (e *Engine) cancelPhaseLocked() {
	e.cancelTimersLocked()
	e.activeProgressLocked().Discard()
	e.latest = nil
	e.phase = model.PhaseIdle
	e.log.Debug("phase canceled", "step", e.step)
}

func (e *Engine) resetLocked() {
	e.seriesID = uuid.NewString()
	e.profile = model.Profile{}
	e.step = model.StepSwingFirst
	e.phase = model.PhaseIdle
	e.first = NewProgress(e.cfg.Shots)
	e.second = NewProgress(e.cfg.Shots)
	e.firstSwing = nil
	e.secondSwing = nil
	e.ledger = NewLedger(e.cfg.Shots)
	e.swingCount = 1
	e.solution = nil
	e.latest = nil
}

func (e *Engine) activeProgressLocked() *Progress {
	if e.step == model.StepSwingSecond {
		return e.second
	}
	return e.first
}

func (e *Engine) rejectLocked(op string) error {
	e.log.Warn("rejected session operation", "op", op, "step", e.step, "phase", e.phase)
	return fmt.Errorf("%s from %s/%s: %w", op, e.step, e.phase, ErrSequence)
}

func (e *Engine) publishLocked(kind EventKind) {
	e.version++
	e.bus.Publish(Event{
		Kind:      kind,
		SeriesID:  e.seriesID,
		Timestamp: e.now(),
		Snapshot:  e.snapshotLocked(),
	})
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		SeriesID:       e.seriesID,
		Profile:        e.profile,
		Step:           e.step,
		Phase:          e.phase,
		Shots:          e.cfg.Shots,
		FirstProgress:  e.first.Count(),
		SecondProgress: e.second.Count(),
		Ledger:         e.ledger.Entries(),
		SwingCount:     e.swingCount,
		Version:        e.version,
	}
	if e.firstSwing != nil {
		c := e.firstSwing.Clone()
		s.FirstSwing = &c
	}
	if e.secondSwing != nil {
		c := e.secondSwing.Clone()
		s.SecondSwing = &c
	}
	if e.solution != nil {
		c := cloneSolution(*e.solution)
		s.Solution = &c
	}
	if e.latest != nil {
		m := *e.latest
		s.Latest = &m
	}
	return s
}

func cloneSolution(sol model.SolutionData) model.SolutionData {
	out := sol
	if sol.Improvement != nil {
		imp := *sol.Improvement
		out.Improvement = &imp
	}
	out.Problems = append([]model.Problem(nil), sol.Problems...)
	out.Videos = append([]model.SolutionVideo(nil), sol.Videos...)
	return out
}
