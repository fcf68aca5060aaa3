// Package generator produces shot readings for measurement phases.
package generator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Source produces one shot reading per call. shotIndex is 1-based within the phase.
type Source interface {
	Next(shotIndex int) model.SwingMeasurement
}

// Ball flight labels produced by the synthetic source.
const (
	FlightSlice    = "slice"
	FlightHook     = "hook"
	FlightStraight = "straight"
)

var flights = []string{FlightSlice, FlightHook, FlightStraight}

// Generator produces synthetic shot readings in launch-monitor ranges.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Next returns a synthetic reading. Spin is left at zero; the synthetic
// source has no spin model for the aggregated metric.
func (g *Generator) Next(shotIndex int) model.SwingMeasurement {
	g.mu.Lock()
	defer g.mu.Unlock()

	side := 1.0
	if g.rnd.Float64() > 0.5 {
		side = -1
	}
	direction := side * round1(g.rnd.Float64()*2)
	lateral := side * round1(1+g.rnd.Float64()*3)
	sideSpin := math.Floor(300 + g.rnd.Float64()*300)
	if g.rnd.Float64() > 0.5 {
		sideSpin = -sideSpin
	}
	return model.SwingMeasurement{
		ShotIndex:   shotIndex,
		ClubSpeed:   round1(48 + g.rnd.Float64()*5),
		BallSpeed:   round1(33 + g.rnd.Float64()*5),
		LaunchAngle: round1(18 + g.rnd.Float64()*5),
		Distance:    round1(200 + g.rnd.Float64()*70),
		Direction:   direction,
		Lateral:     lateral,
		SideSpin:    sideSpin,
		BackSpin:    math.Floor(4000 + g.rnd.Float64()*1000),
		BallFlight:  flights[g.rnd.Intn(len(flights))],
		CapturedAt:  g.now(),
	}
}

// Replay returns canned readings in order and wraps around when exhausted.
type Replay struct {
	mu       sync.Mutex
	readings []model.SwingMeasurement
	pos      int
}

// NewReplay returns a Source that replays the given readings.
func NewReplay(readings []model.SwingMeasurement) *Replay {
	return &Replay{readings: append([]model.SwingMeasurement(nil), readings...)}
}

// Next returns the next canned reading with the shot index rewritten.
func (r *Replay) Next(shotIndex int) model.SwingMeasurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.readings) == 0 {
		return model.SwingMeasurement{ShotIndex: shotIndex, CapturedAt: time.Now()}
	}
	m := r.readings[r.pos%len(r.readings)]
	r.pos++
	m.ShotIndex = shotIndex
	if m.CapturedAt.IsZero() {
		m.CapturedAt = time.Now()
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
