package session

import (
	"fmt"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Progress counts completed shots in a measurement phase and buffers their readings.
type Progress struct {
	shots  int
	buffer []model.SwingMeasurement
}

// NewProgress returns a counter for a phase of n shots.
func NewProgress(n int) *Progress {
	return &Progress{shots: n, buffer: make([]model.SwingMeasurement, 0, n)}
}

// Record appends one reading and increments the counter.
func (p *Progress) Record(m model.SwingMeasurement) error {
	if len(p.buffer) >= p.shots {
		return fmt.Errorf("record shot %d of %d: %w", len(p.buffer)+1, p.shots, ErrSequence)
	}
	p.buffer = append(p.buffer, m)
	return nil
}

// Count returns the number of recorded shots.
func (p *Progress) Count() int {
	return len(p.buffer)
}

// Full reports whether the counter reached N.
func (p *Progress) Full() bool {
	return len(p.buffer) == p.shots
}

// Buffer returns a copy of the recorded readings.
func (p *Progress) Buffer() []model.SwingMeasurement {
	return append([]model.SwingMeasurement(nil), p.buffer...)
}

// Latest returns the most recent reading.
func (p *Progress) Latest() (model.SwingMeasurement, bool) {
	if len(p.buffer) == 0 {
		return model.SwingMeasurement{}, false
	}
	return p.buffer[len(p.buffer)-1], true
}

// Discard drops every buffered reading.
func (p *Progress) Discard() {
	p.buffer = p.buffer[:0]
}
