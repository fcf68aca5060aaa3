package session

import (
	"fmt"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// LedgerCap is the maximum number of retained swings.
const LedgerCap = 5

// Ledger retains completed swings. The first entry is kept as the baseline;
// beyond LedgerCap only the most recent LedgerCap-1 entries follow it.
type Ledger struct {
	shots   int
	entries []model.SwingData
}

// NewLedger returns an empty ledger accepting swings of n readings.
func NewLedger(n int) *Ledger {
	return &Ledger{shots: n}
}

// Append adds a completed swing. Swings with a buffer of the wrong size or a
// swing number not above the last entry are rejected and the ledger is unchanged.
func (l *Ledger) Append(d model.SwingData) error {
	if len(d.Measurements) != l.shots {
		return fmt.Errorf("append swing %d: have %d of %d readings: %w", d.SwingNumber, len(d.Measurements), l.shots, ErrIncompleteBuffer)
	}
	if n := len(l.entries); n > 0 && d.SwingNumber <= l.entries[n-1].SwingNumber {
		return fmt.Errorf("append swing %d after %d: %w", d.SwingNumber, l.entries[n-1].SwingNumber, ErrSequence)
	}
	l.entries = Retain(append(l.entries, d.Clone()))
	return nil
}

// Retain applies the baseline-preserving bound to a post-append sequence.
func Retain(entries []model.SwingData) []model.SwingData {
	if len(entries) <= LedgerCap {
		return entries
	}
	out := make([]model.SwingData, 0, LedgerCap)
	out = append(out, entries[0])
	return append(out, entries[len(entries)-(LedgerCap-1):]...)
}

// Entries returns a copy of the ledger in append order.
func (l *Ledger) Entries() []model.SwingData {
	out := make([]model.SwingData, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of retained swings.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear drops every entry.
func (l *Ledger) Clear() {
	l.entries = nil
}
