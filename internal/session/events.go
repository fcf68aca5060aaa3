package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventKind names a session mutation.
type EventKind string

const (
	EventStartSeries  EventKind = "session/startSeries"
	EventPhase        EventKind = "session/setPhase"
	EventTick         EventKind = "session/tick"
	EventAddSwing     EventKind = "session/addSwingToHistory"
	EventStep         EventKind = "session/setStep"
	EventSolution     EventKind = "session/setSolutionData"
	EventCancelPhase  EventKind = "session/cancelPhase"
	EventResetHistory EventKind = "session/resetSwingHistory"
	EventReset        EventKind = "session/reset"
	EventRedirect     EventKind = "session/redirect"
)

// Event is an immutable notification carrying the state right after the mutation.
type Event struct {
	Kind      EventKind
	SeriesID  string
	Timestamp time.Time
	Snapshot  Snapshot
}

// Subscription receives events from an EventBus.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus fans out events to all active subscribers. It is safe for
// concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus creates an EventBus ready for use.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe creates a new subscription with the given channel buffer size.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish sends an event to all subscribers. Subscribers with a full buffer
// miss the event; the timer chain never blocks on a slow consumer.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// LogEvents writes every event on bus to logger at debug level until ctx is
// done. It blocks; run it in its own goroutine.
func LogEvents(ctx context.Context, bus *EventBus, logger *slog.Logger) {
	sub := bus.Subscribe(64)
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			s := ev.Snapshot
			logger.Debug("session event",
				"kind", ev.Kind,
				"series", ev.SeriesID,
				"step", s.Step,
				"phase", s.Phase,
				"progress", s.Progress(),
				"history", len(s.Ledger),
				"version", s.Version)
		}
	}
}
