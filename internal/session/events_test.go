package session

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	sub1 := bus.Subscribe(4)
	sub2 := bus.Subscribe(4)
	defer bus.Unsubscribe(sub1)
	defer bus.Unsubscribe(sub2)

	bus.Publish(Event{Kind: EventTick, SeriesID: "s1"})

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case got := <-sub.C:
			assert.Equal(t, EventTick, got.Kind)
			assert.Equal(t, "s1", got.SeriesID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(1)
	defer bus.Unsubscribe(sub)

	bus.Publish(Event{Kind: EventPhase})
	bus.Publish(Event{Kind: EventTick})

	assert.Equal(t, EventPhase, (<-sub.C).Kind)
	select {
	case <-sub.C:
		t.Fatal("expected channel to be empty after drop")
	default:
	}
}

func TestEventBusUnsubscribeClosesOnce(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(1)
	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.NotPanics(t, func() { bus.Publish(Event{Kind: EventReset}) })
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogEventsWritesDebugRecords(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		LogEvents(ctx, bus, logger)
	}()

	assert.Eventually(t, func() bool {
		bus.Publish(Event{Kind: EventTick, SeriesID: "s1"})
		return strings.Contains(out.String(), "kind=session/tick")
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "series=s1")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogEvents did not stop")
	}
}
