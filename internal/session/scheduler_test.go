package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualSchedulerFiresInOrder(t *testing.T) {
	s := NewManualScheduler()
	var got []string
	s.Schedule(2*time.Second, func() { got = append(got, "b") })
	s.Schedule(time.Second, func() { got = append(got, "a") })
	s.Schedule(2*time.Second, func() { got = append(got, "c") })

	s.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	s.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, s.Pending())
	assert.Equal(t, 2500*time.Millisecond, s.Elapsed())
}

func TestManualSchedulerChainsWithinWindow(t *testing.T) {
	s := NewManualScheduler()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			s.Schedule(time.Second, tick)
		}
	}
	s.Schedule(time.Second, tick)
	s.Advance(3 * time.Second)
	assert.Equal(t, 3, count)
	s.Advance(time.Minute)
	assert.Equal(t, 5, count)
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	s := NewManualScheduler()
	fired := false
	timer := s.Schedule(time.Second, func() { fired = true })
	timer.Cancel()
	timer.Cancel()
	s.Advance(time.Minute)
	assert.False(t, fired)

	done := s.Schedule(time.Second, func() { fired = true })
	s.Advance(time.Second)
	assert.True(t, fired)
	assert.NotPanics(t, func() { done.Cancel() })
}

func TestRealSchedulerCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	timer := RealScheduler{}.Schedule(time.Hour, func() { fired <- struct{}{} })
	timer.Cancel()
	timer.Cancel()
	select {
	case <-fired:
		t.Fatal("canceled timer fired")
	default:
	}
}
