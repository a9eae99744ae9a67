package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSet_CancelAllStopsEverything(t *testing.T) {
	ts := NewTimerSet()
	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		ts.AfterFunc(time.Hour, func() { fired.Add(1) })
	}
	if got := ts.Pending(); got != 3 {
		t.Fatalf("Expected 3 pending timers, got %d", got)
	}

	ts.CancelAll()
	if got := ts.Pending(); got != 0 {
		t.Errorf("Expected no pending timers after cancel, got %d", got)
	}
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("Expected no callbacks after cancel, got %d", fired.Load())
	}
}

func TestTimerSet_TimersScheduledAfterCancelSurvive(t *testing.T) {
	ts := NewTimerSet()
	ts.CancelAll()

	done := make(chan struct{})
	ts.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timer scheduled after CancelAll never fired")
	}
	waitFor(t, time.Second, "fired timer removal", func() bool {
		return ts.Pending() == 0
	})
}

func TestRandDelay_Bounds(t *testing.T) {
	lo, hi := 10*time.Millisecond, 20*time.Millisecond
	for i := 0; i < 100; i++ {
		if d := RandDelay(lo, hi); d < lo || d > hi {
			t.Fatalf("RandDelay out of range: %v", d)
		}
	}
	if d := RandDelay(lo, lo); d != lo {
		t.Errorf("Expected degenerate range to return its floor, got %v", d)
	}
	if d := RandDelay(-time.Second, -time.Second); d != 0 {
		t.Errorf("Expected negative range to clamp to zero, got %v", d)
	}
}
