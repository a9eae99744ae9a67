package engine

import (
	"math/rand"
	"sync"
	"time"
)

// TimerSet tracks every outstanding scheduled action so a halt can cancel all
// of them atomically. Timers scheduled after a CancelAll are unaffected by it.
type TimerSet struct {
	mu     sync.Mutex
	nextID uint64
	gen    uint64
	timers map[uint64]*time.Timer
}

// NewTimerSet creates an empty timer set.
func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[uint64]*time.Timer)}
}

// AfterFunc schedules fn to run after d. The timer is tracked until it fires
// or the set is cancelled.
func (ts *TimerSet) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	ts.mu.Lock()
	id := ts.nextID
	ts.nextID++
	gen := ts.gen
	ts.timers[id] = time.AfterFunc(d, func() {
		ts.mu.Lock()
		delete(ts.timers, id)
		stale := gen != ts.gen
		ts.mu.Unlock()
		if stale {
			// cancelled between firing and acquiring the lock
			return
		}
		fn()
	})
	ts.mu.Unlock()
}

// CancelAll stops every tracked timer. Callbacks already past the point of no
// return observe the generation bump and become no-ops.
func (ts *TimerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.gen++
	for id, tm := range ts.timers {
		tm.Stop()
		delete(ts.timers, id)
	}
}

// Pending returns the number of outstanding timers.
func (ts *TimerSet) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.timers)
}

// RandDelay draws a uniformly distributed delay from [min, max]. The
// randomization breaks up fixed-interval action patterns.
func RandDelay(min, max time.Duration) time.Duration {
	return randDuration(min, max)
}

func randDuration(min, max time.Duration) time.Duration {
	if min < 0 {
		min = 0
	}
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min+1)))
}
