package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	refreshes         atomic.Uint64
	upstreamErrors    atomic.Uint64
	cyclesStarted     atomic.Uint64
	cyclesCoalesced   atomic.Uint64
	itemsCompared     atomic.Uint64
	itemsTriggered    atomic.Uint64
	notificationsSent atomic.Uint64
	purchaseRuns      atomic.Uint64
	halts             atomic.Uint64

	// Gauges
	cacheSize       atomic.Int64
	activeSurfaces  atomic.Int32
	schedulerHalted atomic.Int32 // 1 = halted
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordRefresh records a completed price book refresh and its size.
func (m *Metrics) RecordRefresh(size int) {
	m.refreshes.Add(1)
	m.cacheSize.Store(int64(size))
}

// RecordUpstreamError records a failed feed fetch.
func (m *Metrics) RecordUpstreamError() {
	m.upstreamErrors.Add(1)
}

// RecordCycle records a started scan cycle.
func (m *Metrics) RecordCycle() {
	m.cyclesStarted.Add(1)
}

// RecordCoalescedCycle records a trigger that collapsed into an already
// queued follow-up cycle.
func (m *Metrics) RecordCoalescedCycle() {
	m.cyclesCoalesced.Add(1)
}

// RecordComparisons adds to the compared-items counter.
func (m *Metrics) RecordComparisons(n int) {
	m.itemsCompared.Add(uint64(n))
}

// RecordTriggered adds to the threshold-exceeded counter.
func (m *Metrics) RecordTriggered(n int) {
	m.itemsTriggered.Add(uint64(n))
}

// RecordNotification records a dispatched notification.
func (m *Metrics) RecordNotification() {
	m.notificationsSent.Add(1)
}

// RecordPurchaseRun records a started purchase sequence.
func (m *Metrics) RecordPurchaseRun() {
	m.purchaseRuns.Add(1)
}

// RecordHalt records a scheduler self-halt.
func (m *Metrics) RecordHalt() {
	m.halts.Add(1)
	m.schedulerHalted.Store(1)
}

// SetHalted sets the halted gauge (cleared on re-enable).
func (m *Metrics) SetHalted(halted bool) {
	if halted {
		m.schedulerHalted.Store(1)
	} else {
		m.schedulerHalted.Store(0)
	}
}

// IncrementSurfaces increments the connected surface gauge.
func (m *Metrics) IncrementSurfaces() {
	m.activeSurfaces.Add(1)
}

// DecrementSurfaces decrements the connected surface gauge.
func (m *Metrics) DecrementSurfaces() {
	m.activeSurfaces.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Refreshes         uint64    `json:"refreshes"`
	UpstreamErrors    uint64    `json:"upstream_errors"`
	CyclesStarted     uint64    `json:"cycles_started"`
	CyclesCoalesced   uint64    `json:"cycles_coalesced"`
	ItemsCompared     uint64    `json:"items_compared"`
	ItemsTriggered    uint64    `json:"items_triggered"`
	NotificationsSent uint64    `json:"notifications_sent"`
	PurchaseRuns      uint64    `json:"purchase_runs"`
	Halts             uint64    `json:"halts"`
	CacheSize         int64     `json:"cache_size"`
	ActiveSurfaces    int32     `json:"active_surfaces"`
	SchedulerHalted   bool      `json:"scheduler_halted"`
	Timestamp         time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Refreshes:         m.refreshes.Load(),
		UpstreamErrors:    m.upstreamErrors.Load(),
		CyclesStarted:     m.cyclesStarted.Load(),
		CyclesCoalesced:   m.cyclesCoalesced.Load(),
		ItemsCompared:     m.itemsCompared.Load(),
		ItemsTriggered:    m.itemsTriggered.Load(),
		NotificationsSent: m.notificationsSent.Load(),
		PurchaseRuns:      m.purchaseRuns.Load(),
		Halts:             m.halts.Load(),
		CacheSize:         m.cacheSize.Load(),
		ActiveSurfaces:    m.activeSurfaces.Load(),
		SchedulerHalted:   m.schedulerHalted.Load() == 1,
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.refreshes.Store(0)
	m.upstreamErrors.Store(0)
	m.cyclesStarted.Store(0)
	m.cyclesCoalesced.Store(0)
	m.itemsCompared.Store(0)
	m.itemsTriggered.Store(0)
	m.notificationsSent.Store(0)
	m.purchaseRuns.Store(0)
	m.halts.Store(0)
	m.cacheSize.Store(0)
	m.activeSurfaces.Store(0)
	m.schedulerHalted.Store(0)
}
