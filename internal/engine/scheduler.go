package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

// Phase is the scheduler's lifecycle state. Transitions happen only on the
// scheduler's own goroutine, which rules out illegal combinations like a
// queued follow-up while disabled.
type Phase int32

const (
	PhaseDisabled Phase = iota // auto-scan off
	PhaseWaiting               // enabled, next cycle timer pending
	PhaseRunning               // a cycle is in flight
	PhaseQueued                // in flight with exactly one follow-up queued
	PhaseHalted                // self-halted after a trigger, waiting for re-enable
)

func (p Phase) String() string {
	switch p {
	case PhaseDisabled:
		return "disabled"
	case PhaseWaiting:
		return "waiting"
	case PhaseRunning:
		return "running"
	case PhaseQueued:
		return "queued"
	case PhaseHalted:
		return "halted"
	}
	return "unknown"
}

// toggleDebounce absorbs key-repeat from the toggle hotkey.
const toggleDebounce = 600 * time.Millisecond

// cartStagger is the base delay between per-card cart sequences and between
// the steps inside one sequence.
const (
	cartStagger   = 120 * time.Millisecond
	cartStepDelay = 150 * time.Millisecond

	// settle delays inside one cycle, between the first scan pass, the
	// refresh-results trigger, and the rescan pass
	preRefreshSettle  = 60 * time.Millisecond
	postRefreshSettle = 120 * time.Millisecond
)

type command interface{ isCommand() }

type cmdTick struct{}
type cmdCycleDone struct{ halted bool }
type cmdToggle struct{}
type cmdHalt struct{ done chan struct{} }
type cmdForceRefresh struct{}
type cmdApplySettings struct{ prev, next *domain.EngineSettings }

func (cmdTick) isCommand()          {}
func (cmdCycleDone) isCommand()     {}
func (cmdToggle) isCommand()        {}
func (cmdHalt) isCommand()          {}
func (cmdForceRefresh) isCommand()  {}
func (cmdApplySettings) isCommand() {}

// ForceRefresher force-refreshes the price book, bypassing the TTL.
type ForceRefresher interface {
	Refresh(ctx context.Context, force bool) (*domain.PriceBook, error)
}

// SchedulerDeps are the collaborators a Scheduler drives.
type SchedulerDeps struct {
	Comparator *Comparator
	Surface    domain.Surface
	Purchaser  *Purchaser
	Notifier   domain.Notifier
	Icons      domain.IconProvider
	Prices     ForceRefresher

	// Settings returns the current snapshot.
	Settings func() *domain.EngineSettings
	// UpdateSettings persists a partial raw update (used by the toggle).
	// Optional.
	UpdateSettings func(partial map[string]string) error
}

// Scheduler is the autonomous scan loop. All state transitions are processed
// sequentially on one goroutine fed by an inbox channel; cycles execute on
// their own goroutine and report back through the same inbox, which is what
// makes single-flight and queue-depth-one trivial to enforce.
type Scheduler struct {
	deps   SchedulerDeps
	inbox  chan command
	timers *TimerSet

	phase       atomic.Int32
	lastToggle  time.Time
	passiveBusy atomic.Bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	return &Scheduler{
		deps:   deps,
		inbox:  make(chan command, 16),
		timers: NewTimerSet(),
	}
}

// Phase returns the current lifecycle phase.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// RequestCycle asks for a scan cycle. While one is in flight this queues at
// most one follow-up; extra requests coalesce. While auto-scan is off or
// halted it runs a passive compare-and-render pass instead.
func (s *Scheduler) RequestCycle() {
	s.post(cmdTick{})
}

// Toggle flips auto-scan on or off, debounced against key repeat.
func (s *Scheduler) Toggle() {
	s.post(cmdToggle{})
}

// ForceRefresh refreshes the price book past the TTL and broadcasts a
// recompare to every connected surface.
func (s *Scheduler) ForceRefresh() {
	s.post(cmdForceRefresh{})
}

// ApplySettings reacts to a settings change (enable/disable transitions,
// interval changes). Wire it to the settings service's change callback.
func (s *Scheduler) ApplySettings(prev, next *domain.EngineSettings) {
	s.post(cmdApplySettings{prev: prev, next: next})
}

func (s *Scheduler) post(cmd command) {
	select {
	case s.inbox <- cmd:
	default:
		slog.Warn("scheduler inbox full, dropping command")
	}
}

// Run processes commands until ctx is cancelled. Call it on its own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.deps.Settings().AutoEnabled {
		s.setPhase(PhaseWaiting)
		s.scheduleTick(0)
	} else {
		s.setPhase(PhaseDisabled)
	}

	for {
		select {
		case <-ctx.Done():
			s.timers.CancelAll()
			return ctx.Err()
		case cmd := <-s.inbox:
			s.handle(ctx, cmd)
		}
	}
}

func (s *Scheduler) handle(ctx context.Context, cmd command) {
	switch c := cmd.(type) {
	case cmdTick:
		s.handleTick(ctx)
	case cmdCycleDone:
		s.handleCycleDone(ctx, c.halted)
	case cmdToggle:
		s.handleToggle(ctx)
	case cmdHalt:
		s.handleHalt(ctx)
		close(c.done)
	case cmdForceRefresh:
		s.handleForceRefresh(ctx)
	case cmdApplySettings:
		s.handleApplySettings(c.prev, c.next)
	}
}

func (s *Scheduler) handleTick(ctx context.Context) {
	switch s.Phase() {
	case PhaseDisabled, PhaseHalted:
		// Browsing with auto off still gets decisions, just never actions
		go s.passiveScan(ctx)
	case PhaseRunning:
		s.setPhase(PhaseQueued)
	case PhaseQueued:
		infra.GlobalMetrics.RecordCoalescedCycle()
	case PhaseWaiting:
		s.setPhase(PhaseRunning)
		go s.runCycle(ctx)
	}
}

func (s *Scheduler) handleCycleDone(ctx context.Context, halted bool) {
	if halted || s.Phase() == PhaseHalted {
		return
	}

	queued := s.Phase() == PhaseQueued
	if !s.deps.Settings().AutoEnabled {
		s.setPhase(PhaseDisabled)
		return
	}

	if queued {
		s.setPhase(PhaseRunning)
		go s.runCycle(ctx)
		return
	}

	s.setPhase(PhaseWaiting)
	s.scheduleTick(s.deps.Settings().AutoInterval + s.jitter())
}

func (s *Scheduler) handleToggle(ctx context.Context) {
	now := time.Now()
	if now.Sub(s.lastToggle) < toggleDebounce {
		return
	}
	s.lastToggle = now

	running := s.deps.Settings().AutoEnabled &&
		s.Phase() != PhaseHalted && s.Phase() != PhaseDisabled
	if running {
		s.timers.CancelAll()
		s.setPhase(PhaseDisabled)
		infra.GlobalMetrics.SetHalted(false)
		s.persistEnabled(false)
		slog.Info("auto-scan disabled")
		return
	}

	// Off or halted: re-enabling starts a fresh cycle, nothing queued or
	// previously triggered replays.
	infra.GlobalMetrics.SetHalted(false)
	s.setPhase(PhaseWaiting)
	s.scheduleTick(0)
	s.persistEnabled(true)
	slog.Info("auto-scan enabled")
}

func (s *Scheduler) persistEnabled(enabled bool) {
	if s.deps.UpdateSettings == nil {
		return
	}
	value := "false"
	if enabled {
		value = "true"
	}
	if err := s.deps.UpdateSettings(map[string]string{domain.KeyAutoEnabled: value}); err != nil {
		slog.Error("failed to persist auto-scan flag", slog.Any("error", err))
	}
}

// handleHalt stops all autonomous activity. Idempotent; the focus signal and
// notification fire only on the first halt. Timers scheduled after this point
// survive, which is what lets a halting cycle still dispatch its staggered
// actions.
func (s *Scheduler) handleHalt(ctx context.Context) {
	if s.Phase() == PhaseHalted {
		return
	}
	s.setPhase(PhaseHalted)
	s.timers.CancelAll()
	infra.GlobalMetrics.RecordHalt()

	slog.Info("auto-scan halted on trigger")
	s.deps.Surface.Focus(ctx)
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(ctx, domain.Notification{
			Title:   "Auto-scan halted",
			Message: "A triggered item stopped the autonomous loop; re-enable to continue scanning.",
		})
	}
}

func (s *Scheduler) handleForceRefresh(ctx context.Context) {
	go func() {
		book, err := s.deps.Prices.Refresh(ctx, true)
		if err != nil {
			slog.Warn("forced price refresh failed", slog.Any("error", err))
			return
		}
		s.deps.Surface.RecompareAll(book.FetchedAt)
		// Re-render against the new book unless a cycle is about to do it
		if p := s.Phase(); p != PhaseRunning && p != PhaseQueued {
			s.passiveScan(ctx)
		}
	}()
}

// passiveScan is one compare-and-render pass outside the autonomous loop: the
// candidate ask is unbounded and every decision is only rendered; nothing is
// triggered and the scheduler never halts. It serves browsing while auto-scan
// is off and re-renders after a forced price refresh.
func (s *Scheduler) passiveScan(ctx context.Context) {
	if !s.passiveBusy.CompareAndSwap(false, true) {
		return
	}
	defer s.passiveBusy.Store(false)

	items, err := s.deps.Surface.ListCandidates(ctx, 0)
	if err != nil {
		slog.Warn("candidate listing failed", slog.Any("error", err))
		return
	}
	if len(items) == 0 {
		return
	}

	decisions, meta, err := s.deps.Comparator.CompareBatch(ctx, items)
	if err != nil || meta.CacheSize == 0 {
		for _, item := range items {
			s.deps.Surface.RenderDecision(ctx, item.CardID, nil, true)
		}
		return
	}
	infra.GlobalMetrics.RecordComparisons(len(items))
	for _, item := range items {
		s.deps.Surface.RenderDecision(ctx, item.CardID, decisions[item.CardID], false)
	}
}

func (s *Scheduler) handleApplySettings(prev, next *domain.EngineSettings) {
	if next.AutoEnabled && s.Phase() == PhaseDisabled {
		infra.GlobalMetrics.SetHalted(false)
		s.setPhase(PhaseWaiting)
		s.scheduleTick(0)
		return
	}
	if !next.AutoEnabled && s.Phase() != PhaseDisabled && s.Phase() != PhaseHalted {
		s.timers.CancelAll()
		s.setPhase(PhaseDisabled)
		return
	}
	if prev != nil && next.AutoInterval != prev.AutoInterval && s.Phase() == PhaseWaiting {
		s.timers.CancelAll()
		s.scheduleTick(next.AutoInterval + s.jitter())
	}
}

func (s *Scheduler) scheduleTick(d time.Duration) {
	s.timers.AfterFunc(d, func() {
		s.post(cmdTick{})
	})
}

func (s *Scheduler) jitter() time.Duration {
	set := s.deps.Settings()
	return randDuration(set.AutoRandomMin, set.AutoRandomMax)
}

// runCycle executes one scan cycle off the loop goroutine: scan, settle,
// trigger the surface's own result refresh, settle, rescan. The result is
// reported back through the inbox.
func (s *Scheduler) runCycle(ctx context.Context) {
	infra.GlobalMetrics.RecordCycle()

	halted := s.scanPass(ctx)
	if !halted && sleepFor(ctx, preRefreshSettle+s.jitter()) {
		s.deps.Surface.Trigger(ctx, domain.ActionRefreshResults)
		if sleepFor(ctx, postRefreshSettle+s.jitter()) {
			halted = s.scanPass(ctx)
		}
	}

	select {
	case s.inbox <- cmdCycleDone{halted: halted}:
	case <-ctx.Done():
	}
}

// scanPass collects candidates, evaluates them, renders every decision, and
// routes the ones past the action threshold. Returns true when the pass
// halted the scheduler.
func (s *Scheduler) scanPass(ctx context.Context) bool {
	set := s.deps.Settings()

	items, err := s.deps.Surface.ListCandidates(ctx, set.AutoScanLimit)
	if err != nil {
		slog.Warn("candidate listing failed", slog.Any("error", err))
		return false
	}
	if len(items) == 0 {
		return false
	}

	decisions, meta, err := s.deps.Comparator.CompareBatch(ctx, items)
	if err != nil || meta.CacheSize == 0 {
		// No usable book: every card gets an explicit error marker
		for _, item := range items {
			s.deps.Surface.RenderDecision(ctx, item.CardID, nil, true)
		}
		return false
	}
	infra.GlobalMetrics.RecordComparisons(len(items))

	var triggered, buys []TriggerEntry
	for _, item := range items {
		d := decisions[item.CardID]
		s.deps.Surface.RenderDecision(ctx, item.CardID, d, false)
		if d == nil {
			continue
		}

		roiPct := d.ROIPct()
		if roiPct.LessThan(set.AutoROIThresholdPct) {
			continue
		}
		entry := TriggerEntry{Item: item, Decision: d}
		triggered = append(triggered, entry)
		if set.AutoActionsEnabled && set.AutoBuyEnabled &&
			roiPct.GreaterThanOrEqual(set.AutoBuyROIThresholdPct) {
			buys = append(buys, entry)
		}
	}

	if len(triggered) == 0 {
		return false
	}
	infra.GlobalMetrics.RecordTriggered(len(triggered))

	if !set.AutoActionsEnabled {
		s.dispatchNotifies(ctx, triggered)
		return false
	}

	// Halt before dispatching anything so no further periodic cycle can start
	// while actions are in flight.
	s.haltFromCycle(ctx)

	if set.AutoMode != domain.AutoModeActive {
		s.dispatchNotifies(ctx, triggered)
		return true
	}

	if len(buys) > 0 && s.deps.Purchaser != nil {
		s.deps.Purchaser.Purchase(ctx, buys)
	}

	buyIDs := make(map[string]bool, len(buys))
	for _, e := range buys {
		buyIDs[e.Item.CardID] = true
	}

	delay := s.jitter()
	for _, e := range triggered {
		if buyIDs[e.Item.CardID] {
			continue
		}
		entry := e
		s.timers.AfterFunc(delay, func() {
			s.cartSequence(ctx, entry)
		})
		delay += cartStagger + s.jitter()
	}
	return true
}

// haltFromCycle posts a halt and waits for the loop to process it, so every
// timer scheduled afterwards survives the halt's CancelAll.
func (s *Scheduler) haltFromCycle(ctx context.Context) {
	done := make(chan struct{})
	select {
	case s.inbox <- cmdHalt{done: done}:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// cartSequence walks one non-purchase triggered card through the cart: add,
// open, checkout.
func (s *Scheduler) cartSequence(ctx context.Context, e TriggerEntry) {
	if !s.deps.Surface.TriggerCard(ctx, e.Item.CardID, domain.ActionAddToCart) {
		slog.Warn("add-to-cart affordance not found", slog.String("card", e.Item.CardID))
	}
	s.timers.AfterFunc(cartStepDelay+s.jitter(), func() {
		s.deps.Surface.Trigger(ctx, domain.ActionOpenCart)
		s.timers.AfterFunc(cartStepDelay+s.jitter(), func() {
			s.deps.Surface.Trigger(ctx, domain.ActionOpenCheckout)
		})
	})
}

// dispatchNotifies staggers one notification per triggered entry.
func (s *Scheduler) dispatchNotifies(ctx context.Context, entries []TriggerEntry) {
	if s.deps.Notifier == nil {
		return
	}
	delay := s.jitter()
	for _, e := range entries {
		entry := e
		s.timers.AfterFunc(delay, func() {
			s.notifyEntry(ctx, entry)
		})
		delay += cartStagger + s.jitter()
	}
}

func (s *Scheduler) notifyEntry(ctx context.Context, e TriggerEntry) {
	iconPath := ""
	if s.deps.Icons != nil {
		iconPath = s.deps.Icons.Resolve(ctx, e.Item.HashName)
	}
	s.deps.Notifier.Notify(ctx, domain.Notification{
		Title: "Profitable item found",
		Message: e.Item.HashName +
			"\nSource: " + e.Item.SourcePrice.StringFixed(2) +
			" · Market: " + e.Decision.MarketBase.StringFixed(2) +
			"\nROI ≈ " + e.Decision.ROIPct().StringFixed(1) + "%",
		IconPath: iconPath,
	})
}
