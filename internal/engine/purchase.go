package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

// TriggerEntry pairs a candidate with the decision that triggered it.
type TriggerEntry struct {
	Item     domain.CandidateItem
	Decision *domain.DecisionRecord
}

// PurchaseTuning bounds the purchase sequence. Zero values take the defaults
// below.
type PurchaseTuning struct {
	Attempts     int           // confirm-surface polling attempts
	AttemptDelay time.Duration // base delay between attempts
	Stagger      time.Duration // base delay between queued items
	PreConfirm   time.Duration // settle delay before polling for confirm
	CoolDown     time.Duration // hold on the in-flight flag after the outcome
}

func (t PurchaseTuning) withDefaults() PurchaseTuning {
	if t.Attempts <= 0 {
		t.Attempts = 30
	}
	if t.AttemptDelay <= 0 {
		t.AttemptDelay = 150 * time.Millisecond
	}
	if t.Stagger <= 0 {
		t.Stagger = 120 * time.Millisecond
	}
	if t.PreConfirm <= 0 {
		t.PreConfirm = 250 * time.Millisecond
	}
	if t.CoolDown <= 0 {
		t.CoolDown = 4 * time.Second
	}
	return t
}

// Purchaser runs the supervised multi-step purchase sequence: queue each
// unique item, open the checkout surface, confirm. At most one sequence is in
// flight; a second call while one is active is a no-op. A running sequence is
// never cancelled by a scheduler halt since partially issued UI actions cannot
// be rolled back.
type Purchaser struct {
	surface  domain.Surface
	notifier domain.Notifier
	jitter   func() time.Duration
	tuning   PurchaseTuning

	inFlight atomic.Bool
}

// NewPurchaser creates a Purchaser. jitter supplies the randomized component
// added to every delay.
func NewPurchaser(surface domain.Surface, notifier domain.Notifier, jitter func() time.Duration, tuning PurchaseTuning) *Purchaser {
	return &Purchaser{
		surface:  surface,
		notifier: notifier,
		jitter:   jitter,
		tuning:   tuning.withDefaults(),
	}
}

// InFlight reports whether a purchase sequence is currently running.
func (p *Purchaser) InFlight() bool {
	return p.inFlight.Load()
}

// Purchase starts the sequence for the given entries in the background.
// Entries are deduplicated by card id. Returns false when a sequence is
// already in flight or nothing remains after deduplication.
func (p *Purchaser) Purchase(ctx context.Context, entries []TriggerEntry) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		slog.Warn("purchase sequence already in flight, ignoring trigger batch",
			slog.Int("entries", len(entries)))
		return false
	}

	unique := dedupeEntries(entries)
	if len(unique) == 0 {
		p.inFlight.Store(false)
		return false
	}

	infra.GlobalMetrics.RecordPurchaseRun()
	go p.run(ctx, unique)
	return true
}

func dedupeEntries(entries []TriggerEntry) []TriggerEntry {
	seen := make(map[string]bool, len(entries))
	out := make([]TriggerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Item.CardID == "" || seen[e.Item.CardID] {
			continue
		}
		seen[e.Item.CardID] = true
		out = append(out, e)
	}
	return out
}

func (p *Purchaser) run(ctx context.Context, entries []TriggerEntry) {
	defer func() {
		sleepFor(ctx, p.tuning.CoolDown)
		p.inFlight.Store(false)
	}()

	slog.Info("starting purchase sequence", slog.Int("items", len(entries)))

	for _, e := range entries {
		if !p.surface.TriggerCard(ctx, e.Item.CardID, domain.ActionAddToCart) {
			slog.Warn("add-to-cart affordance not found", slog.String("card", e.Item.CardID))
		}
		if !sleepFor(ctx, p.tuning.Stagger+p.jitter()) {
			return
		}
	}

	if !sleepFor(ctx, p.tuning.PreConfirm+p.jitter()) {
		return
	}

	// Attempt-bounded, not wall-clock bounded: slow checkout surfaces are
	// tolerated as long as they eventually show up.
	confirmed := false
	for i := 0; i < p.tuning.Attempts; i++ {
		if p.surface.Trigger(ctx, domain.ActionConfirmPurchase) {
			confirmed = true
			break
		}
		p.surface.Trigger(ctx, domain.ActionOpenCart)
		if !sleepFor(ctx, p.tuning.AttemptDelay+p.jitter()) {
			return
		}
	}

	switch {
	case confirmed:
		slog.Info("purchase confirmed", slog.Int("items", len(entries)))
		p.notify(ctx, "Purchase triggered",
			fmt.Sprintf("Confirmed checkout for %d item(s)", len(entries)))
	case p.surface.Trigger(ctx, domain.ActionOpenCheckout):
		slog.Warn("confirm surface never appeared, fell back to checkout")
		p.notify(ctx, "Purchase incomplete",
			"Reached checkout but the confirm control was not found")
	default:
		slog.Error("purchase sequence failed, no checkout surface found")
		p.notify(ctx, "Purchase failed",
			fmt.Sprintf("Could not reach checkout for %d item(s)", len(entries)))
	}
}

func (p *Purchaser) notify(ctx context.Context, title, message string) {
	if p.notifier == nil {
		return
	}
	p.notifier.Notify(ctx, domain.Notification{Title: title, Message: message})
}

// sleepFor blocks for d or until the context is cancelled. Returns false on
// cancellation.
func sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
