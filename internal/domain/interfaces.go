package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MarketFeed fetches the two upstream reference-market listings. Each call is
// independently fallible; the reconciler treats a failure as an empty
// contribution for that feed.
type MarketFeed interface {
	// BestOffers returns the lowest-ask listing keyed by raw display name.
	BestOffers(ctx context.Context) (map[string]decimal.Decimal, error)
	// BuyOrders returns the highest-bid listing keyed by raw display name.
	BuyOrders(ctx context.Context) (map[string]decimal.Decimal, error)
}

// SettingsStore persists raw (underived) settings values and notifies watchers
// when keys change.
type SettingsStore interface {
	Load() (map[string]string, error)
	Save(partial map[string]string) error
	// Watch returns a channel that receives the set of changed keys after each
	// successful Save.
	Watch() <-chan []string
}

// Surface is the scrape collaborator: an externally connected scan surface
// that owns DOM discovery and UI interaction. The core consumes it as an
// opaque capability.
type Surface interface {
	// ListCandidates returns up to limit not-yet-seen candidate items.
	// limit <= 0 means unbounded.
	ListCandidates(ctx context.Context, limit int) ([]CandidateItem, error)
	// RenderDecision displays a decision on the surface. A nil record with
	// failed=false renders "no market data"; failed=true renders an explicit
	// error marker.
	RenderDecision(ctx context.Context, cardID string, d *DecisionRecord, failed bool)
	// TriggerCard fires a named UI action on a specific card (e.g.
	// "add_to_cart") and reports whether the affordance was found.
	TriggerCard(ctx context.Context, cardID, action string) bool
	// Trigger fires a named page-level UI action (e.g. "refresh_results",
	// "open_cart", "confirm_purchase") and reports whether it was found.
	Trigger(ctx context.Context, action string) bool
	// RecompareAll tells every connected surface to re-evaluate against the
	// cache refreshed at ts.
	RecompareAll(ts time.Time)
	// Focus raises the surface's window/tab.
	Focus(ctx context.Context)
}

// Notification is an outbound alert. IconPath is optional and best-effort.
type Notification struct {
	Title    string
	Message  string
	IconPath string
}

// Notifier delivers notifications. Failures are logged and swallowed by
// callers; notification delivery is never load-bearing.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// IconProvider resolves a local icon path for an item, or "" when none is
// available. Implementations are best-effort caches.
type IconProvider interface {
	Resolve(ctx context.Context, hashName string) string
}
