package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketRecord holds the reconciled reference-market view of a single item.
// A zero side means "no data", never "a market price of zero".
type MarketRecord struct {
	BestOffer decimal.Decimal `json:"best_offer"` // lowest ask seen on the reference market
	BuyOrder  decimal.Decimal `json:"buy_order"`  // highest committed bid
}

// HasData reports whether at least one side carries a usable price.
func (r MarketRecord) HasData() bool {
	return r.BestOffer.IsPositive() || r.BuyOrder.IsPositive()
}

// PriceBook is an immutable snapshot of reconciled market prices keyed by
// normalized name. The reconciler replaces the whole book on refresh; readers
// must never mutate it, which makes sharing a snapshot across suspension
// points safe.
type PriceBook struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Currency  string                  `json:"currency"`
	Records   map[string]MarketRecord `json:"records"`
}

// Fresh reports whether the book is still within its time-to-live at the given
// instant. An empty book is never fresh.
func (b *PriceBook) Fresh(ttl time.Duration, now time.Time) bool {
	if b == nil || len(b.Records) == 0 {
		return false
	}
	return now.Sub(b.FetchedAt) < ttl
}

// Lookup returns the record for a normalized name.
func (b *PriceBook) Lookup(name string) (MarketRecord, bool) {
	if b == nil {
		return MarketRecord{}, false
	}
	rec, ok := b.Records[name]
	return rec, ok
}

// Size returns the number of reconciled records.
func (b *PriceBook) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}
