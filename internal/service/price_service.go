package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

// PriceService owns the reconciled price book. It fetches the two upstream
// listings, folds them into one record per normalized name, and caches the
// result under a time-to-live. Refresh holds the lock for the whole fetch, so
// concurrent callers serialize and the second one gets the book the first one
// built.
type PriceService struct {
	feed     domain.MarketFeed
	settings func() *domain.EngineSettings
	currency string
	now      func() time.Time

	mu   sync.Mutex
	book *domain.PriceBook
}

// NewPriceService creates a PriceService. settings supplies the current
// snapshot, used for the cache TTL.
func NewPriceService(feed domain.MarketFeed, settings func() *domain.EngineSettings, currency string) *PriceService {
	return &PriceService{
		feed:     feed,
		settings: settings,
		currency: currency,
		now:      time.Now,
	}
}

// Refresh returns the current price book, fetching upstream only when the
// cached book is stale, empty, or force is set. A feed that fails contributes
// an empty map; only when both feeds fail is the previous book kept and an
// error returned alongside it.
func (p *PriceService) Refresh(ctx context.Context, force bool) (*domain.PriceBook, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ttl := p.settings().PriceTTL
	if !force && p.book.Fresh(ttl, p.now()) {
		return p.book, nil
	}

	offers, bids, fetchErr := p.fetchBoth(ctx)
	if fetchErr != nil {
		if p.book != nil {
			return p.book, fetchErr
		}
		return nil, domain.ErrBookUnavailable
	}

	records := reconcile(offers, bids)
	book := &domain.PriceBook{
		FetchedAt: p.now(),
		Currency:  p.currency,
		Records:   records,
	}
	p.book = book

	infra.GlobalMetrics.RecordRefresh(book.Size())
	slog.Info("price book refreshed",
		slog.Int("items", book.Size()),
		slog.Bool("forced", force))
	return book, nil
}

// fetchBoth runs the two feed fetches concurrently. The returned error is
// non-nil only when both failed.
func (p *PriceService) fetchBoth(ctx context.Context) (offers, bids map[string]decimal.Decimal, err error) {
	var wg sync.WaitGroup
	var offersErr, bidsErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		offers, offersErr = p.feed.BestOffers(ctx)
	}()
	go func() {
		defer wg.Done()
		bids, bidsErr = p.feed.BuyOrders(ctx)
	}()
	wg.Wait()

	if offersErr != nil {
		infra.GlobalMetrics.RecordUpstreamError()
		slog.Warn("best-offer feed failed, contributing empty map", slog.Any("error", offersErr))
		offers = nil
	}
	if bidsErr != nil {
		infra.GlobalMetrics.RecordUpstreamError()
		slog.Warn("buy-order feed failed, contributing empty map", slog.Any("error", bidsErr))
		bids = nil
	}
	if offersErr != nil && bidsErr != nil {
		return nil, nil, offersErr
	}
	return offers, bids, nil
}

// reconcile unions both feeds into one record per normalized name. Raw names
// that collapse to the same normalized key fold with the same rule as the
// feed itself: minimum positive ask, maximum positive bid. A side missing for
// a name stays zero, meaning "no data".
func reconcile(offers, bids map[string]decimal.Decimal) map[string]domain.MarketRecord {
	out := make(map[string]domain.MarketRecord, len(offers)+len(bids))

	for raw, price := range offers {
		name := domain.Normalize(raw)
		if name == "" || !price.IsPositive() {
			continue
		}
		rec := out[name]
		if rec.BestOffer.IsZero() || price.LessThan(rec.BestOffer) {
			rec.BestOffer = price
		}
		out[name] = rec
	}

	for raw, value := range bids {
		name := domain.Normalize(raw)
		if name == "" || !value.IsPositive() {
			continue
		}
		rec := out[name]
		if value.GreaterThan(rec.BuyOrder) {
			rec.BuyOrder = value
		}
		out[name] = rec
	}

	return out
}

// Snapshot returns the current book without refreshing. May be nil before the
// first successful refresh.
func (p *PriceService) Snapshot() *domain.PriceBook {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book
}

// Start runs the background forced refresh until ctx is cancelled. This keeps
// the book warm even when no cycle is running so a newly enabled scan starts
// against recent data.
func (p *PriceService) Start(ctx context.Context, interval time.Duration) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("price refresh loop panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("background price refresh stopped")
				return
			case <-ticker.C:
				if _, err := p.Refresh(ctx, true); err != nil {
					if domain.IsRetriable(err) {
						slog.Warn("background price refresh failed, retrying next tick", slog.Any("error", err))
					} else {
						slog.Error("background price refresh failed", slog.Any("error", err))
					}
				}
			}
		}
	}()
}
