package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// BookProvider yields the reconciled price book, refreshing it when stale.
type BookProvider interface {
	Refresh(ctx context.Context, force bool) (*domain.PriceBook, error)
}

// BatchMeta describes the cache snapshot a batch was evaluated against.
type BatchMeta struct {
	CacheAt   time.Time
	CacheSize int
}

// Comparator runs the per-cycle evaluation: normalize each candidate's label,
// look up the reconciled record, evaluate ROI. It holds no mutable state; each
// call reads one settings snapshot and one cache snapshot so every item in a
// batch sees a consistent view.
type Comparator struct {
	prices   BookProvider
	settings func() *domain.EngineSettings
}

// NewComparator creates a Comparator over the given price book provider and
// settings snapshot source.
func NewComparator(prices BookProvider, settings func() *domain.EngineSettings) *Comparator {
	return &Comparator{prices: prices, settings: settings}
}

// CompareBatch evaluates every candidate and returns one decision (possibly
// nil for "no market data") per card id, plus metadata about the snapshot. The
// error is non-nil only when no book at all is available.
func (c *Comparator) CompareBatch(ctx context.Context, items []domain.CandidateItem) (map[string]*domain.DecisionRecord, BatchMeta, error) {
	s := c.settings()

	book, err := c.prices.Refresh(ctx, false)
	if err != nil && book == nil {
		return nil, BatchMeta{}, err
	}
	if err != nil {
		slog.Warn("comparing against stale price book", slog.Any("error", err))
	}

	meta := BatchMeta{CacheAt: book.FetchedAt, CacheSize: book.Size()}
	out := make(map[string]*domain.DecisionRecord, len(items))
	for _, item := range items {
		name := domain.Normalize(item.HashName)
		rec, ok := book.Lookup(name)
		if !ok || name == "" {
			out[item.CardID] = nil
			continue
		}
		out[item.CardID] = Evaluate(item.SourcePrice, rec, s)
	}
	return out, meta, nil
}
