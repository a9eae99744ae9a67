package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// PricingStrategy derives an estimated realizable sale price from a reconciled
// market record. Implementations are stateless; they are called synchronously
// by the evaluator with one settings snapshot per batch.
type PricingStrategy interface {
	// Estimate returns the estimated sale price and the source tag recorded on
	// the decision. A zero estimate means no usable base price.
	Estimate(rec domain.MarketRecord, s *domain.EngineSettings) (decimal.Decimal, domain.PriceSource)
}

// ForMode returns the strategy for a price mode. Unknown modes fall back to
// best offer, mirroring the settings loader.
func ForMode(mode domain.PriceSource) PricingStrategy {
	switch mode {
	case domain.SourceBuyOrder:
		return BuyOrder{}
	case domain.SourceSmart:
		return Smart{}
	default:
		return BestOffer{}
	}
}
