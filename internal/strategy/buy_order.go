package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// BuyOrder prices against the highest committed bid, verbatim. Selling into a
// buy order is immediate, so no adjustment is applied.
type BuyOrder struct{}

func (BuyOrder) Estimate(rec domain.MarketRecord, _ *domain.EngineSettings) (decimal.Decimal, domain.PriceSource) {
	return rec.BuyOrder, domain.SourceBuyOrder
}
