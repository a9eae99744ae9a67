package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// Smart blends both sides of the book. When the spread between best offer and
// best bid is tight, it undercuts the best offer slightly; when the spread is
// wide, it marks up the bid but never prices above the undercut-adjusted best
// offer. With only one side present it applies that side's own adjustment.
type Smart struct{}

func (Smart) Estimate(rec domain.MarketRecord, s *domain.EngineSettings) (decimal.Decimal, domain.PriceSource) {
	one := decimal.NewFromInt(1)
	under := one.Sub(s.UndercutPct)
	markup := one.Add(s.BidMarkupPct)

	best := rec.BestOffer
	bid := rec.BuyOrder

	var est decimal.Decimal
	switch {
	case best.IsPositive() && bid.IsPositive():
		spread := best.Sub(bid).Div(best)
		if spread.LessThanOrEqual(s.TightSpreadPct) {
			est = best.Mul(under)
		} else {
			raised := bid.Mul(markup)
			if raised.LessThan(bid) {
				raised = bid
			}
			ceiling := best.Mul(under)
			if raised.GreaterThan(ceiling) {
				raised = ceiling
			}
			est = raised
		}
	case best.IsPositive():
		est = best.Mul(under)
	case bid.IsPositive():
		est = bid.Mul(markup)
	default:
		est = decimal.Zero
	}

	return est, domain.SourceSmart
}
