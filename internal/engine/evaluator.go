package engine

import (
	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/strategy"
)

// Evaluate derives a decision for one candidate: estimated sale price under
// the configured pricing strategy, fee-adjusted cost and proceeds, ROI and
// tier. It returns nil when the candidate's own price is not positive or no
// usable market base price can be derived, which the surfaces render as
// "no market data".
func Evaluate(sourcePrice decimal.Decimal, rec domain.MarketRecord, s *domain.EngineSettings) *domain.DecisionRecord {
	// Candidates come from an external surface; a zero price must never reach
	// the division below.
	if !sourcePrice.IsPositive() || !rec.HasData() {
		return nil
	}

	est, src := strategy.ForMode(s.PriceMode).Estimate(rec, s)
	if !est.IsPositive() {
		return nil
	}

	one := decimal.NewFromInt(1)
	costIn := sourcePrice.Mul(one.Add(s.BuyFee))
	proceedsOut := est.Mul(one.Sub(s.SellFee)).Mul(one.Sub(s.WithdrawFee))
	delta := proceedsOut.Sub(costIn)
	roi := delta.Div(costIn)

	return &domain.DecisionRecord{
		OK:          roi.GreaterThanOrEqual(s.ROIMin),
		ROI:         roi,
		Delta:       delta,
		MarketBase:  est,
		CostIn:      costIn,
		ProceedsOut: proceedsOut,
		PriceSource: src,
		Tier:        Classify(roi, src, s),
	}
}

// Classify maps an ROI ratio to a color tier. Under the buy-order strategy the
// yellow band takes precedence; otherwise the highest matching cutoff wins,
// with green as the floor for any non-negative ROI.
func Classify(roi decimal.Decimal, src domain.PriceSource, s *domain.EngineSettings) domain.Tier {
	if src == domain.SourceBuyOrder {
		if roi.GreaterThanOrEqual(s.YellowFrom) && roi.LessThanOrEqual(s.YellowTo) {
			return domain.TierYellow
		}
		if roi.GreaterThanOrEqual(s.ROIMin) {
			return domain.TierGreen
		}
		return domain.TierRed
	}

	if roi.IsNegative() {
		return domain.TierRed
	}
	switch {
	case roi.GreaterThanOrEqual(s.BlueMin):
		return domain.TierBlue
	case roi.GreaterThanOrEqual(s.PurpleMin):
		return domain.TierPurple
	default:
		return domain.TierGreen
	}
}
