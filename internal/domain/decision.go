package domain

import "github.com/shopspring/decimal"

// PriceSource identifies the pricing strategy that produced the estimated sale
// price of a decision.
type PriceSource string

const (
	SourceBestOffer PriceSource = "best_offer"
	SourceBuyOrder  PriceSource = "buy_order"
	SourceSmart     PriceSource = "smart"
)

// Tier is the coarse color classification of an ROI outcome, used by scan
// surfaces for at-a-glance ranking.
type Tier string

const (
	TierRed    Tier = "red"
	TierYellow Tier = "yellow"
	TierGreen  Tier = "green"
	TierPurple Tier = "purple"
	TierBlue   Tier = "blue"
)

// Color returns the hex color a surface renders for the tier.
func (t Tier) Color() string {
	switch t {
	case TierRed:
		return "#ef4444"
	case TierYellow:
		return "#f59e0b"
	case TierPurple:
		return "#a855f7"
	case TierBlue:
		return "#3b82f6"
	default:
		return "#22c55e"
	}
}

// DecisionRecord is the immutable outcome of evaluating one candidate against
// the reconciled market record. A nil record means no usable market base price
// could be derived (distinct from a comparison failure).
type DecisionRecord struct {
	OK          bool            `json:"ok"` // ROI >= configured minimum
	ROI         decimal.Decimal `json:"roi"`
	Delta       decimal.Decimal `json:"delta"`
	MarketBase  decimal.Decimal `json:"market_base"`
	CostIn      decimal.Decimal `json:"cost_in"`
	ProceedsOut decimal.Decimal `json:"proceeds_out"`
	PriceSource PriceSource     `json:"price_source"`
	Tier        Tier            `json:"tier"`
}

// ROIPct returns the ROI expressed in percent.
func (d *DecisionRecord) ROIPct() decimal.Decimal {
	return d.ROI.Mul(decimal.NewFromInt(100))
}
