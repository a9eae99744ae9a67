package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// BestOffer prices against the lowest current ask, verbatim.
type BestOffer struct{}

func (BestOffer) Estimate(rec domain.MarketRecord, _ *domain.EngineSettings) (decimal.Decimal, domain.PriceSource) {
	return rec.BestOffer, domain.SourceBestOffer
}
