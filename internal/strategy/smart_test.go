package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

func smartSettings() *domain.EngineSettings {
	return domain.BuildSettings(map[string]string{
		domain.KeyPriceMode:      "smart",
		domain.KeyUndercutPct:    "0.005",
		domain.KeyBidMarkupPct:   "0.03",
		domain.KeyTightSpreadPct: "0.04",
	})
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestSmart_TightSpreadUndercutsBest(t *testing.T) {
	s := smartSettings()
	// spread = (1000-980)/1000 = 0.02 <= 0.04
	rec := domain.MarketRecord{BestOffer: dec("1000"), BuyOrder: dec("980")}

	est, src := Smart{}.Estimate(rec, s)
	if src != domain.SourceSmart {
		t.Errorf("expected smart source, got %v", src)
	}
	if !est.Equal(dec("995")) { // 1000 * 0.995
		t.Errorf("expected 995, got %v", est)
	}
}

func TestSmart_WideSpreadMarksUpBid(t *testing.T) {
	s := smartSettings()
	// spread = (1000-500)/1000 = 0.5 > 0.04
	rec := domain.MarketRecord{BestOffer: dec("1000"), BuyOrder: dec("500")}

	est, _ := Smart{}.Estimate(rec, s)
	if !est.Equal(dec("515")) { // 500 * 1.03, below the 995 ceiling
		t.Errorf("expected 515, got %v", est)
	}
}

func TestSmart_WideSpreadCappedByUndercutBest(t *testing.T) {
	// spread = 0.03 > tight 0.01, raised bid 970*1.03 = 999.1 exceeds the
	// ceiling 1000*0.995 = 995
	rec := domain.MarketRecord{BestOffer: dec("1000"), BuyOrder: dec("970")}
	s := domain.BuildSettings(map[string]string{
		domain.KeyPriceMode:      "smart",
		domain.KeyTightSpreadPct: "0.01",
	})

	est, _ := Smart{}.Estimate(rec, s)
	if !est.Equal(dec("995")) {
		t.Errorf("expected cap at 995, got %v", est)
	}
}

func TestSmart_BestOnly(t *testing.T) {
	s := smartSettings()
	rec := domain.MarketRecord{BestOffer: dec("200")}

	est, _ := Smart{}.Estimate(rec, s)
	if !est.Equal(dec("199")) { // 200 * 0.995
		t.Errorf("expected 199, got %v", est)
	}
}

func TestSmart_BidOnly(t *testing.T) {
	s := smartSettings()
	rec := domain.MarketRecord{BuyOrder: dec("100")}

	est, _ := Smart{}.Estimate(rec, s)
	if !est.Equal(dec("103")) { // 100 * 1.03
		t.Errorf("expected 103, got %v", est)
	}
}

func TestSmart_BothZero(t *testing.T) {
	est, _ := Smart{}.Estimate(domain.MarketRecord{}, smartSettings())
	if !est.IsZero() {
		t.Errorf("expected zero estimate, got %v", est)
	}
}

func TestForMode(t *testing.T) {
	if _, ok := ForMode(domain.SourceBuyOrder).(BuyOrder); !ok {
		t.Error("expected BuyOrder strategy")
	}
	if _, ok := ForMode(domain.SourceSmart).(Smart); !ok {
		t.Error("expected Smart strategy")
	}
	if _, ok := ForMode("unknown").(BestOffer); !ok {
		t.Error("expected BestOffer fallback")
	}
}

func TestVerbatimStrategies(t *testing.T) {
	rec := domain.MarketRecord{BestOffer: dec("123.45"), BuyOrder: dec("100.1")}
	s := domain.BuildSettings(nil)

	if est, src := (BestOffer{}).Estimate(rec, s); !est.Equal(dec("123.45")) || src != domain.SourceBestOffer {
		t.Errorf("best offer verbatim failed: %v %v", est, src)
	}
	if est, src := (BuyOrder{}).Estimate(rec, s); !est.Equal(dec("100.1")) || src != domain.SourceBuyOrder {
		t.Errorf("buy order verbatim failed: %v %v", est, src)
	}
}
