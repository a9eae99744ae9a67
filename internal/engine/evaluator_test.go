package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestEvaluate_ROIFormula(t *testing.T) {
	s := domain.BuildSettings(nil) // fees 0.05 each, best_offer mode
	rec := domain.MarketRecord{BestOffer: dec("1200")}

	d := Evaluate(dec("1000"), rec, s)
	if d == nil {
		t.Fatal("expected a decision")
	}
	if !d.CostIn.Equal(dec("1050")) {
		t.Errorf("expected cost in 1050, got %v", d.CostIn)
	}
	if !d.ProceedsOut.Equal(dec("1083")) { // 1200 * 0.95 * 0.95
		t.Errorf("expected proceeds 1083, got %v", d.ProceedsOut)
	}
	if !d.Delta.Equal(dec("33")) {
		t.Errorf("expected delta 33, got %v", d.Delta)
	}
	// roi = 33/1050 ≈ 0.0314
	if d.ROI.Sub(dec("0.0314")).Abs().GreaterThan(dec("0.0001")) {
		t.Errorf("expected roi ≈ 0.0314, got %v", d.ROI)
	}
	if !d.OK {
		t.Error("roi above default minimum should be ok")
	}
}

func TestEvaluate_NonPositiveSourcePrice(t *testing.T) {
	s := domain.BuildSettings(nil)
	rec := domain.MarketRecord{BestOffer: dec("1200")}

	if d := Evaluate(decimal.Zero, rec, s); d != nil {
		t.Errorf("expected nil decision for zero source price, got %+v", d)
	}
	if d := Evaluate(dec("-5"), rec, s); d != nil {
		t.Errorf("expected nil decision for negative source price, got %+v", d)
	}
}

func TestEvaluate_NoMarketData(t *testing.T) {
	s := domain.BuildSettings(nil)
	if d := Evaluate(dec("1000"), domain.MarketRecord{}, s); d != nil {
		t.Errorf("expected nil decision for empty record, got %+v", d)
	}
}

func TestEvaluate_SmartBidOnly(t *testing.T) {
	s := domain.BuildSettings(map[string]string{domain.KeyPriceMode: "smart"})
	rec := domain.MarketRecord{BuyOrder: dec("100")}

	d := Evaluate(dec("50"), rec, s)
	if d == nil {
		t.Fatal("expected a decision")
	}
	if !d.MarketBase.Equal(dec("103")) { // bid * (1 + 0.03)
		t.Errorf("expected base 103, got %v", d.MarketBase)
	}
	if d.PriceSource != domain.SourceSmart {
		t.Errorf("expected smart source, got %v", d.PriceSource)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	s := domain.BuildSettings(map[string]string{
		domain.KeyROIGreenMinPct:  "0",
		domain.KeyROIPurpleMinPct: "7",
		domain.KeyROIBlueMinPct:   "12",
	})

	cases := []struct {
		roi  string
		want domain.Tier
	}{
		{"-0.01", domain.TierRed},
		{"0", domain.TierGreen},
		{"0.05", domain.TierGreen},
		{"0.07", domain.TierPurple},
		{"0.11", domain.TierPurple},
		{"0.12", domain.TierBlue},
		{"0.50", domain.TierBlue},
	}
	for _, c := range cases {
		if got := Classify(dec(c.roi), domain.SourceBestOffer, s); got != c.want {
			t.Errorf("Classify(%s) = %v, want %v", c.roi, got, c.want)
		}
	}
}

func TestClassify_BuyOrderYellowBand(t *testing.T) {
	s := domain.BuildSettings(map[string]string{
		domain.KeyROIYellowFromPct: "-10",
		domain.KeyROIYellowToPct:   "0",
	})

	cases := []struct {
		roi  string
		want domain.Tier
	}{
		{"-0.05", domain.TierYellow}, // inside the band
		{"0", domain.TierYellow},     // band edge beats green
		{"-0.10", domain.TierYellow},
		{"-0.11", domain.TierRed}, // below the band and below roiMin
		{"0.01", domain.TierGreen},
	}
	for _, c := range cases {
		if got := Classify(dec(c.roi), domain.SourceBuyOrder, s); got != c.want {
			t.Errorf("Classify(%s, buy_order) = %v, want %v", c.roi, got, c.want)
		}
	}
}

func TestEvaluate_OKFlagTracksROIMin(t *testing.T) {
	s := domain.BuildSettings(map[string]string{domain.KeyROIMin: "0.10"})
	rec := domain.MarketRecord{BestOffer: dec("1200")}

	d := Evaluate(dec("1000"), rec, s)
	if d == nil {
		t.Fatal("expected a decision")
	}
	if d.OK {
		t.Error("roi ~0.0314 should not pass a 0.10 minimum")
	}
}
