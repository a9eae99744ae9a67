package marketfeed

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseBestOffers_ArrayPayload(t *testing.T) {
	payload := []byte(`{
		"success": true,
		"currency": "RUB",
		"items": [
			{"market_hash_name": "AK-47 | Redline (Field-Tested)", "price": "1200.50"},
			{"market_hash_name": "AK-47 | Redline (Field-Tested)", "price": 1100},
			{"name": "Glock-18 | Fade (Factory New)", "price": "3 500,75"},
			{"hash_name": "Broken Item", "price": "0"}
		]
	}`)

	out, currency, err := ParseBestOffers(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if currency != "RUB" {
		t.Errorf("Expected currency RUB, got %q", currency)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(out))
	}
	// Duplicates keep the minimum positive offer
	if !out["AK-47 | Redline (Field-Tested)"].Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Expected min 1100, got %s", out["AK-47 | Redline (Field-Tested)"])
	}
	// Grouping space and comma separator
	if !out["Glock-18 | Fade (Factory New)"].Equal(decimal.RequireFromString("3500.75")) {
		t.Errorf("Expected 3500.75, got %s", out["Glock-18 | Fade (Factory New)"])
	}
}

func TestParseBestOffers_KeyedMapPayload(t *testing.T) {
	payload := []byte(`{
		"items": {
			"AWP | Asiimov (Field-Tested)": {"price": "5400"},
			"Renamed": {"market_hash_name": "M4A1-S | Printstream (Minimal Wear)", "price": 9000}
		}
	}`)

	out, _, err := ParseBestOffers(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out["AWP | Asiimov (Field-Tested)"].Equal(decimal.NewFromInt(5400)) {
		t.Errorf("Expected map key as name, got %v", out)
	}
	// Embedded market_hash_name wins over the map key
	if !out["M4A1-S | Printstream (Minimal Wear)"].Equal(decimal.NewFromInt(9000)) {
		t.Errorf("Expected embedded name, got %v", out)
	}
}

func TestParseBestOffers_BareArray(t *testing.T) {
	payload := []byte(`[{"market_hash_name": "P250 | Sand Dune", "price": 12}]`)

	out, currency, err := ParseBestOffers(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if currency != "" {
		t.Errorf("Expected no currency, got %q", currency)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(out))
	}
}

func TestParseBuyOrders_DuplicatesKeepMaximum(t *testing.T) {
	payload := []byte(`{
		"items": [
			{"market_hash_name": "AK-47 | Redline (Field-Tested)", "buy_order": 900},
			{"market_hash_name": "AK-47 | Redline (Field-Tested)", "buy_order": "950,25"},
			{"market_hash_name": "AK-47 | Redline (Field-Tested)", "buy_order": 800}
		]
	}`)

	out, _, err := ParseBuyOrders(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out["AK-47 | Redline (Field-Tested)"].Equal(decimal.RequireFromString("950.25")) {
		t.Errorf("Expected max 950.25, got %s", out["AK-47 | Redline (Field-Tested)"])
	}
}

func TestParseBuyOrders_AlternateFieldNames(t *testing.T) {
	payload := []byte(`{
		"items": [
			{"name": "A", "value": 10},
			{"name": "B", "price": 20},
			{"name": "C", "order": 30},
			{"name": "D", "o": 40},
			{"name": "E", "buy_order": 0, "price": 50}
		]
	}`)

	out, _, err := ParseBuyOrders(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for name, want := range map[string]int64{"A": 10, "B": 20, "C": 30, "D": 40} {
		if !out[name].Equal(decimal.NewFromInt(want)) {
			t.Errorf("Item %s: expected %d, got %s", name, want, out[name])
		}
	}
	// An explicit buy_order field wins even when zero, so E is dropped
	if _, ok := out["E"]; ok {
		t.Errorf("Expected E dropped, got %s", out["E"])
	}
}

func TestParseBuyOrders_ScalarMapValues(t *testing.T) {
	payload := []byte(`{
		"items": {
			"USP-S | Kill Confirmed (Minimal Wear)": 4200,
			"Five-SeveN | Case Hardened (Well-Worn)": "310,5"
		}
	}`)

	out, _, err := ParseBuyOrders(payload)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out["USP-S | Kill Confirmed (Minimal Wear)"].Equal(decimal.NewFromInt(4200)) {
		t.Errorf("Expected 4200, got %v", out)
	}
	if !out["Five-SeveN | Case Hardened (Well-Worn)"].Equal(decimal.RequireFromString("310.5")) {
		t.Errorf("Expected 310.5, got %v", out)
	}
}

func TestParse_UpstreamFailure(t *testing.T) {
	payload := []byte(`{"success": false, "items": []}`)
	if _, _, err := ParseBestOffers(payload); err == nil {
		t.Error("Expected error for success=false payload")
	}
}

func TestParse_GarbagePayload(t *testing.T) {
	if _, _, err := ParseBestOffers([]byte(`"just a string"`)); err == nil {
		t.Error("Expected error for scalar payload")
	}
}

func TestCoerceNum(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json number", `12.5`, "12.5"},
		{"plain string", `"99"`, "99"},
		{"comma separator", `"12,75"`, "12.75"},
		{"grouping spaces", `"1 250 000,10"`, "1250000.10"},
		{"garbage", `"abc"`, "0"},
		{"null", `null`, "0"},
		{"object", `{"x":1}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceNum([]byte(tt.in))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("coerceNum(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
