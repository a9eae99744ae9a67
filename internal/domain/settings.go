package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Auto mode values.
const (
	AutoModeActive  = "active"  // triggered items are acted on (cart/checkout/purchase)
	AutoModePassive = "passive" // triggered items are only notified
)

// Settings keys as stored in the settings store.
const (
	KeyBuyFee                 = "buyFee"
	KeySellFee                = "sellFee"
	KeyWithdrawFee            = "withdrawFee"
	KeyROIMin                 = "roiMin"
	KeyPriceTTLMin            = "priceTtlMin"
	KeyPriceMode              = "priceMode"
	KeyUndercutPct            = "undercutPct"
	KeyBidMarkupPct           = "bidMarkupPct"
	KeyTightSpreadPct         = "tightSpreadPct"
	KeyROIYellowFromPct       = "roiYellowFromPct"
	KeyROIYellowToPct         = "roiYellowToPct"
	KeyROIGreenMinPct         = "roiGreenMinPct"
	KeyROIPurpleMinPct        = "roiPurpleMinPct"
	KeyROIBlueMinPct          = "roiBlueMinPct"
	KeyAPIKey                 = "apiKey"
	KeyAutoEnabled            = "autoEnabled"
	KeyAutoActionsEnabled     = "autoActionsEnabled"
	KeyAutoMode               = "autoMode"
	KeyAutoIntervalMs         = "autoIntervalMs"
	KeyAutoScanLimit          = "autoScanLimit"
	KeyAutoROIThresholdPct    = "autoRoiThresholdPct"
	KeyAutoBuyEnabled         = "autoBuyEnabled"
	KeyAutoBuyROIThresholdPct = "autoBuyRoiThresholdPct"
	KeyAutoRandomMinMs        = "autoRandomMinMs"
	KeyAutoRandomMaxMs        = "autoRandomMaxMs"
)

// ROI trigger thresholds are clamped to this band (percent).
var (
	roiThresholdMinPct = decimal.NewFromInt(-1000)
	roiThresholdMaxPct = decimal.NewFromInt(1000)
)

// DefaultSettings returns the raw default values for every settings key. The
// settings store holds only raw values; all derived and clamped fields are
// recomputed by BuildSettings on every load.
func DefaultSettings() map[string]string {
	return map[string]string{
		KeyBuyFee:                 "0.05",
		KeySellFee:                "0.05",
		KeyWithdrawFee:            "0.05",
		KeyROIMin:                 "0.00",
		KeyPriceTTLMin:            "5",
		KeyPriceMode:              string(SourceBestOffer),
		KeyUndercutPct:            "0.005",
		KeyBidMarkupPct:           "0.03",
		KeyTightSpreadPct:         "0.04",
		KeyROIYellowFromPct:       "-10",
		KeyROIYellowToPct:         "0",
		KeyROIGreenMinPct:         "0",
		KeyROIPurpleMinPct:        "7",
		KeyROIBlueMinPct:          "12",
		KeyAPIKey:                 "",
		KeyAutoEnabled:            "false",
		KeyAutoActionsEnabled:     "true",
		KeyAutoMode:               AutoModeActive,
		KeyAutoIntervalMs:         "1000",
		KeyAutoScanLimit:          "20",
		KeyAutoROIThresholdPct:    "20",
		KeyAutoBuyEnabled:         "true",
		KeyAutoBuyROIThresholdPct: "500",
		KeyAutoRandomMinMs:        "120",
		KeyAutoRandomMaxMs:        "420",
	}
}

// EngineSettings is an immutable snapshot of the runtime configuration. It is
// rebuilt wholesale on every settings-store change; readers keep the pointer
// they were handed for the duration of one batch or cycle.
type EngineSettings struct {
	BuyFee      decimal.Decimal
	SellFee     decimal.Decimal
	WithdrawFee decimal.Decimal
	ROIMin      decimal.Decimal // ratio, not percent

	PriceTTL  time.Duration
	PriceMode PriceSource

	UndercutPct    decimal.Decimal
	BidMarkupPct   decimal.Decimal
	TightSpreadPct decimal.Decimal

	// Tier cutoffs as ratios, normalized at build time: YellowFrom <= YellowTo
	// and GreenMin <= PurpleMin <= BlueMin.
	YellowFrom decimal.Decimal
	YellowTo   decimal.Decimal
	GreenMin   decimal.Decimal
	PurpleMin  decimal.Decimal
	BlueMin    decimal.Decimal

	APIKey string

	AutoEnabled        bool
	AutoActionsEnabled bool
	AutoMode           string
	AutoInterval       time.Duration
	AutoScanLimit      int

	AutoROIThresholdPct    decimal.Decimal
	AutoBuyEnabled         bool
	AutoBuyROIThresholdPct decimal.Decimal

	AutoRandomMin time.Duration
	AutoRandomMax time.Duration
}

// BuildSettings merges raw stored values over the defaults and derives the
// clamped snapshot. Unparseable values fall back to their defaults.
func BuildSettings(raw map[string]string) *EngineSettings {
	defs := DefaultSettings()
	merged := make(map[string]string, len(defs))
	for k, v := range defs {
		merged[k] = v
	}
	for k, v := range raw {
		if _, known := defs[k]; known {
			merged[k] = v
		}
	}

	dec := func(key string) decimal.Decimal {
		if d, err := decimal.NewFromString(strings.TrimSpace(merged[key])); err == nil {
			return d
		}
		d, _ := decimal.NewFromString(defs[key])
		return d
	}
	num := func(key string) int {
		if n, err := strconv.Atoi(strings.TrimSpace(merged[key])); err == nil {
			return n
		}
		n, _ := strconv.Atoi(defs[key])
		return n
	}
	boolean := func(key string) bool {
		if b, err := strconv.ParseBool(strings.TrimSpace(merged[key])); err == nil {
			return b
		}
		b, _ := strconv.ParseBool(defs[key])
		return b
	}

	s := &EngineSettings{
		BuyFee:         maxDec(dec(KeyBuyFee), decimal.Zero),
		SellFee:        maxDec(dec(KeySellFee), decimal.Zero),
		WithdrawFee:    maxDec(dec(KeyWithdrawFee), decimal.Zero),
		ROIMin:         dec(KeyROIMin),
		UndercutPct:    maxDec(dec(KeyUndercutPct), decimal.Zero),
		BidMarkupPct:   maxDec(dec(KeyBidMarkupPct), decimal.Zero),
		TightSpreadPct: maxDec(dec(KeyTightSpreadPct), decimal.Zero),
		APIKey:         merged[KeyAPIKey],

		AutoEnabled:        boolean(KeyAutoEnabled),
		AutoActionsEnabled: boolean(KeyAutoActionsEnabled),
		AutoBuyEnabled:     boolean(KeyAutoBuyEnabled),
	}

	if ttl := num(KeyPriceTTLMin); ttl >= 1 {
		s.PriceTTL = time.Duration(ttl) * time.Minute
	} else {
		s.PriceTTL = time.Minute
	}

	switch PriceSource(strings.ToLower(strings.TrimSpace(merged[KeyPriceMode]))) {
	case SourceBuyOrder:
		s.PriceMode = SourceBuyOrder
	case SourceSmart:
		s.PriceMode = SourceSmart
	default:
		s.PriceMode = SourceBestOffer
	}

	hundred := decimal.NewFromInt(100)
	s.YellowFrom = dec(KeyROIYellowFromPct).Div(hundred)
	s.YellowTo = dec(KeyROIYellowToPct).Div(hundred)
	if s.YellowFrom.GreaterThan(s.YellowTo) {
		s.YellowFrom, s.YellowTo = s.YellowTo, s.YellowFrom
	}

	s.GreenMin = dec(KeyROIGreenMinPct).Div(hundred)
	s.PurpleMin = maxDec(dec(KeyROIPurpleMinPct).Div(hundred), s.GreenMin)
	s.BlueMin = maxDec(dec(KeyROIBlueMinPct).Div(hundred), s.PurpleMin)

	if s.AutoMode = strings.ToLower(strings.TrimSpace(merged[KeyAutoMode])); s.AutoMode != AutoModePassive {
		s.AutoMode = AutoModeActive
	}

	if iv := num(KeyAutoIntervalMs); iv >= 250 {
		s.AutoInterval = time.Duration(iv) * time.Millisecond
	} else {
		s.AutoInterval = 250 * time.Millisecond
	}

	if limit := num(KeyAutoScanLimit); limit >= 1 {
		s.AutoScanLimit = limit
	} else {
		s.AutoScanLimit = 1
	}

	s.AutoROIThresholdPct = clampDec(dec(KeyAutoROIThresholdPct), roiThresholdMinPct, roiThresholdMaxPct)
	s.AutoBuyROIThresholdPct = clampDec(dec(KeyAutoBuyROIThresholdPct), roiThresholdMinPct, roiThresholdMaxPct)

	minMs := num(KeyAutoRandomMinMs)
	maxMs := num(KeyAutoRandomMaxMs)
	if minMs < 0 {
		minMs = 0
	}
	if maxMs < 0 {
		maxMs = 0
	}
	if maxMs < minMs {
		minMs, maxMs = maxMs, minMs
	}
	s.AutoRandomMin = time.Duration(minMs) * time.Millisecond
	s.AutoRandomMax = time.Duration(maxMs) * time.Millisecond

	return s
}

func maxDec(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func clampDec(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
