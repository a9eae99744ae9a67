package marketfeed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// The reference market exposes two listing endpoints whose payload shape has
// drifted over time: the item collection is either an array or a keyed map,
// the display name and the bid value hide behind several possible field names,
// and numbers arrive as JSON numbers or as localized strings. Each adapter
// flattens one endpoint into a plain name-to-price map so the rest of the
// system never sees the upstream schema.

// envelope is the optional top-level wrapper around the item collection.
type envelope struct {
	Success  *bool           `json:"success"`
	Currency string          `json:"currency"`
	Items    json.RawMessage `json:"items"`
}

// rawRecord is the union of every field name the upstream has been observed
// to use.
type rawRecord struct {
	MarketHashName string          `json:"market_hash_name"`
	Name           string          `json:"name"`
	HashName       string          `json:"hash_name"`
	Price          json.RawMessage `json:"price"`
	BuyOrder       json.RawMessage `json:"buy_order"`
	Value          json.RawMessage `json:"value"`
	Order          json.RawMessage `json:"order"`
	O              json.RawMessage `json:"o"`
	Data           *struct {
		MarketHashName string `json:"market_hash_name"`
	} `json:"data"`
}

func (r *rawRecord) displayName() string {
	switch {
	case r.MarketHashName != "":
		return r.MarketHashName
	case r.Name != "":
		return r.Name
	case r.HashName != "":
		return r.HashName
	case r.Data != nil:
		return r.Data.MarketHashName
	}
	return ""
}

// bidValue resolves the buy-order amount. buy_order wins even when zero,
// matching upstream precedence.
func (r *rawRecord) bidValue() json.RawMessage {
	switch {
	case r.BuyOrder != nil:
		return r.BuyOrder
	case r.Value != nil:
		return r.Value
	case r.Price != nil:
		return r.Price
	case r.Order != nil:
		return r.Order
	default:
		return r.O
	}
}

// ParseBestOffers flattens the lowest-ask listing. Duplicate names keep the
// minimum positive price.
func ParseBestOffers(data []byte) (map[string]decimal.Decimal, string, error) {
	items, currency, err := unwrapItems(data)
	if err != nil {
		return nil, "", err
	}

	out := make(map[string]decimal.Decimal)
	fold := func(name string, raw json.RawMessage) {
		p := coerceNum(raw)
		if name == "" || !p.IsPositive() {
			return
		}
		if prev, ok := out[name]; !ok || p.LessThan(prev) {
			out[name] = p
		}
	}

	if err := walkItems(items, func(key string, rec rawRecord, scalar json.RawMessage) {
		name := rec.displayName()
		if name == "" {
			name = key
		}
		if scalar != nil {
			fold(name, scalar)
			return
		}
		fold(name, rec.Price)
	}); err != nil {
		return nil, "", err
	}
	return out, currency, nil
}

// ParseBuyOrders flattens the highest-bid listing. Duplicate names keep the
// maximum positive value.
func ParseBuyOrders(data []byte) (map[string]decimal.Decimal, string, error) {
	items, currency, err := unwrapItems(data)
	if err != nil {
		return nil, "", err
	}

	out := make(map[string]decimal.Decimal)
	fold := func(name string, raw json.RawMessage) {
		v := coerceNum(raw)
		if name == "" || !v.IsPositive() {
			return
		}
		if prev, ok := out[name]; !ok || v.GreaterThan(prev) {
			out[name] = v
		}
	}

	if err := walkItems(items, func(key string, rec rawRecord, scalar json.RawMessage) {
		name := rec.displayName()
		if name == "" {
			name = key
		}
		if scalar != nil {
			fold(name, scalar)
			return
		}
		fold(name, rec.bidValue())
	}); err != nil {
		return nil, "", err
	}
	return out, currency, nil
}

// unwrapItems peels the optional envelope and returns the raw item collection.
// A payload without an "items" key is itself the collection.
func unwrapItems(data []byte) (json.RawMessage, string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Items != nil {
		if env.Success != nil && !*env.Success {
			return nil, "", fmt.Errorf("upstream reported success=false")
		}
		return env.Items, env.Currency, nil
	}
	return json.RawMessage(data), "", nil
}

// walkItems visits each record of an item collection that is either a JSON
// array or a keyed map. Map values may be whole records or bare scalars; a
// bare scalar is reported through the scalar argument with the map key as the
// name.
func walkItems(items json.RawMessage, visit func(key string, rec rawRecord, scalar json.RawMessage)) error {
	trimmed := strings.TrimSpace(string(items))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	switch trimmed[0] {
	case '[':
		var arr []rawRecord
		if err := json.Unmarshal(items, &arr); err != nil {
			return fmt.Errorf("decode item array: %w", err)
		}
		for _, rec := range arr {
			visit("", rec, nil)
		}
		return nil
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(items, &m); err != nil {
			return fmt.Errorf("decode item map: %w", err)
		}
		for key, raw := range m {
			t := strings.TrimSpace(string(raw))
			if t == "" || t == "null" {
				continue
			}
			if t[0] == '{' {
				var rec rawRecord
				if err := json.Unmarshal(raw, &rec); err != nil {
					continue
				}
				visit(key, rec, nil)
				continue
			}
			visit(key, rawRecord{}, raw)
		}
		return nil
	default:
		return fmt.Errorf("unexpected item collection shape")
	}
}

// coerceNum converts a raw JSON value to a decimal. Strings may carry grouping
// spaces and a comma decimal separator. Anything unparseable becomes zero,
// which the folds discard.
func coerceNum(raw json.RawMessage) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return decimal.NewFromFloat(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
