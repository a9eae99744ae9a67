package domain

import "github.com/shopspring/decimal"

// CandidateItem is one listed item collected by a scan surface during a single
// cycle. CardID is unique within that cycle only; HashName is the raw label
// before normalization.
type CandidateItem struct {
	CardID      string          `json:"card_id"`
	HashName    string          `json:"hash_name"`
	SourcePrice decimal.Decimal `json:"source_price"`
}
