package domain

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolData is the opaque per-instrument payload held by the price store.
// The upstream feed decides the field set; the engine only ever reads a
// handful of well-known keys and otherwise relays the payload untouched.
type SymbolData map[string]any

var perpetualRe = regexp.MustCompile(`(?i)perpetual`)

// Number reads a numeric field, coercing the JSON representations the feeds
// actually produce (float64, string, json.Number).
func (d SymbolData) Number(key string) (decimal.Decimal, bool) {
	return toDecimal(d[key])
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		dec, err := decimal.NewFromString(n.String())
		return dec, err == nil
	case string:
		if n == "" {
			return decimal.Zero, false
		}
		dec, err := decimal.NewFromString(n)
		return dec, err == nil
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

// String reads a string field, returning "" when absent or non-string.
func (d SymbolData) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// MarkPrice resolves the mark price with the fallback chain used for open
// position valuation: the direct "mark_price" field first, then the nested
// "calculated.mark_price.value" field. A price that resolves to zero is
// treated as unresolved, matching the upstream feed's "no quote yet" state.
func (d SymbolData) MarkPrice() (decimal.Decimal, bool) {
	if p, ok := d.Number("mark_price"); ok && !p.IsZero() {
		return p, true
	}
	if calc, ok := d["calculated"].(map[string]any); ok {
		if mp, ok := calc["mark_price"].(map[string]any); ok {
			if p, ok := toDecimal(mp["value"]); ok && !p.IsZero() {
				return p, true
			}
		}
	}
	return decimal.Zero, false
}

// BestAskPrice resolves the batch mark-price fallback chain used by the
// symbol-mark-prices endpoint for options: calculated.best_ask_price.value,
// then mark_price, then last_price.
func (d SymbolData) BestAskPrice() (decimal.Decimal, bool) {
	if calc, ok := d["calculated"].(map[string]any); ok {
		if ask, ok := calc["best_ask_price"].(map[string]any); ok {
			if p, ok := toDecimal(ask["value"]); ok && !p.IsZero() {
				return p, true
			}
		}
	}
	if p, ok := d.Number("mark_price"); ok && !p.IsZero() {
		return p, true
	}
	if p, ok := d.Number("last_price"); ok && !p.IsZero() {
		return p, true
	}
	return decimal.Zero, false
}

// CategoryKind selects the fan-out eligibility and projection rule for a
// subscription category.
type CategoryKind int

const (
	// KindExactMatch delivers the raw snapshot only to explicit members.
	KindExactMatch CategoryKind = iota
	// KindFuturesWide delivers every futures-class update, field-projected.
	KindFuturesWide
	// KindDashboard delivers whitelisted majors only, field-projected.
	KindDashboard
)

// Reserved category names with engine-defined semantics.
const (
	CategoryFutures       = "futures"
	CategoryFuturesSymbol = "futures_symbol"
	CategoryDashboard     = "dashboard"
)

// KindOfCategory maps a category name to its fan-out rule.
func KindOfCategory(category string) CategoryKind {
	switch category {
	case CategoryFutures, CategoryFuturesSymbol:
		return KindFuturesWide
	case CategoryDashboard:
		return KindDashboard
	default:
		return KindExactMatch
	}
}

// Project builds the outbound payload for a category kind. Exact-match
// categories receive the snapshot as-is; the reserved kinds receive a fixed
// field subset.
func (d SymbolData) Project(kind CategoryKind) SymbolData {
	switch kind {
	case KindFuturesWide:
		return SymbolData{
			"high":                    d["high"],
			"low":                     d["low"],
			"underlying_asset_symbol": d["underlying_asset_symbol"],
			"mark_price":              d["mark_price"],
			"mark_change_24h":         d["mark_change_24h"],
			"description":             strings.TrimSpace(perpetualRe.ReplaceAllString(d.String("description"), "")),
		}
	case KindDashboard:
		return SymbolData{
			"high":            d["high"],
			"low":             d["low"],
			"mark_price":      d["mark_price"],
			"mark_change_24h": d["mark_change_24h"],
			"volume":          d["volume"],
		}
	default:
		return d
	}
}
