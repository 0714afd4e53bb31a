package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSymbolData_Number(t *testing.T) {
	data := SymbolData{
		"float":  42.5,
		"string": "100.25",
		"empty":  "",
		"bogus":  "not-a-number",
	}

	if v, ok := data.Number("float"); !ok || !v.Equal(decimal.NewFromFloat(42.5)) {
		t.Errorf("Expected 42.5, got %v (ok=%v)", v, ok)
	}
	if v, ok := data.Number("string"); !ok || !v.Equal(decimal.NewFromFloat(100.25)) {
		t.Errorf("Expected 100.25, got %v (ok=%v)", v, ok)
	}
	if _, ok := data.Number("empty"); ok {
		t.Error("Empty string should not parse")
	}
	if _, ok := data.Number("bogus"); ok {
		t.Error("Garbage string should not parse")
	}
	if _, ok := data.Number("missing"); ok {
		t.Error("Missing key should not parse")
	}
}

func TestSymbolData_MarkPrice(t *testing.T) {
	direct := SymbolData{"mark_price": 50000.0}
	if p, ok := direct.MarkPrice(); !ok || !p.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Direct mark_price failed: %v (ok=%v)", p, ok)
	}

	nested := SymbolData{
		"calculated": map[string]any{
			"mark_price": map[string]any{"value": 123.45},
		},
	}
	if p, ok := nested.MarkPrice(); !ok || !p.Equal(decimal.NewFromFloat(123.45)) {
		t.Errorf("Nested mark_price failed: %v (ok=%v)", p, ok)
	}

	// Zero on the direct field falls through to the calculated field.
	zeroThenNested := SymbolData{
		"mark_price": 0.0,
		"calculated": map[string]any{
			"mark_price": map[string]any{"value": 9.5},
		},
	}
	if p, ok := zeroThenNested.MarkPrice(); !ok || !p.Equal(decimal.NewFromFloat(9.5)) {
		t.Errorf("Zero fallthrough failed: %v (ok=%v)", p, ok)
	}

	if _, ok := (SymbolData{"mark_price": 0.0}).MarkPrice(); ok {
		t.Error("All-zero snapshot should be unresolved")
	}
	if _, ok := (SymbolData{}).MarkPrice(); ok {
		t.Error("Empty snapshot should be unresolved")
	}
}

func TestSymbolData_BestAskPrice(t *testing.T) {
	full := SymbolData{
		"calculated": map[string]any{
			"best_ask_price": map[string]any{"value": 0.051},
		},
		"mark_price": 0.05,
		"last_price": 0.049,
	}
	if p, ok := full.BestAskPrice(); !ok || !p.Equal(decimal.NewFromFloat(0.051)) {
		t.Errorf("Expected best ask 0.051, got %v (ok=%v)", p, ok)
	}

	noAsk := SymbolData{"mark_price": 0.05, "last_price": 0.049}
	if p, ok := noAsk.BestAskPrice(); !ok || !p.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("Expected mark fallback 0.05, got %v (ok=%v)", p, ok)
	}

	lastOnly := SymbolData{"last_price": 0.049}
	if p, ok := lastOnly.BestAskPrice(); !ok || !p.Equal(decimal.NewFromFloat(0.049)) {
		t.Errorf("Expected last fallback 0.049, got %v (ok=%v)", p, ok)
	}
}

func TestSymbolData_ProjectFutures(t *testing.T) {
	data := SymbolData{
		"high":                    51000.0,
		"low":                     49000.0,
		"underlying_asset_symbol": "BTC",
		"mark_price":              50000.0,
		"mark_change_24h":         "1.2",
		"description":             "Bitcoin Perpetual",
		"volume":                  999.0,
		"open_interest":           12345.0,
	}

	out := data.Project(KindFuturesWide)
	if out["description"] != "Bitcoin" {
		t.Errorf("Expected Perpetual stripped, got %q", out["description"])
	}
	if out["mark_price"] != 50000.0 || out["high"] != 51000.0 {
		t.Error("Projected fields missing")
	}
	if _, ok := out["volume"]; ok {
		t.Error("volume should not survive futures projection")
	}
	if _, ok := out["open_interest"]; ok {
		t.Error("open_interest should not survive futures projection")
	}
}

func TestSymbolData_ProjectDashboard(t *testing.T) {
	data := SymbolData{
		"high":            51000.0,
		"low":             49000.0,
		"mark_price":      50000.0,
		"mark_change_24h": "1.2",
		"volume":          999.0,
		"description":     "Bitcoin Perpetual",
	}

	out := data.Project(KindDashboard)
	if out["volume"] != 999.0 {
		t.Error("volume should survive dashboard projection")
	}
	if _, ok := out["description"]; ok {
		t.Error("description should not survive dashboard projection")
	}
}

func TestSymbolData_ProjectExactMatch(t *testing.T) {
	data := SymbolData{"anything": "goes", "mark_price": 1.0}
	out := data.Project(KindExactMatch)
	if len(out) != len(data) || out["anything"] != "goes" {
		t.Error("Exact-match projection should return the snapshot unchanged")
	}
}

func TestKindOfCategory(t *testing.T) {
	if KindOfCategory(CategoryFutures) != KindFuturesWide {
		t.Error("futures should be wide")
	}
	if KindOfCategory(CategoryFuturesSymbol) != KindFuturesWide {
		t.Error("futures_symbol should be wide")
	}
	if KindOfCategory(CategoryDashboard) != KindDashboard {
		t.Error("dashboard should be dashboard kind")
	}
	if KindOfCategory("spot") != KindExactMatch {
		t.Error("unknown category should be exact match")
	}
}
