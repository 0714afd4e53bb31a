package domain

import "strings"

// Symbol separator used by option and other composite instruments,
// e.g. "BTC-28JUN25-45000-C". Such symbols are never normalized.
const symbolSeparator = "-"

// NormalizeSymbol maps a raw exchange symbol to its canonical lookup form.
// Native "...USD" quoted symbols become "...USDT"; symbols already carrying
// the canonical suffix and composite (option-style) symbols pass through
// unchanged. The function is idempotent: NormalizeSymbol(NormalizeSymbol(s))
// always equals NormalizeSymbol(s).
func NormalizeSymbol(symbol string) string {
	if symbol == "" || strings.Contains(symbol, symbolSeparator) {
		return symbol
	}
	if strings.HasSuffix(symbol, "USDT") {
		return symbol
	}
	if strings.HasSuffix(symbol, "USD") {
		return strings.TrimSuffix(symbol, "USD") + "USDT"
	}
	return symbol
}

// ExchangeSymbol converts a normalized symbol back to the exchange-native
// suffix form used in outbound payloads. Composite symbols pass through.
func ExchangeSymbol(symbol string) string {
	if strings.Contains(symbol, symbolSeparator) {
		return symbol
	}
	if strings.HasSuffix(symbol, "USDT") {
		return strings.TrimSuffix(symbol, "USDT") + "USD"
	}
	return symbol
}

// IsFuturesSymbol reports whether a symbol belongs to the perpetual/futures
// class: a plain USD- or USDT-quoted pair without a composite separator.
func IsFuturesSymbol(symbol string) bool {
	if symbol == "" || strings.Contains(symbol, symbolSeparator) {
		return false
	}
	return strings.HasSuffix(symbol, "USD") || strings.HasSuffix(symbol, "USDT")
}

// IsOptionSymbol reports whether a symbol is option-style, i.e. a composite
// instrument name such as "BTC-28JUN25-45000-C".
func IsOptionSymbol(symbol string) bool {
	return strings.Contains(symbol, symbolSeparator)
}

// SplitCurrencyAndDate extracts the underlying currency and expiry date from
// an option-style symbol. Returns empty strings when the symbol does not
// carry both parts.
func SplitCurrencyAndDate(symbol string) (currency, date string) {
	parts := strings.Split(symbol, symbolSeparator)
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
