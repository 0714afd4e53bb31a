package event

import (
	"testing"

	"delta_stream/internal/domain"
)

func TestPriceTickPool_ReleaseResets(t *testing.T) {
	tick := AcquirePriceTick()
	tick.RawSymbol = "BTCUSD"
	tick.Data = domain.SymbolData{"mark_price": 50000.0}

	ReleasePriceTick(tick)

	next := AcquirePriceTick()
	if next.RawSymbol != "" || next.Data != nil {
		t.Errorf("Pooled tick should come back zeroed, got %+v", next)
	}
	ReleasePriceTick(next)
}

func TestReleasePriceTick_NilSafe(t *testing.T) {
	ReleasePriceTick(nil)
}
