package event

import (
	"sync"

	"delta_stream/internal/domain"
)

// PriceTick carries one raw feed update into the broadcaster hotpath.
type PriceTick struct {
	RawSymbol string
	Data      domain.SymbolData
}

// tickPool reduces GC pressure on the feed -> broadcaster path. Ticks must be
// released by the broadcaster after all sends for the update complete.
var tickPool = sync.Pool{
	New: func() any {
		return &PriceTick{}
	},
}

// AcquirePriceTick gets a zeroed PriceTick from the pool.
func AcquirePriceTick() *PriceTick {
	return tickPool.Get().(*PriceTick)
}

// ReleasePriceTick resets a tick and returns it to the pool.
func ReleasePriceTick(t *PriceTick) {
	if t == nil {
		return
	}
	t.RawSymbol = ""
	t.Data = nil
	tickPool.Put(t)
}
