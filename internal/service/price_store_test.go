package service

import (
	"reflect"
	"testing"

	"delta_stream/internal/domain"
)

func TestPriceStore_StoreNormalizesKey(t *testing.T) {
	s := NewPriceStore()

	normalized := s.Store("BTCUSD", domain.SymbolData{"mark_price": 50000.0})
	if normalized != "BTCUSDT" {
		t.Errorf("Expected BTCUSDT, got %q", normalized)
	}

	// Lookup works in either form.
	if _, ok := s.Get("BTCUSD"); !ok {
		t.Error("Raw-form lookup should hit")
	}
	if _, ok := s.Get("BTCUSDT"); !ok {
		t.Error("Normalized-form lookup should hit")
	}
}

func TestPriceStore_StoreOverwrites(t *testing.T) {
	s := NewPriceStore()

	s.Store("BTCUSD", domain.SymbolData{"mark_price": 50000.0})
	s.Store("BTCUSDT", domain.SymbolData{"mark_price": 51000.0})

	data, ok := s.Get("BTCUSD")
	if !ok {
		t.Fatal("Snapshot should exist")
	}
	if data["mark_price"] != 51000.0 {
		t.Errorf("Expected latest snapshot, got %v", data["mark_price"])
	}
	if keys := s.Keys(); !reflect.DeepEqual(keys, []string{"BTCUSDT"}) {
		t.Errorf("Both writes should land on one key, got %v", keys)
	}
}

func TestPriceStore_OnStoreSignal(t *testing.T) {
	s := NewPriceStore()

	var gotRaw, gotNorm string
	s.SetOnStore(func(raw, normalized string, data domain.SymbolData) {
		gotRaw, gotNorm = raw, normalized
	})

	s.Store("ETHUSD", domain.SymbolData{"mark_price": 3000.0})

	if gotRaw != "ETHUSD" || gotNorm != "ETHUSDT" {
		t.Errorf("Signal got (%q, %q)", gotRaw, gotNorm)
	}
}

func TestPriceStore_SnapshotIsACopy(t *testing.T) {
	s := NewPriceStore()
	s.Store("BTCUSD", domain.SymbolData{"mark_price": 50000.0})

	snap := s.Snapshot()
	delete(snap, "BTCUSDT")

	if _, ok := s.Get("BTCUSDT"); !ok {
		t.Error("Mutating the snapshot copy should not affect the store")
	}
}
