package service

import (
	"sort"
	"sync"

	"delta_stream/internal/domain"
)

// PriceStore holds the latest snapshot per normalized instrument key. Each
// Store call overwrites the prior value; no history is retained.
type PriceStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.SymbolData

	// onStore signals the broadcast pipeline after each write. It runs on
	// the caller's goroutine, outside the store lock.
	onStore func(rawSymbol, normalized string, data domain.SymbolData)
}

// NewPriceStore creates an empty price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		snapshots: make(map[string]domain.SymbolData),
	}
}

// SetOnStore registers the per-write signal. Must be called during wiring,
// before any feed starts publishing.
func (s *PriceStore) SetOnStore(fn func(rawSymbol, normalized string, data domain.SymbolData)) {
	s.onStore = fn
}

// Store normalizes the key, overwrites the snapshot, and signals the
// broadcast pipeline with both the normalized key and the raw symbol (the
// raw form is needed for outbound payloads).
func (s *PriceStore) Store(rawSymbol string, data domain.SymbolData) string {
	normalized := domain.NormalizeSymbol(rawSymbol)

	s.mu.Lock()
	s.snapshots[normalized] = data
	s.mu.Unlock()

	if s.onStore != nil {
		s.onStore(rawSymbol, normalized, data)
	}
	return normalized
}

// Get returns the snapshot for a symbol in either raw or normalized form.
func (s *PriceStore) Get(symbol string) (domain.SymbolData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.snapshots[domain.NormalizeSymbol(symbol)]
	return data, ok
}

// Keys returns all normalized keys, sorted for stable output.
func (s *PriceStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the full key -> payload mapping. Debug and
// inspection use only.
func (s *PriceStore) Snapshot() map[string]domain.SymbolData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.SymbolData, len(s.snapshots))
	for k, v := range s.snapshots {
		result[k] = v
	}
	return result
}
