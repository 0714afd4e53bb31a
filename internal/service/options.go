package service

import (
	"sort"
	"sync"

	"delta_stream/internal/domain"
)

// OptionChainStore holds the latest option snapshots, keyed by underlying
// currency, then expiry date, then full instrument symbol. It backs both the
// valuation engine's option lookup and the /dates endpoint.
type OptionChainStore struct {
	mu     sync.RWMutex
	chains map[string]map[string]map[string]domain.SymbolData
}

// NewOptionChainStore creates an empty chain store.
func NewOptionChainStore() *OptionChainStore {
	return &OptionChainStore{
		chains: make(map[string]map[string]map[string]domain.SymbolData),
	}
}

// Put overwrites the snapshot for one option instrument.
func (s *OptionChainStore) Put(currency, date, symbol string, data domain.SymbolData) {
	if currency == "" || date == "" || symbol == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dates, ok := s.chains[currency]
	if !ok {
		dates = make(map[string]map[string]domain.SymbolData)
		s.chains[currency] = dates
	}
	chain, ok := dates[date]
	if !ok {
		chain = make(map[string]domain.SymbolData)
		dates[date] = chain
	}
	chain[symbol] = data
}

// Quote returns the snapshot for one option instrument.
func (s *OptionChainStore) Quote(currency, date, symbol string) (domain.SymbolData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.chains[currency][date][symbol]
	return data, ok
}

// Dates returns the expiry dates known for a currency, sorted.
func (s *OptionChainStore) Dates(currency string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.chains[currency]))
	for d := range s.chains[currency] {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
