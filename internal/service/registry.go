package service

import (
	"sort"
	"sync"

	"delta_stream/internal/domain"
)

// Registry tracks which normalized symbols each user follows per category.
//
// Invariant: no category ever holds an empty symbol set. Removing the last
// symbol set of a category removes the category; removing the last category
// removes the user entry entirely.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]map[string]struct{}
}

// NewRegistry creates an empty subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]map[string]struct{}),
	}
}

// Subscribe unions the given symbols (normalized) into the user's category.
// Any futures-class symbol is additionally registered under the reserved
// "futures" category so futures-wide broadcasts reach every holder,
// whichever category they subscribed under. Returns the number of symbols
// registered into the requested category.
func (r *Registry) Subscribe(userID, category string, symbols []string) int {
	if userID == "" || category == "" || len(symbols) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cats, ok := r.users[userID]
	if !ok {
		cats = make(map[string]map[string]struct{})
		r.users[userID] = cats
	}

	set, ok := cats[category]
	if !ok {
		set = make(map[string]struct{})
	}

	var futures map[string]struct{}
	count := 0
	for _, raw := range symbols {
		if raw == "" {
			continue
		}
		set[domain.NormalizeSymbol(raw)] = struct{}{}
		count++

		if domain.IsFuturesSymbol(raw) && category != domain.CategoryFutures {
			if futures == nil {
				if futures, ok = cats[domain.CategoryFutures]; !ok {
					futures = make(map[string]struct{})
				}
			}
			futures[domain.NormalizeSymbol(raw)] = struct{}{}
		}
	}

	if len(set) > 0 {
		cats[category] = set
	}
	if len(futures) > 0 {
		cats[domain.CategoryFutures] = futures
	}
	if len(cats) == 0 {
		delete(r.users, userID)
	}
	return count
}

// Unsubscribe atomically removes the whole symbol set of a category and
// cascades the empty-entry cleanup. The removed symbols are returned so the
// caller can emit per-symbol notifications. Unknown user or category is a
// no-op with ok=false, not an error.
func (r *Registry) Unsubscribe(userID, category string) (removed []string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cats, found := r.users[userID]
	if !found {
		return nil, false
	}
	set, found := cats[category]
	if !found {
		return nil, false
	}

	removed = make([]string, 0, len(set))
	for sym := range set {
		removed = append(removed, sym)
	}
	sort.Strings(removed)

	delete(cats, category)
	if len(cats) == 0 {
		delete(r.users, userID)
	}
	return removed, true
}

// Members returns a copy of the category's symbol set, sorted.
func (r *Registry) Members(userID, category string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, found := r.users[userID][category]
	if !found {
		return nil, false
	}
	members := make([]string, 0, len(set))
	for sym := range set {
		members = append(members, sym)
	}
	sort.Strings(members)
	return members, true
}

// Has reports explicit membership of a normalized symbol in a category.
func (r *Registry) Has(userID, category, normalized string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, found := r.users[userID][category][normalized]
	return found
}

// CategoriesFor returns a copy of the user's category -> symbol-set mapping
// so fan-out can evaluate eligibility without holding the registry lock
// across sends.
func (r *Registry) CategoriesFor(userID string) map[string]map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats, found := r.users[userID]
	if !found {
		return nil
	}
	result := make(map[string]map[string]struct{}, len(cats))
	for cat, set := range cats {
		copied := make(map[string]struct{}, len(set))
		for sym := range set {
			copied[sym] = struct{}{}
		}
		result[cat] = copied
	}
	return result
}

// Users returns the number of users with at least one subscription.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
