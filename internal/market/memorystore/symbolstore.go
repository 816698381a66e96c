package memorystore

import (
	"sort"
	"strings"
	"sync"
)

// SymbolStore holds the watchlist. An empty watchlist allows every symbol.
type SymbolStore struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
}

func NewSymbolStore(initial ...string) *SymbolStore {
	s := &SymbolStore{symbols: make(map[string]struct{})}
	for _, sym := range initial {
		s.Add(sym)
	}
	return s
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (s *SymbolStore) Add(symbol string) {
	symbol = normalize(symbol)
	if symbol == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[symbol] = struct{}{}
}

// Replace swaps the whole watchlist.
func (s *SymbolStore) Replace(symbols []string) {
	next := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if sym = normalize(sym); sym != "" {
			next[sym] = struct{}{}
		}
	}
	s.mu.Lock()
	s.symbols = next
	s.mu.Unlock()
}

// Allowed reports whether events for symbol should reach the ticker table.
func (s *SymbolStore) Allowed(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.symbols) == 0 {
		return true
	}
	_, ok := s.symbols[normalize(symbol)]
	return ok
}

func (s *SymbolStore) GetAll() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
