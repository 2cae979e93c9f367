package finnhub

import (
	"fmt"
	"sort"

	"github.com/wonny/fxpulse/pkg/config"
)

// SymbolTable maps internal symbols to provider symbols and back.
// Both directions are one-to-one.
type SymbolTable struct {
	toProvider map[string]string
	toInternal map[string]string
}

// NewSymbolTable builds a table from symbol -> provider symbol pairs
func NewSymbolTable(pairs map[string]string) (*SymbolTable, error) {
	t := &SymbolTable{
		toProvider: make(map[string]string, len(pairs)),
		toInternal: make(map[string]string, len(pairs)),
	}
	for symbol, provider := range pairs {
		if symbol == "" || provider == "" {
			return nil, fmt.Errorf("empty mapping %q -> %q", symbol, provider)
		}
		if prev, ok := t.toInternal[provider]; ok {
			return nil, fmt.Errorf("provider symbol %s mapped by both %s and %s", provider, prev, symbol)
		}
		t.toProvider[symbol] = provider
		t.toInternal[provider] = symbol
	}
	return t, nil
}

// SymbolTableFromCatalog builds the table from the instrument catalog
func SymbolTableFromCatalog(cat *config.Catalog) (*SymbolTable, error) {
	pairs := make(map[string]string, len(cat.Instruments))
	for _, e := range cat.Instruments {
		if _, dup := pairs[e.Symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", e.Symbol)
		}
		pairs[e.Symbol] = e.ProviderSymbol
	}
	return NewSymbolTable(pairs)
}

// ToProvider translates an internal symbol
func (t *SymbolTable) ToProvider(symbol string) (string, bool) {
	p, ok := t.toProvider[symbol]
	return p, ok
}

// ToInternal translates a provider symbol
func (t *SymbolTable) ToInternal(provider string) (string, bool) {
	s, ok := t.toInternal[provider]
	return s, ok
}

// Symbols returns the internal symbols, sorted
func (t *SymbolTable) Symbols() []string {
	out := make([]string, 0, len(t.toProvider))
	for s := range t.toProvider {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
