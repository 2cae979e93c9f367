package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogEntry describes one tracked instrument
type CatalogEntry struct {
	Symbol         string  `yaml:"symbol"`
	Name           string  `yaml:"name"`
	ProviderSymbol string  `yaml:"provider_symbol"`
	Spread         float64 `yaml:"spread"`
}

// Catalog is the fixed instrument list provisioned at startup
type Catalog struct {
	Instruments []CatalogEntry `yaml:"instruments"`
}

// LoadCatalog reads and validates the instrument catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range cat.Instruments {
		cat.Instruments[i].Symbol = strings.ToUpper(strings.TrimSpace(cat.Instruments[i].Symbol))
		cat.Instruments[i].ProviderSymbol = strings.TrimSpace(cat.Instruments[i].ProviderSymbol)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks that symbols and provider symbols are unique and spreads sane
func (c *Catalog) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("catalog has no instruments")
	}

	symbols := make(map[string]bool, len(c.Instruments))
	providers := make(map[string]bool, len(c.Instruments))

	for _, e := range c.Instruments {
		if e.Symbol == "" || e.ProviderSymbol == "" {
			return fmt.Errorf("catalog entry %+v: symbol and provider_symbol are required", e)
		}
		if symbols[e.Symbol] {
			return fmt.Errorf("catalog: duplicate symbol %s", e.Symbol)
		}
		if providers[e.ProviderSymbol] {
			return fmt.Errorf("catalog: duplicate provider symbol %s", e.ProviderSymbol)
		}
		if e.Spread < 0 {
			return fmt.Errorf("catalog: negative spread for %s", e.Symbol)
		}
		symbols[e.Symbol] = true
		providers[e.ProviderSymbol] = true
	}

	return nil
}

// Symbols returns the internal symbols in catalog order
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.Instruments))
	for i, e := range c.Instruments {
		out[i] = e.Symbol
	}
	return out
}

// Lookup returns the entry for a symbol
func (c *Catalog) Lookup(symbol string) (CatalogEntry, bool) {
	for _, e := range c.Instruments {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
