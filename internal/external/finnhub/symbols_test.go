package finnhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/pkg/config"
)

func TestSymbolTableRoundTrip(t *testing.T) {
	table := testTable(t)

	for _, symbol := range table.Symbols() {
		provider, ok := table.ToProvider(symbol)
		require.True(t, ok)

		back, ok := table.ToInternal(provider)
		require.True(t, ok)
		assert.Equal(t, symbol, back)
	}

	p, ok := table.ToProvider("EURUSD")
	assert.True(t, ok)
	assert.Equal(t, "OANDA:EUR_USD", p)

	s, ok := table.ToInternal("BINANCE:BTCUSDT")
	assert.True(t, ok)
	assert.Equal(t, "BTCUSD", s)
}

func TestSymbolTableUnknown(t *testing.T) {
	table := testTable(t)

	_, ok := table.ToProvider("AUDCAD")
	assert.False(t, ok)
	_, ok = table.ToInternal("OANDA:AUD_CAD")
	assert.False(t, ok)
}

func TestSymbolTableRejectsSharedProviderSymbol(t *testing.T) {
	_, err := NewSymbolTable(map[string]string{
		"EURUSD": "OANDA:EUR_USD",
		"EURUSX": "OANDA:EUR_USD",
	})
	assert.Error(t, err)
}

func TestSymbolTableRejectsEmpty(t *testing.T) {
	_, err := NewSymbolTable(map[string]string{"EURUSD": ""})
	assert.Error(t, err)
}

func TestSymbolTableFromCatalog(t *testing.T) {
	cat, err := config.LoadCatalog("../../../configs/instruments.yaml")
	require.NoError(t, err)

	table, err := SymbolTableFromCatalog(cat)
	require.NoError(t, err)
	assert.Equal(t, len(cat.Instruments), len(table.Symbols()))

	p, ok := table.ToProvider("BTCUSD")
	assert.True(t, ok)
	assert.Equal(t, "BINANCE:BTCUSDT", p)
}

func TestSymbolTableSymbolsSorted(t *testing.T) {
	assert.Equal(t, []string{"BTCUSD", "EURUSD", "GBPUSD", "XAUUSD"}, testTable(t).Symbols())
}
