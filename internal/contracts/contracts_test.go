package contracts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalPattern(t *testing.T) {
	sig := &Signal{Patterns: []string{"momentum_breakout", "oversold"}}
	assert.Equal(t, "momentum_breakout,oversold", sig.Pattern())

	empty := &Signal{}
	assert.Equal(t, "", empty.Pattern())
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionBuy.Valid())
	assert.True(t, DirectionNeutral.Valid())
	assert.False(t, Direction("HOLD").Valid())
}

func TestProviderFetchErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("cycle: %w", &ProviderFetchError{
		Symbol:         "EURUSD",
		ProviderSymbol: "OANDA:EUR_USD",
		Timeout:        true,
		Err:            context.DeadlineExceeded,
	})

	var fetchErr *ProviderFetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "timeout")
}

func TestProviderFetchErrorMessages(t *testing.T) {
	withStatus := &ProviderFetchError{Symbol: "GBPUSD", ProviderSymbol: "OANDA:GBP_USD", StatusCode: 429, Err: errors.New("limited")}
	assert.Equal(t, "fetch GBPUSD (OANDA:GBP_USD): status 429: limited", withStatus.Error())

	plain := &ProviderFetchError{Symbol: "GBPUSD", ProviderSymbol: "OANDA:GBP_USD", Err: errors.New("zero price")}
	assert.Equal(t, "fetch GBPUSD (OANDA:GBP_USD): zero price", plain.Error())
}

func TestPersistenceWriteError(t *testing.T) {
	err := &PersistenceWriteError{Op: "activate_signal", Symbol: "XAUUSD", Err: ErrNotFound}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "activate_signal XAUUSD: not found", err.Error())

	noSymbol := &PersistenceWriteError{Op: "mark_read", Err: errors.New("conn reset")}
	assert.Equal(t, "mark_read: conn reset", noSymbol.Error())
}

func TestCycleSummaryFailedSymbols(t *testing.T) {
	s := &CycleSummary{Failures: []SymbolFailure{
		{Symbol: "EURUSD", Stage: StageFetch},
		{Symbol: "BTCUSD", Stage: StageActivate},
	}}
	assert.Equal(t, []string{"EURUSD", "BTCUSD"}, s.FailedSymbols())
}
