package s2_activation

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/config"
	"github.com/wonny/fxpulse/pkg/database"
)

func openStore(t *testing.T) (*PostgresStore, *database.DB, string) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	// unique symbol per test run keeps runs independent
	symbol := "T" + uuid.New().String()[:8]
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO instruments (id, symbol, name) VALUES ($1, $2, $3)`,
		uuid.New().String(), symbol, "test instrument")
	require.NoError(t, err)

	return NewPostgresStore(db.Pool), db, symbol
}

func countActive(t *testing.T, db *database.DB, symbol string) int {
	t.Helper()
	var n int
	err := db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM trading_signals WHERE symbol = $1 AND is_active`, symbol).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresActivateRoundTrip(t *testing.T) {
	store, db, symbol := openStore(t)
	ctx := context.Background()

	sig := newSignal(symbol, 95, time.Now().UTC().Truncate(time.Microsecond))
	sig.Patterns = []string{"momentum_breakout", "oversold", "macd_bullish"}
	sig.Analysis = contracts.TechnicalSnapshot{Volatility: "medium", Oscillator: 20, MACDBias: "bullish"}

	committed, err := store.Activate(ctx, sig)
	require.NoError(t, err)

	got, err := store.ActiveSignal(ctx, symbol)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, got.ID)
	assert.Equal(t, sig.Patterns, got.Patterns)
	assert.Equal(t, 20.0, got.Analysis.Oscillator)
	assert.True(t, got.CreatedAt.Equal(sig.CreatedAt))

	_, err = store.Activate(ctx, newSignal(symbol, 60, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, countActive(t, db, symbol))
}

func TestPostgresConcurrentActivations(t *testing.T) {
	store, db, symbol := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Activate(ctx, newSignal(symbol, 50+i, time.Now()))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, countActive(t, db, symbol))
}

func TestPostgresActiveSignalNotFound(t *testing.T) {
	store, _, symbol := openStore(t)

	_, err := store.ActiveSignal(context.Background(), symbol)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
