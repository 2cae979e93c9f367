package s3_notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
)

func signal(symbol string, dir contracts.Direction, strength int) *contracts.Signal {
	return &contracts.Signal{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Direction: dir,
		Strength:  strength,
		Patterns:  []string{"momentum_breakout", "gold_premium"},
	}
}

func TestBuildThresholdAndPriority(t *testing.T) {
	tests := []struct {
		strength int
		want     bool
		priority int
	}{
		{0, false, 0},
		{79, false, 0},
		{80, true, 4},
		{89, true, 4},
		{90, true, 5},
		{100, true, 5},
	}

	for _, tt := range tests {
		n := Build(signal("EURUSD", contracts.DirectionBuy, tt.strength), time.Now())
		if !tt.want {
			assert.Nil(t, n, "strength %d", tt.strength)
			continue
		}
		require.NotNil(t, n, "strength %d", tt.strength)
		assert.Equal(t, tt.priority, n.Priority, "strength %d", tt.strength)
	}
}

func TestBuildTemplate(t *testing.T) {
	sig := signal("XAUUSD", contracts.DirectionBuy, 95)
	n := Build(sig, time.Now())
	require.NotNil(t, n)

	assert.Equal(t, "Strong BUY Signal", n.Title)
	assert.Equal(t, "XAUUSD showing 95% confidence BUY signal", n.Message)
	assert.Equal(t, contracts.NotificationSignal, n.Type)
	assert.Equal(t, "XAUUSD", n.Symbol)
	assert.False(t, n.IsRead)
	assert.Equal(t, sig.ID, n.Data["signal_id"])
	assert.Equal(t, "BUY", n.Data["signal_type"])
	assert.Equal(t, 95, n.Data["strength"])
	assert.Equal(t, "momentum_breakout,gold_premium", n.Data["pattern"])
}

func TestNotifyPersistsOnlyStrongSignals(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	engine := NewEngine(repo, logger.Nop())

	n, err := engine.Notify(ctx, signal("EURUSD", contracts.DirectionSell, 70))
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = engine.Notify(ctx, signal("GBPUSD", contracts.DirectionSell, 85))
	require.NoError(t, err)
	require.NotNil(t, n)

	recent, err := engine.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, n.ID, recent[0].ID)

	unread, err := engine.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

type failingRepo struct{ MemoryRepository }

func (f *failingRepo) Insert(ctx context.Context, n *contracts.Notification) error {
	return assert.AnError
}

func TestNotifyWrapsWriteFailure(t *testing.T) {
	engine := NewEngine(&failingRepo{}, logger.Nop())

	_, err := engine.Notify(context.Background(), signal("BTCUSD", contracts.DirectionBuy, 92))

	var writeErr *contracts.PersistenceWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "insert_notification", writeErr.Op)
	assert.Equal(t, "BTCUSD", writeErr.Symbol)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewMemoryRepository(), logger.Nop())

	a, err := engine.Notify(ctx, signal("EURUSD", contracts.DirectionBuy, 90))
	require.NoError(t, err)
	b, err := engine.Notify(ctx, signal("GBPUSD", contracts.DirectionBuy, 90))
	require.NoError(t, err)

	read, err := engine.MarkRead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := engine.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	recent, err := engine.Recent(ctx, 10)
	require.NoError(t, err)
	for _, n := range recent {
		assert.Equal(t, n.ID == a.ID, n.IsRead)
	}
	assert.Contains(t, []string{recent[0].ID, recent[1].ID}, b.ID)
}

func TestMarkReadUnknownLeavesRowsUnchanged(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(NewMemoryRepository(), logger.Nop())

	_, err := engine.Notify(ctx, signal("EURUSD", contracts.DirectionBuy, 90))
	require.NoError(t, err)
	before, err := engine.Recent(ctx, 10)
	require.NoError(t, err)

	_, err = engine.MarkRead(ctx, uuid.New().String())
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = engine.MarkRead(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	after, err := engine.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, &contracts.Notification{
			ID:        uuid.New().String(),
			Title:     "n",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(4*time.Second)))
	assert.True(t, recent[2].CreatedAt.Equal(base.Add(2*time.Second)))
}
