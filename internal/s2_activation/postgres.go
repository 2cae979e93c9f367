package s2_activation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fxpulse/internal/contracts"
)

// PostgresStore persists signals in trading_signals.
// The partial unique index trading_signals_one_active backs the one-active invariant.
// ⭐ SSOT: is_active is written here only
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const signalColumns = `
	id, symbol, signal_type, strength, confidence, pattern_detected,
	entry_price, stop_loss, take_profit, risk_reward_ratio, timeframe,
	analysis_data, is_active, created_at, expires_at`

// Activate deactivates the symbol's active signals and inserts sig in one transaction.
// Same-symbol writers serialize on a transaction-scoped advisory lock; other symbols never contend.
func (s *PostgresStore) Activate(ctx context.Context, sig *contracts.Signal) (*contracts.Signal, error) {
	committed := *sig
	if committed.ID == "" {
		committed.ID = uuid.New().String()
	}
	committed.IsActive = true

	analysisJSON, err := json.Marshal(committed.Analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, writeErr(sig.Symbol, fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, committed.Symbol); err != nil {
		return nil, writeErr(sig.Symbol, fmt.Errorf("lock symbol: %w", err))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE trading_signals
		SET is_active = FALSE
		WHERE symbol = $1 AND is_active
	`, committed.Symbol); err != nil {
		return nil, writeErr(sig.Symbol, fmt.Errorf("deactivate: %w", err))
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trading_signals (`+signalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13, $14)
	`,
		committed.ID,
		committed.Symbol,
		string(committed.Direction),
		committed.Strength,
		committed.Confidence,
		committed.Pattern(),
		committed.Price,
		committed.StopLoss,
		committed.TakeProfit,
		committed.RiskRewardRatio,
		committed.Timeframe,
		analysisJSON,
		committed.CreatedAt,
		committed.ExpiresAt,
	); err != nil {
		return nil, writeErr(sig.Symbol, fmt.Errorf("insert: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, writeErr(sig.Symbol, fmt.Errorf("commit: %w", err))
	}

	return &committed, nil
}

// ActiveSignals returns active signals ordered by created_at desc
func (s *PostgresStore) ActiveSignals(ctx context.Context) ([]contracts.Signal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+signalColumns+`
		FROM trading_signals
		WHERE is_active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query active signals: %w", err)
	}
	defer rows.Close()

	var out []contracts.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active signals: %w", err)
	}
	return out, nil
}

// ActiveSignal returns the symbol's active signal or ErrNotFound
func (s *PostgresStore) ActiveSignal(ctx context.Context, symbol string) (*contracts.Signal, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+signalColumns+`
		FROM trading_signals
		WHERE symbol = $1 AND is_active
	`, symbol)

	sig, err := scanSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	return sig, err
}

func scanSignal(row pgx.Row) (*contracts.Signal, error) {
	var sig contracts.Signal
	var direction, pattern string
	var analysisJSON []byte

	err := row.Scan(
		&sig.ID,
		&sig.Symbol,
		&direction,
		&sig.Strength,
		&sig.Confidence,
		&pattern,
		&sig.Price,
		&sig.StopLoss,
		&sig.TakeProfit,
		&sig.RiskRewardRatio,
		&sig.Timeframe,
		&analysisJSON,
		&sig.IsActive,
		&sig.CreatedAt,
		&sig.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan signal: %w", err)
	}

	sig.Direction = contracts.Direction(direction)
	sig.Patterns = splitPatterns(pattern)
	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &sig.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
	}
	return &sig, nil
}

func splitPatterns(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func writeErr(symbol string, err error) error {
	return &contracts.PersistenceWriteError{Op: "activate_signal", Symbol: symbol, Err: err}
}
