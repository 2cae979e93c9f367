package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fxpulse/internal/contracts"
)

// InstrumentRepository implements contracts.InstrumentRepository
// ⭐ SSOT: instrument rows are written here only
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

// EnsureCatalog upserts symbol and name, leaving price fields untouched
func (r *InstrumentRepository) EnsureCatalog(ctx context.Context, instruments []contracts.Instrument) error {
	batch := &pgx.Batch{}
	for _, inst := range instruments {
		batch.Queue(`
			INSERT INTO instruments (id, symbol, name, spread)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (symbol) DO UPDATE SET
				name = EXCLUDED.name,
				spread = EXCLUDED.spread
		`, uuid.New().String(), inst.Symbol, inst.Name, inst.Spread)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for _, inst := range instruments {
		if _, err := results.Exec(); err != nil {
			return &contracts.PersistenceWriteError{Op: "ensure_catalog", Symbol: inst.Symbol, Err: err}
		}
	}
	return nil
}

// ApplyQuote writes the latest price fields for an existing symbol
func (r *InstrumentRepository) ApplyQuote(ctx context.Context, inst contracts.Instrument) (*contracts.Instrument, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE instruments SET
			price = $2,
			change_value = $3,
			change_percent = $4,
			bid = $5,
			ask = $6,
			spread = COALESCE($7, spread),
			last_updated = $8
		WHERE symbol = $1
		RETURNING symbol, name, price, change_value, change_percent, bid, ask, spread, last_updated
	`, inst.Symbol, inst.Price, inst.Change, inst.ChangePercent, inst.Bid, inst.Ask, inst.Spread, inst.UpdatedAt)

	out, err := scanInstrument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &contracts.PersistenceWriteError{Op: "update_instrument", Symbol: inst.Symbol, Err: contracts.ErrNotFound}
	}
	if err != nil {
		return nil, &contracts.PersistenceWriteError{Op: "update_instrument", Symbol: inst.Symbol, Err: err}
	}
	return out, nil
}

// List returns every instrument ordered by symbol
func (r *InstrumentRepository) List(ctx context.Context) ([]contracts.Instrument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, name, price, change_value, change_percent, bid, ask, spread, last_updated
		FROM instruments
		ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var out []contracts.Instrument
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func scanInstrument(row pgx.Row) (*contracts.Instrument, error) {
	var inst contracts.Instrument
	err := row.Scan(
		&inst.Symbol, &inst.Name, &inst.Price, &inst.Change, &inst.ChangePercent,
		&inst.Bid, &inst.Ask, &inst.Spread, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
