package s0_data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fxpulse/internal/contracts"
)

// AnalysisRepository appends rows to market_analysis
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// Insert appends one snapshot
func (r *AnalysisRepository) Insert(ctx context.Context, a *contracts.AnalysisSnapshot) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	dataJSON, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO market_analysis (id, symbol, timeframe, analysis_type, data, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.Symbol, a.Timeframe, a.AnalysisType, dataJSON, a.Confidence, a.CreatedAt)
	if err != nil {
		return &contracts.PersistenceWriteError{Op: "insert_analysis", Symbol: a.Symbol, Err: err}
	}
	return nil
}
