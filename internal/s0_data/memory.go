package s0_data

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/fxpulse/internal/contracts"
)

// MemoryInstrumentRepository is an in-process InstrumentRepository
type MemoryInstrumentRepository struct {
	mu   sync.RWMutex
	rows map[string]contracts.Instrument
}

// NewMemoryInstrumentRepository creates an empty repository
func NewMemoryInstrumentRepository() *MemoryInstrumentRepository {
	return &MemoryInstrumentRepository{rows: make(map[string]contracts.Instrument)}
}

// EnsureCatalog inserts missing symbols and refreshes names
func (m *MemoryInstrumentRepository) EnsureCatalog(ctx context.Context, instruments []contracts.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, inst := range instruments {
		row, ok := m.rows[inst.Symbol]
		if !ok {
			row = contracts.Instrument{Symbol: inst.Symbol}
		}
		row.Name = inst.Name
		if inst.Spread != nil {
			row.Spread = inst.Spread
		}
		m.rows[inst.Symbol] = row
	}
	return nil
}

// ApplyQuote updates price fields of an existing symbol
func (m *MemoryInstrumentRepository) ApplyQuote(ctx context.Context, inst contracts.Instrument) (*contracts.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &contracts.PersistenceWriteError{Op: "update_instrument", Symbol: inst.Symbol, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[inst.Symbol]
	if !ok {
		return nil, &contracts.PersistenceWriteError{Op: "update_instrument", Symbol: inst.Symbol, Err: contracts.ErrNotFound}
	}
	row.Price = inst.Price
	row.Change = inst.Change
	row.ChangePercent = inst.ChangePercent
	row.Bid = inst.Bid
	row.Ask = inst.Ask
	if inst.Spread != nil {
		row.Spread = inst.Spread
	}
	row.UpdatedAt = inst.UpdatedAt
	m.rows[inst.Symbol] = row

	return &row, nil
}

// List returns instruments ordered by symbol
func (m *MemoryInstrumentRepository) List(ctx context.Context) ([]contracts.Instrument, error) {
	m.mu.RLock()
	out := make([]contracts.Instrument, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// MemoryAnalysisRepository keeps analysis snapshots in process
type MemoryAnalysisRepository struct {
	mu   sync.Mutex
	rows []contracts.AnalysisSnapshot
}

// NewMemoryAnalysisRepository creates an empty repository
func NewMemoryAnalysisRepository() *MemoryAnalysisRepository {
	return &MemoryAnalysisRepository{}
}

// Insert appends one snapshot
func (m *MemoryAnalysisRepository) Insert(ctx context.Context, a *contracts.AnalysisSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *a)
	return nil
}

// Len returns the number of stored snapshots
func (m *MemoryAnalysisRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
