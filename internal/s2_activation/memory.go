package s2_activation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wonny/fxpulse/internal/contracts"
)

// MemoryStore is an in-process SignalStore.
// Same-symbol writers serialize on a per-symbol lock; the active map swap happens
// under one short write lock so readers never see a symbol with zero or two actives.
type MemoryStore struct {
	symbolLocks sync.Map // symbol -> *sync.Mutex

	mu      sync.RWMutex
	active  map[string]contracts.Signal
	history []contracts.Signal

	// beforeSwap runs while the symbol lock is held; tests use it to widen race windows
	beforeSwap func(symbol string)
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{active: make(map[string]contracts.Signal)}
}

func (m *MemoryStore) lockFor(symbol string) *sync.Mutex {
	l, _ := m.symbolLocks.LoadOrStore(symbol, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Activate replaces the symbol's active signal with sig
func (m *MemoryStore) Activate(ctx context.Context, sig *contracts.Signal) (*contracts.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, writeErr(sig.Symbol, err)
	}

	l := m.lockFor(sig.Symbol)
	l.Lock()
	defer l.Unlock()

	committed := *sig
	if committed.ID == "" {
		committed.ID = uuid.New().String()
	}
	committed.IsActive = true
	committed.Patterns = append([]string(nil), sig.Patterns...)

	if m.beforeSwap != nil {
		m.beforeSwap(sig.Symbol)
	}

	m.mu.Lock()
	for i := range m.history {
		if m.history[i].Symbol == committed.Symbol && m.history[i].IsActive {
			m.history[i].IsActive = false
		}
	}
	m.history = append(m.history, committed)
	m.active[committed.Symbol] = committed
	m.mu.Unlock()

	return &committed, nil
}

// ActiveSignals returns active signals ordered by created_at desc
func (m *MemoryStore) ActiveSignals(ctx context.Context) ([]contracts.Signal, error) {
	m.mu.RLock()
	out := make([]contracts.Signal, 0, len(m.active))
	for _, s := range m.active {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ActiveSignal returns the symbol's active signal or ErrNotFound
func (m *MemoryStore) ActiveSignal(ctx context.Context, symbol string) (*contracts.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.active[symbol]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &s, nil
}

// CountActive counts rows flagged active for symbol across the full history
func (m *MemoryStore) CountActive(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.history {
		if s.Symbol == symbol && s.IsActive {
			n++
		}
	}
	return n
}

// History returns every signal ever inserted for symbol, oldest first
func (m *MemoryStore) History(symbol string) []contracts.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contracts.Signal
	for _, s := range m.history {
		if s.Symbol == symbol {
			out = append(out, s)
		}
	}
	return out
}
