package s3_notify

import (
	"context"
	"sort"
	"sync"

	"github.com/wonny/fxpulse/internal/contracts"
)

// MemoryRepository is an in-process NotificationRepository
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []contracts.Notification
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert appends a notification
func (m *MemoryRepository) Insert(ctx context.Context, n *contracts.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *n)
	return nil
}

// MarkRead sets is_read on the row with id
func (m *MemoryRepository) MarkRead(ctx context.Context, id string) (*contracts.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].IsRead = true
			n := m.rows[i]
			return &n, nil
		}
	}
	return nil, contracts.ErrNotFound
}

// Recent returns the newest limit notifications
func (m *MemoryRepository) Recent(ctx context.Context, limit int) ([]contracts.Notification, error) {
	m.mu.RLock()
	out := make([]contracts.Notification, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		out = append(out, m.rows[i])
	}
	m.mu.RUnlock()

	// later inserts win created_at ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UnreadCount counts unread rows
func (m *MemoryRepository) UnreadCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, row := range m.rows {
		if !row.IsRead {
			n++
		}
	}
	return n, nil
}
