package s3_notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fxpulse/internal/contracts"
)

// Repository stores notifications in PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const notificationColumns = `id, title, message, type, COALESCE(symbol, ''), priority, is_read, data, created_at`

// Insert saves a notification
func (r *Repository) Insert(ctx context.Context, n *contracts.Notification) error {
	dataJSON, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	var symbol interface{}
	if n.Symbol != "" {
		symbol = n.Symbol
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO notifications (id, title, message, type, symbol, priority, is_read, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.Title, n.Message, n.Type, symbol, n.Priority, n.IsRead, dataJSON, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkRead sets is_read on one row
func (r *Repository) MarkRead(ctx context.Context, id string) (*contracts.Notification, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1
		RETURNING `+notificationColumns, id)

	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, &contracts.PersistenceWriteError{Op: "mark_read", Err: err}
	}
	return n, nil
}

// Recent returns the newest limit notifications
func (r *Repository) Recent(ctx context.Context, limit int) ([]contracts.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

// UnreadCount counts unread rows
func (r *Repository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*contracts.Notification, error) {
	var n contracts.Notification
	var dataJSON []byte

	if err := row.Scan(
		&n.ID, &n.Title, &n.Message, &n.Type, &n.Symbol,
		&n.Priority, &n.IsRead, &dataJSON, &n.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return &n, nil
}
