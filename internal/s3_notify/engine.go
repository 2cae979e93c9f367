package s3_notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fxpulse/internal/contracts"
	"github.com/wonny/fxpulse/pkg/logger"
)

// Thresholds
const (
	StrengthThreshold = 80
	UrgentStrength    = 90

	PriorityUrgent = 5
	PriorityHigh   = 4
)

// Engine creates notifications for strong signals and owns acknowledgment
// ⭐ SSOT: notification rules live here only
type Engine struct {
	repo   contracts.NotificationRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewEngine creates a new notification engine
func NewEngine(repo contracts.NotificationRepository, log *logger.Logger) *Engine {
	return &Engine{
		repo:   repo,
		logger: log.Module("notify"),
		now:    time.Now,
	}
}

// Build returns the notification for sig, or nil when sig is below the threshold
func Build(sig *contracts.Signal, now time.Time) *contracts.Notification {
	if sig.Strength < StrengthThreshold {
		return nil
	}

	priority := PriorityHigh
	if sig.Strength >= UrgentStrength {
		priority = PriorityUrgent
	}

	return &contracts.Notification{
		ID:        uuid.New().String(),
		Title:     fmt.Sprintf("Strong %s Signal", sig.Direction),
		Message:   fmt.Sprintf("%s showing %d%% confidence %s signal", sig.Symbol, sig.Strength, sig.Direction),
		Type:      contracts.NotificationSignal,
		Symbol:    sig.Symbol,
		Priority:  priority,
		CreatedAt: now,
		Data: map[string]interface{}{
			"signal_id":   sig.ID,
			"signal_type": string(sig.Direction),
			"strength":    sig.Strength,
			"pattern":     sig.Pattern(),
		},
	}
}

// Notify persists a notification for a just-activated signal.
// Returns (nil, nil) when the signal does not cross the threshold.
func (e *Engine) Notify(ctx context.Context, sig *contracts.Signal) (*contracts.Notification, error) {
	n := Build(sig, e.now())
	if n == nil {
		return nil, nil
	}

	if err := e.repo.Insert(ctx, n); err != nil {
		return nil, &contracts.PersistenceWriteError{Op: "insert_notification", Symbol: sig.Symbol, Err: err}
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":   sig.Symbol,
		"strength": sig.Strength,
		"priority": n.Priority,
	}).Info("Notification created")

	return n, nil
}

// MarkRead acknowledges a notification. Unknown ids return ErrNotFound.
func (e *Engine) MarkRead(ctx context.Context, id string) (*contracts.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, contracts.ErrNotFound
	}
	return e.repo.MarkRead(ctx, id)
}

// Recent returns the newest notifications
func (e *Engine) Recent(ctx context.Context, limit int) ([]contracts.Notification, error) {
	return e.repo.Recent(ctx, limit)
}

// UnreadCount returns the number of unread notifications
func (e *Engine) UnreadCount(ctx context.Context) (int, error) {
	return e.repo.UnreadCount(ctx)
}
