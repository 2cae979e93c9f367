package contracts

import "time"

// Notification types
const (
	NotificationSignal  = "signal"
	NotificationAlert   = "alert"
	NotificationInfo    = "info"
	NotificationWarning = "warning"
)

// Notification is created by the notify engine; only IsRead is ever mutated
type Notification struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      string                 `json:"type"`
	Symbol    string                 `json:"symbol,omitempty"`
	Priority  int                    `json:"priority"` // 1 ~ 5
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data"`
}
