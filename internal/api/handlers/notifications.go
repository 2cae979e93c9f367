package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/fxpulse/internal/realtime"
	"github.com/wonny/fxpulse/internal/s3_notify"
	"github.com/wonny/fxpulse/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationHandler serves the notification feed
type NotificationHandler struct {
	notifier *s3_notify.Engine
	hub      *realtime.Hub
	logger   *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier *s3_notify.Engine, hub *realtime.Hub, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		hub:      hub,
		logger:   log,
	}
}

// List returns the most recent notifications and the unread count
// GET /api/notifications?limit=N
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxNotificationLimit {
			n = maxNotificationLimit
		}
		limit = n
	}

	notifications, err := h.notifier.Recent(ctx, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list notifications")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}

	unread, err := h.notifier.UnreadCount(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count unread notifications")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
		"unread":        unread,
	})
}

// MarkRead acknowledges one notification and pushes the change to subscribers
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	n, err := h.notifier.MarkRead(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			respondError(w, status, "Notification not found")
			return
		}
		h.logger.WithError(err).WithField("id", id).Error("Failed to mark notification read")
		respondError(w, status, "Failed to update notification")
		return
	}

	if h.hub != nil {
		h.hub.PublishNotificationRead(*n)
	}

	respondJSON(w, http.StatusOK, n)
}
