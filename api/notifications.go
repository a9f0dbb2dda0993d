package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/garnizeh/mentorhub/internal/mentorship"
	"github.com/garnizeh/mentorhub/internal/notify"
	"github.com/garnizeh/mentorhub/pkg/models"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationsHandler struct {
	svc       *mentorship.Service
	hub       *notify.Hub
	heartbeat time.Duration
}

func NewNotificationsHandler(svc *mentorship.Service, hub *notify.Hub, heartbeat time.Duration) *NotificationsHandler {
	return &NotificationsHandler{svc: svc, hub: hub, heartbeat: heartbeat}
}

type notificationsResponse struct {
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Items  []models.Notification `json:"items"`
}

// List returns a page of the caller's notification history, newest first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	limit, offset := defaultNotificationLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxNotificationLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	items, total, err := h.svc.Notifications(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, notificationsResponse{Total: total, Limit: limit, Offset: offset, Items: items}, http.StatusOK)
}

// Stream holds an SSE connection open for the caller until it disconnects
// or the hub shuts down.
func (h *NotificationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	logger.Debug("sse: client connected", slog.Int64("user_id", userID))
	if err := notify.Serve(w, r, h.hub, userID, h.heartbeat); err != nil {
		logger.Debug("sse: stream ended", slog.Int64("user_id", userID), slog.Any("err", err))
	}
}
