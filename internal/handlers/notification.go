package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/services"
)

// NotificationHandler serves one session's in-memory inbox. The session id
// comes from the X-Session-Id header (or session_id query), handed to the
// client in the SessionOpened event when its SSE stream attaches.
type NotificationHandler struct {
	log   *logger.Logger
	relay *services.NotificationRelay
}

func NewNotificationHandler(baseLog *logger.Logger, relay *services.NotificationRelay) *NotificationHandler {
	return &NotificationHandler{
		log:   baseLog.With("handler", "NotificationHandler"),
		relay: relay,
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	inbox, ok := h.sessionInbox(c)
	if !ok {
		return
	}
	RespondOK(c, http.StatusOK, gin.H{
		"notifications": inbox.Snapshot(),
		"unread_count":  inbox.UnreadCount(),
	})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	inbox, ok := h.sessionInbox(c)
	if !ok {
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"unread_count": inbox.UnreadCount()})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	inbox, ok := h.sessionInbox(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if !inbox.MarkRead(id) {
		RespondError(c, http.StatusNotFound, "not_found", "notification "+id.String()+" not found")
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"unread_count": inbox.UnreadCount()})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	inbox, ok := h.sessionInbox(c)
	if !ok {
		return
	}
	inbox.MarkAllRead()
	RespondOK(c, http.StatusOK, gin.H{"unread_count": 0})
}

func (h *NotificationHandler) Remove(c *gin.Context) {
	inbox, ok := h.sessionInbox(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if !inbox.Remove(id) {
		RespondError(c, http.StatusNotFound, "not_found", "notification "+id.String()+" not found")
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"unread_count": inbox.UnreadCount()})
}

// Status reports the relay's subscription state so the admin surface can show
// a "notifications paused" indicator.
func (h *NotificationHandler) Status(c *gin.Context) {
	RespondOK(c, http.StatusOK, gin.H{
		"state":  h.relay.State(),
		"paused": h.relay.Paused(),
	})
}

func (h *NotificationHandler) sessionInbox(c *gin.Context) (*services.Inbox, bool) {
	raw := c.GetHeader("X-Session-Id")
	if raw == "" {
		raw = c.Query("session_id")
	}
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "validation", "missing X-Session-Id header")
		return nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", "invalid session id")
		return nil, false
	}
	inbox, ok := h.relay.Session(id)
	if !ok {
		RespondError(c, http.StatusNotFound, "not_found", "session "+id.String()+" not found")
		return nil, false
	}
	return inbox, true
}
