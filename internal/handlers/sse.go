package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/realtime"
	"github.com/expohall/expoadmin-backend/internal/requestdata"
	"github.com/expohall/expoadmin-backend/internal/services"
)

type SSEHandler struct {
	log   *logger.Logger
	hub   *realtime.SSEHub
	relay *services.NotificationRelay
}

func NewSSEHandler(baseLog *logger.Logger, hub *realtime.SSEHub, relay *services.NotificationRelay) *SSEHandler {
	return &SSEHandler{
		log:   baseLog.With("handler", "SSEHandler"),
		hub:   hub,
		relay: relay,
	}
}

// Stream is the single SSE endpoint per admin tab. It opens a fresh
// notification session (empty inbox), subscribes the client to its session
// channel plus the shared board channel, and announces the session id as the
// first event so the client can address the notification endpoints.
func (h *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", "missing request identity")
		return
	}

	sessionID, _ := h.relay.OpenSession()
	client := h.hub.NewSSEClient(rd.UserID)
	h.hub.AddChannel(client, sessionID.String())
	h.hub.AddChannel(client, realtime.BoardChannel)

	defer func() {
		h.hub.CloseClient(client)
		h.relay.CloseSession(sessionID)
	}()

	// Queued before the write loop starts; buffer is never full here.
	client.Outbound <- realtime.SSEMessage{
		Channel: sessionID.String(),
		Event:   realtime.SSEEventSessionOpened,
		Data: map[string]any{
			"session_id": sessionID,
			"state":      h.relay.State(),
			"paused":     h.relay.Paused(),
		},
	}

	h.log.Debug("SSE stream attached", "user_id", rd.UserID, "session_id", sessionID)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
