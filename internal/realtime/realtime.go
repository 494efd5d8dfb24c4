package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/logger"
)

type SSEEvent string

const (
	SSEEventSessionOpened       SSEEvent = "SessionOpened"
	SSEEventNotificationArrived SSEEvent = "NotificationArrived"
	SSEEventContactCreated      SSEEvent = "ContactCreated"
	SSEEventContactStageChanged SSEEvent = "ContactStageChanged"
)

// BoardChannel is the shared channel every connected admin listens on for
// contact/board updates. Notification fan-out uses per-session channels.
const BoardChannel = "board"

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}

// Insert-event categories the relay watches. These name the two raw
// submission tables, not notification kinds.
const (
	CategoryNewsletterSignup = "newsletter_signup"
	CategoryPreRegistration  = "pre_registration"
)

// InsertEvent is one row-inserted event published on the bus by the
// submission intake and consumed by the notification relay.
type InsertEvent struct {
	Category   string         `json:"category"`
	RecordID   uuid.UUID      `json:"record_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}
