package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/observability"
	"github.com/expohall/expoadmin-backend/internal/realtime"
	"github.com/expohall/expoadmin-backend/internal/realtime/bus"
)

type RelayState string

const (
	RelayDisconnected RelayState = "disconnected"
	RelayConnecting   RelayState = "connecting"
	RelaySubscribed   RelayState = "subscribed"
)

const (
	relayBaseBackoff = time.Second
	relayMaxBackoff  = 30 * time.Second
	// after this many consecutive failed subscribe attempts the relay
	// reports itself paused; it keeps retrying at the capped interval.
	relayPauseAfter = 5
)

// NotificationRelay consumes insert events from the bus, converts each into a
// Notification and delivers it to every open admin session's inbox plus the
// session's SSE channel. Events that occur while the subscription is down are
// not backfilled; there is no durable event log behind the bus.
type NotificationRelay struct {
	log *logger.Logger
	bus bus.Bus
	hub *realtime.SSEHub

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Inbox
	state    RelayState
	paused   bool
}

func NewNotificationRelay(baseLog *logger.Logger, b bus.Bus, hub *realtime.SSEHub) *NotificationRelay {
	return &NotificationRelay{
		log:      baseLog.With("service", "NotificationRelay"),
		bus:      b,
		hub:      hub,
		sessions: make(map[uuid.UUID]*Inbox),
		state:    RelayDisconnected,
	}
}

// OpenSession creates an empty inbox for one admin session. The returned id
// doubles as the session's SSE channel name.
func (r *NotificationRelay) OpenSession() (uuid.UUID, *Inbox) {
	id := uuid.New()
	inbox := NewInbox()

	r.mu.Lock()
	r.sessions[id] = inbox
	r.mu.Unlock()

	r.log.Debug("Notification session opened", "session_id", id)
	return id, inbox
}

// CloseSession drops the session's inbox. Called when the SSE stream detaches
// so nothing keeps accumulating for a gone client.
func (r *NotificationRelay) CloseSession(id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	r.log.Debug("Notification session closed", "session_id", id)
}

func (r *NotificationRelay) Session(id uuid.UUID) (*Inbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inbox, ok := r.sessions[id]
	return inbox, ok
}

func (r *NotificationRelay) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *NotificationRelay) State() RelayState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Paused reports whether subscribe retries have been exhausted; the admin
// surface renders this as a "notifications paused" indicator.
func (r *NotificationRelay) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// Run owns the subscription lifecycle: Disconnected → Connecting →
// Subscribed, resubscribing with capped exponential backoff whenever the
// transport drops. Returns when ctx is cancelled.
func (r *NotificationRelay) Run(ctx context.Context) error {
	if r.bus == nil {
		return fmt.Errorf("notification relay has no bus")
	}

	failures := 0
	for {
		if ctx.Err() != nil {
			r.setState(RelayDisconnected)
			return ctx.Err()
		}

		r.setState(RelayConnecting)
		ch, err := r.bus.Subscribe(ctx)
		if err != nil {
			failures++
			r.setState(RelayDisconnected)
			if failures >= relayPauseAfter {
				r.setPaused(true)
			}
			wait := backoff(failures)
			r.log.Warn("Subscribe failed, will retry", "error", err, "failures", failures, "retry_in", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		failures = 0
		r.setPaused(false)
		r.setState(RelaySubscribed)
		r.log.Info("Notification relay subscribed")

		for ev := range ch {
			r.Deliver(ev)
		}

		// Transport dropped; anything published during the gap is lost by
		// design, we only resubscribe.
		r.setState(RelayDisconnected)
		r.log.Warn("Subscription dropped, resubscribing")
	}
}

// Deliver converts one insert event and fans it out to every open session.
// Single writer: only the Run loop calls this in production.
func (r *NotificationRelay) Deliver(ev realtime.InsertEvent) {
	template, ok := notificationFromEvent(ev)
	if !ok {
		r.log.Warn("Dropping insert event with unknown category", "category", ev.Category)
		return
	}

	r.mu.RLock()
	targets := make(map[uuid.UUID]*Inbox, len(r.sessions))
	for id, inbox := range r.sessions {
		targets[id] = inbox
	}
	r.mu.RUnlock()

	for sessionID, inbox := range targets {
		n := template
		n.ID = uuid.New()
		inbox.Arrive(n)
		observability.NotificationsDeliveredTotal.WithLabelValues(string(n.Kind)).Inc()
		if r.hub != nil {
			r.hub.Broadcast(realtime.SSEMessage{
				Channel: sessionID.String(),
				Event:   realtime.SSEEventNotificationArrived,
				Data:    n,
			})
		}
	}
}

func (r *NotificationRelay) setState(s RelayState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	if s == RelaySubscribed {
		observability.RelaySubscribed.Set(1)
	} else {
		observability.RelaySubscribed.Set(0)
	}
}

func (r *NotificationRelay) setPaused(p bool) {
	r.mu.Lock()
	r.paused = p
	r.mu.Unlock()
}

func backoff(failures int) time.Duration {
	d := relayBaseBackoff << (failures - 1)
	if d > relayMaxBackoff || d <= 0 {
		return relayMaxBackoff
	}
	return d
}

// notificationFromEvent templates the uniform Notification out of a raw
// insert event. Each session gets its own freshly minted id.
func notificationFromEvent(ev realtime.InsertEvent) (Notification, bool) {
	created := ev.OccurredAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	n := Notification{
		ID:        uuid.New(),
		CreatedAt: created,
		Name:      stringField(ev.Data, "name"),
		Email:     stringField(ev.Data, "email"),
		StandCode: stringField(ev.Data, "stand_code"),
	}

	switch ev.Category {
	case realtime.CategoryNewsletterSignup:
		n.Kind = NotificationKindNewsletterSignup
		n.Title = "New newsletter signup"
		who := n.Email
		if who == "" {
			who = "Someone"
		}
		n.Description = fmt.Sprintf("%s subscribed to the newsletter", who)
	case realtime.CategoryPreRegistration:
		n.Kind = NotificationKindPreRegistration
		n.Title = "New pre-registration"
		who := n.Name
		if who == "" {
			who = "Someone"
		}
		if n.StandCode != "" {
			n.Description = fmt.Sprintf("%s pre-registered for stand %s", who, n.StandCode)
		} else {
			n.Description = fmt.Sprintf("%s pre-registered for the event", who)
		}
	default:
		return Notification{}, false
	}
	return n, true
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
