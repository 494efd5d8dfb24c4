package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindNewsletterSignup NotificationKind = "newsletter-signup"
	NotificationKindPreRegistration  NotificationKind = "pre-registration"
)

// Notification is the transient, in-memory representation of one realtime
// event. Its id is locally generated, not the underlying record's id; nothing
// here is ever persisted, so a reload starts from an empty inbox.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
	Name        string           `json:"name,omitempty"`
	Email       string           `json:"email,omitempty"`
	StandCode   string           `json:"stand_code,omitempty"`
}

// Inbox is the single owner of one session's notification list and unread
// counter. All increments and decrements happen behind its mutex; the counter
// always equals the number of unread items and never goes negative.
type Inbox struct {
	mu     sync.Mutex
	items  []Notification
	unread int
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Arrive prepends the notification (most recent first) and bumps the counter.
func (b *Inbox) Arrive(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append([]Notification{n}, b.items...)
	if !n.Read {
		b.unread++
	}
}

// MarkRead marks one notification read. Idempotent: marking an already-read
// notification is a no-op and the counter is untouched.
func (b *Inbox) MarkRead(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		if !b.items[i].Read {
			b.items[i].Read = true
			b.unread--
		}
		return true
	}
	return false
}

// MarkAllRead flips every notification read and zeroes the counter as one
// step under the lock.
func (b *Inbox) MarkAllRead() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		b.items[i].Read = true
	}
	b.unread = 0
}

// Remove deletes the notification; if it was unread the counter drops with it.
func (b *Inbox) Remove(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		if !b.items[i].Read {
			b.unread--
		}
		b.items = append(b.items[:i], b.items[i+1:]...)
		return true
	}
	return false
}

// Snapshot returns a copy of the list, most recent first.
func (b *Inbox) Snapshot() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Inbox) UnreadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}

func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
