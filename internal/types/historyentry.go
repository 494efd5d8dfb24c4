package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type HistoryKind string

const (
	HistoryKindCreated         HistoryKind = "created"
	HistoryKindStageChanged    HistoryKind = "stage_changed"
	HistoryKindStatusChanged   HistoryKind = "status_changed"
	HistoryKindPriorityChanged HistoryKind = "priority_changed"
	HistoryKindNoteAdded       HistoryKind = "note_added"
)

// HistoryEntry is one append-only audit record against a contact. Entries are
// never updated or deleted; there is no soft-delete column on purpose.
type HistoryEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContactID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"contact_id"`
	Contact     *Contact       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContactID;references:ID" json:"contact,omitempty"`
	Kind        HistoryKind    `gorm:"column:kind;not null;index" json:"kind"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Before      datatypes.JSON `gorm:"type:jsonb;column:before" json:"before,omitempty"`
	After       datatypes.JSON `gorm:"type:jsonb;column:after" json:"after,omitempty"`
	ActorID     *uuid.UUID     `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (HistoryEntry) TableName() string { return "history_entry" }
