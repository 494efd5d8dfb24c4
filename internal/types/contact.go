package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ContactStatusNew        = "new"
	ContactStatusInProgress = "in-progress"
	ContactStatusDone       = "done"

	ContactPriorityLow    = "low"
	ContactPriorityNormal = "normal"
	ContactPriorityHigh   = "high"
)

// Contact is one inbound submission. Payload carries the field values as
// submitted; StageID is nil while the contact is unassigned.
type Contact struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormTypeID *uuid.UUID     `gorm:"type:uuid;index" json:"form_type_id,omitempty"`
	FormType   *FormType      `gorm:"constraint:OnDelete:SET NULL;foreignKey:FormTypeID;references:ID" json:"form_type,omitempty"`
	StageID    *uuid.UUID     `gorm:"type:uuid;index" json:"stage_id,omitempty"`
	Stage      *Stage         `gorm:"constraint:OnDelete:SET NULL;foreignKey:StageID;references:ID" json:"stage,omitempty"`
	Payload    datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	Status     string         `gorm:"column:status;not null;default:'new';index" json:"status"`
	Priority   string         `gorm:"column:priority;not null;default:'normal'" json:"priority"`
	Source     string         `gorm:"column:source" json:"source"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Contact) TableName() string { return "contact" }
