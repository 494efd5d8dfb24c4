package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pipeline is an ordered workflow bound to exactly one form type. At most one
// active pipeline may exist per form type.
type Pipeline struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FormTypeID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"form_type_id"`
	FormType    *FormType      `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormTypeID;references:ID" json:"form_type,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pipeline) TableName() string { return "pipeline" }
