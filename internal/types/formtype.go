package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormType is a named category of inbound submission ("exhibitor contact",
// "sponsorship request", ...). Schema, when set, is the JSON schema that
// submitted payloads are validated against.
type FormType struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key       string         `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Active    bool           `gorm:"column:active;not null;default:true" json:"active"`
	Schema    datatypes.JSON `gorm:"type:jsonb;column:schema" json:"schema,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FormType) TableName() string { return "form_type" }
