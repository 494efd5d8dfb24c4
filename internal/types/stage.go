package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage is one step of a pipeline. The set of active stage Order values for a
// pipeline is always {1..N}, no duplicates, no gaps.
type Stage struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PipelineID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"pipeline_id"`
	Pipeline    *Pipeline      `gorm:"constraint:OnDelete:CASCADE;foreignKey:PipelineID;references:ID" json:"pipeline,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Color       string         `gorm:"column:color" json:"color"`
	Order       int            `gorm:"column:stage_order;not null" json:"order"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Stage) TableName() string { return "stage" }
