package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewsletterSignup is a raw newsletter submission row. Inserts on this table
// are what the notification relay watches.
type NewsletterSignup struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"column:email;not null;index" json:"email"`
	Name      string         `gorm:"column:name" json:"name"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (NewsletterSignup) TableName() string { return "newsletter_signup" }

// PreRegistration is a raw event pre-registration row, the second watched
// category.
type PreRegistration struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Email     string         `gorm:"column:email;not null;index" json:"email"`
	Company   string         `gorm:"column:company" json:"company"`
	StandCode string         `gorm:"column:stand_code" json:"stand_code"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PreRegistration) TableName() string { return "pre_registration" }
