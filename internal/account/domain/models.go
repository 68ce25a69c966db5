// Package domain contains persistence models for subscriber accounts.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Account mirrors the profile supplied by the external auth provider. The
// billing core trusts it as ground truth; it does not manage identity.
type Account struct {
	UserID         string            `gorm:"primaryKey;type:text" json:"user_id"`
	Tier           string            `gorm:"type:text;not null" json:"tier"`
	SignupAt       time.Time         `gorm:"not null" json:"signup_at"`
	LinkedAccounts int               `gorm:"not null;default:0" json:"linked_accounts"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
