package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is the persisted admin session record. Only the identity blob
// and the two backend tokens survive a restart; reset-flow scratch state
// lives in memory beside it.
type Session struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key          string         `gorm:"type:text;not null;uniqueIndex"` // Opaque session key carried in the console JWT.
	Identity     datatypes.JSON `gorm:"type:jsonb;not null"`            // Admin identity as returned by login.
	AccessToken  string         `gorm:"type:text;not null"`             // Backend bearer token.
	RefreshToken string         `gorm:"type:text"`                      // Backend refresh token.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
