package models

import "time"

// Account stores one authorized OAuth identity and its token pair. It is
// the unit of rotation for the gateway.
type Account struct {
	ID          string `gorm:"primaryKey"` // UUID, immutable
	Email       string `gorm:"uniqueIndex"`
	DisplayName string

	AccessToken  string
	RefreshToken string
	TokenType    string // always "Bearer"
	// ExpiresAt is epoch seconds, computed once at issue time as
	// now + the server-declared lifetime. Nothing else recomputes it.
	ExpiresAt int64

	// ProjectID caches the cloud project associated with the account,
	// when known.
	ProjectID string

	// Disabled accounts are excluded from rotation.
	Disabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
