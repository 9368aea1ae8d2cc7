package model

import "time"

// PasskeyCredential is a WebAuthn credential bound to a user account. The
// serialized credential (signature count, flags, transports, COSE public
// key) lives in Credential as opaque JSON; only CredentialID is indexed
// for lookup during a login ceremony.
type PasskeyCredential struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	CredentialID string `gorm:"not null;uniqueIndex;size:255"`
	Credential   string `gorm:"type:text;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
}
