package model

import "time"

// Role distinguishes admin accounts, which (per the spec) are otherwise
// ordinary vault users.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultStorageLimit is the per-user storage quota granted at registration.
const DefaultStorageLimit = 1 << 30 // 1 GiB

// User is the vault account record. FileKey/FileKeySalt are
// storage-private: read queries that return a User to a client must strip
// them, along with PasswordHash.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:30;not null"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"not null"`

	// FileKey is the user's long-lived 32-byte file-encryption key,
	// hex-encoded. FileKeySalt is retained only for symmetry with the
	// container format; the key itself never changes under normal
	// operation (see internal/crypto).
	FileKey     string `gorm:"not null"`
	FileKeySalt string `gorm:"not null"`

	Role   Role `gorm:"size:10;not null;default:user"`
	Active bool `gorm:"not null;default:true"`

	StorageUsed  int64 `gorm:"not null;default:0"`
	StorageLimit int64 `gorm:"not null;default:1073741824"`

	FailedLoginCount int        `gorm:"not null;default:0"`
	LockedUntil      *time.Time
	LastLoginAt      *time.Time
	PasswordChangedAt time.Time `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether the account currently rejects login attempts.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
