// Package quota implements the two small state machines of spec.md §4.4:
// the per-user storage counter and the failed-login account lock.
//
// Both operate purely over model.User in memory; the caller is
// responsible for persisting the mutated user afterward. This keeps the
// state machine testable without a database and lets both the auth module
// (login/lock) and the files module (upload quota) share one
// implementation of the rules.
package quota

import (
	"time"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
)

const (
	maxFailedLogins = 5
	lockDuration    = 2 * time.Hour
)

// CheckUpload verifies a batch's total size fits within the user's
// remaining quota. The check is per-request, not per-file: a batch either
// entirely fits or is refused before any byte is persisted.
func CheckUpload(u *model.User, batchTotalSize int64) error {
	if u.StorageUsed+batchTotalSize > u.StorageLimit {
		return apperr.QuotaExceeded("storage quota exceeded")
	}
	return nil
}

// Credit increases StorageUsed by size, after a successful upload commit.
func Credit(u *model.User, size int64) {
	u.StorageUsed += size
}

// Debit decreases StorageUsed by size, clamped at zero to tolerate drift,
// after a permanent delete or trash purge. Soft delete must never call
// this — trashed files still count against quota.
func Debit(u *model.User, size int64) {
	u.StorageUsed -= size
	if u.StorageUsed < 0 {
		u.StorageUsed = 0
	}
}

// RecordLoginSuccess transitions the account to unlocked and resets the
// failed-login counter.
func RecordLoginSuccess(u *model.User, now time.Time) {
	u.FailedLoginCount = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
}

// CheckLogin reports whether a login attempt may proceed at all. It must
// be called before verifying credentials: an attempt made while locked is
// rejected without being allowed to increment (or reset) the counter.
func CheckLogin(u *model.User, now time.Time) error {
	if u.IsLocked(now) {
		return apperr.AccountLocked("account is temporarily locked due to too many failed login attempts")
	}
	return nil
}

// RecordLoginFailure increments the failed-login counter, locking the
// account for lockDuration once it reaches maxFailedLogins. An attempt
// whose previous LockedUntil has already elapsed resets the counter to 1
// rather than continuing to accumulate from a stale streak.
func RecordLoginFailure(u *model.User, now time.Time) {
	if u.LockedUntil != nil && !u.LockedUntil.After(now) {
		u.FailedLoginCount = 0
		u.LockedUntil = nil
	}

	u.FailedLoginCount++
	if u.FailedLoginCount >= maxFailedLogins {
		until := now.Add(lockDuration)
		u.LockedUntil = &until
	}
}
