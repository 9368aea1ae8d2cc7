package quota

import (
	"testing"
	"time"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
)

func TestCheckUpload_Cliff(t *testing.T) {
	u := &model.User{StorageLimit: 1 << 20, StorageUsed: 900 * 1024}

	if err := CheckUpload(u, 200*1024); err == nil {
		t.Fatal("expected quota exceeded error")
	} else if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeQuotaExceeded {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}
	if u.StorageUsed != 900*1024 {
		t.Fatalf("used storage must stay unchanged on rejection, got %d", u.StorageUsed)
	}
}

func TestCreditAndDebit(t *testing.T) {
	u := &model.User{StorageLimit: 1 << 20}

	Credit(u, 1024)
	if u.StorageUsed != 1024 {
		t.Fatalf("expected used=1024, got %d", u.StorageUsed)
	}

	Debit(u, 1024)
	if u.StorageUsed != 0 {
		t.Fatalf("expected used=0 after debit, got %d", u.StorageUsed)
	}
}

func TestDebit_ClampsAtZero(t *testing.T) {
	u := &model.User{StorageUsed: 100}
	Debit(u, 500)
	if u.StorageUsed != 0 {
		t.Fatalf("expected clamp to 0, got %d", u.StorageUsed)
	}
}

func TestAccountLock_FiveStrikesLocks(t *testing.T) {
	u := &model.User{}
	now := time.Now()

	for i := 0; i < 4; i++ {
		RecordLoginFailure(u, now)
		if u.IsLocked(now) {
			t.Fatalf("should not be locked after %d failures", i+1)
		}
	}

	RecordLoginFailure(u, now)
	if !u.IsLocked(now) {
		t.Fatal("expected account to be locked after 5 failures")
	}
}

func TestAccountLock_AttemptWhileLockedDoesNotAdvanceCounter(t *testing.T) {
	u := &model.User{}
	now := time.Now()
	for i := 0; i < 5; i++ {
		RecordLoginFailure(u, now)
	}
	lockedCount := u.FailedLoginCount

	if err := CheckLogin(u, now); err == nil {
		t.Fatal("expected AccountLocked while locked")
	} else if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAccountLocked {
		t.Fatalf("expected AccountLocked, got %v", err)
	}
	if u.FailedLoginCount != lockedCount {
		t.Fatalf("counter must not advance while checking a locked account, got %d want %d", u.FailedLoginCount, lockedCount)
	}
}

func TestAccountLock_ResetsAfterWindowElapses(t *testing.T) {
	u := &model.User{}
	now := time.Now()
	for i := 0; i < 5; i++ {
		RecordLoginFailure(u, now)
	}

	later := now.Add(3 * time.Hour)
	if err := CheckLogin(u, later); err != nil {
		t.Fatalf("expected lock to have expired, got %v", err)
	}

	RecordLoginFailure(u, later)
	if u.FailedLoginCount != 1 {
		t.Fatalf("expected counter to reset to 1 after lock window elapses, got %d", u.FailedLoginCount)
	}
}

func TestAccountLock_SuccessResetsCounter(t *testing.T) {
	u := &model.User{}
	now := time.Now()
	RecordLoginFailure(u, now)
	RecordLoginFailure(u, now)

	RecordLoginSuccess(u, now)
	if u.FailedLoginCount != 0 || u.IsLocked(now) {
		t.Fatal("expected login success to fully reset lock state")
	}
}
