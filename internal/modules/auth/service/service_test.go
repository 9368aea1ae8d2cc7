package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/captcha"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/testutils"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb := testutils.SetupDB(t)
	return New(repo.NewUserStore(gdb), "test-secret", time.Hour, zap.NewNop())
}

// withCaptcha solves a freshly issued challenge and attaches it to req, so
// tests can exercise Register without reimplementing image solving.
func withCaptcha(t *testing.T, req dto.RegisterRequest) dto.RegisterRequest {
	t.Helper()
	c, err := captcha.New()
	if err != nil {
		t.Fatalf("generate captcha: %v", err)
	}
	req.CaptchaID = c.ID
	req.CaptchaAnswer = c.Answer
	return req
}

func TestRegister_Succeeds(t *testing.T) {
	s := newTestService(t)
	resp, err := s.Register(context.Background(), withCaptcha(t, dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com",
		Password: "Passw0rd!", ConfirmPassword: "Passw0rd!",
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a non-empty token")
	}
	if resp.User.StorageLimit == 0 {
		t.Fatal("expected a nonzero default storage limit")
	}
}

func TestRegister_DuplicateEmailDifferentCaseRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	req := withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "Alice@Example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	resp, err := s.Register(ctx, req)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	if resp.User.Email != "alice@example.com" {
		t.Fatalf("expected stored email to be lowercased, got %q", resp.User.Email)
	}

	req2 := withCaptcha(t, dto.RegisterRequest{Username: "alice2", Email: "ALICE@EXAMPLE.COM", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	_, err = s.Register(ctx, req2)
	if err == nil {
		t.Fatal("expected a differently-cased duplicate email to be rejected")
	}
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}

	if _, err := s.Login(ctx, dto.LoginRequest{Email: "ALICE@Example.com", Password: "Passw0rd!"}); err != nil {
		t.Fatalf("expected login to be case-insensitive on email, got %v", err)
	}
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	req := withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	if _, err := s.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	req2 := withCaptcha(t, dto.RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	_, err := s.Register(ctx, req2)
	if err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

func TestRegister_MismatchedConfirmationRejected(t *testing.T) {
	s := newTestService(t)
	_, err := s.Register(context.Background(), withCaptcha(t, dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com",
		Password: "Passw0rd!", ConfirmPassword: "different1",
	}))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	s := newTestService(t)
	_, err := s.Register(context.Background(), withCaptcha(t, dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com",
		Password: "short", ConfirmPassword: "short",
	}))
	if err == nil {
		t.Fatal("expected validation error for weak password")
	}
}

func TestLogin_Succeeds(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	reg := withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	if _, err := s.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token")
	}
}

func TestLogin_WrongPasswordLocksAfterFiveAttempts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	reg := withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	if _, err := s.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "wrong"}); err == nil {
			t.Fatal("expected auth failure")
		}
	}

	_, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAccountLocked {
		t.Fatalf("expected AccountLocked on 5th failure, got %v", err)
	}

	_, err = s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"})
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAccountLocked {
		t.Fatalf("expected correct password to still be rejected while locked, got %v", err)
	}
}

func TestUpdatePassword_StampsPasswordChangedAt(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	reg := withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})
	resp, err := s.Register(ctx, reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := s.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := s.UpdatePassword(ctx, claims.ID, dto.UpdatePasswordRequest{CurrentPassword: "Passw0rd!", NewPassword: "Passw0rd2!"}); err != nil {
		t.Fatalf("update password: %v", err)
	}

	if _, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"}); err == nil {
		t.Fatal("expected old password to be rejected")
	}
	if _, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Passw0rd2!"}); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}
}

func TestUpdateProfile_DuplicateUsernameRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	if _, err := s.Register(ctx, withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"})); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := s.Register(ctx, withCaptcha(t, dto.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"}))
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	bobClaims, err := s.ParseToken(bob.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	taken := "alice"
	_, err = s.UpdateProfile(ctx, bobClaims.ID, dto.UpdateProfileRequest{Username: &taken})
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

func TestDeleteAccount_DeactivatesNotDestroys(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	resp, err := s.Register(ctx, withCaptcha(t, dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "Passw0rd!", ConfirmPassword: "Passw0rd!"}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	claims, err := s.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if err := s.DeleteAccount(ctx, claims.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	u, err := s.FindActiveUser(ctx, claims.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if u == nil {
		t.Fatal("expected user row to still exist after deactivation")
	}
	if u.Active {
		t.Fatal("expected account to be deactivated")
	}

	if _, err := s.Login(ctx, dto.LoginRequest{Email: "alice@example.com", Password: "Passw0rd!"}); err == nil {
		t.Fatal("expected login to be rejected for deactivated account")
	}
}
