// Package service implements the account lifecycle: registration, login,
// profile management, and the two small state machines of internal/quota.
package service

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/captcha"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/passkey"
	"github.com/imranali-mngmt/secureiduploader/internal/quota"
)

type Service struct {
	users    repo.UserStore
	passkeys repo.PasskeyStore

	jwtSecret    string
	jwtExpiresIn time.Duration

	webauthn *webauthn.WebAuthn
	sessions *passkey.SessionStore

	log *zap.Logger
}

func New(users repo.UserStore, jwtSecret string, jwtExpiresIn time.Duration, log *zap.Logger) *Service {
	return &Service{users: users, jwtSecret: jwtSecret, jwtExpiresIn: jwtExpiresIn, log: log}
}

// WithPasskeys enables the passwordless-login endpoints: passkeys is the
// credential store, and client is a *webauthn.WebAuthn already bound to
// the site's public RPID/origin (see internal/passkey.NewClient). A nil
// client leaves Register/Login untouched but makes every Begin/Finish
// passkey method return apperr.Internal, which is how a deployment
// without a configured public base URL degrades.
func (s *Service) WithPasskeys(passkeys repo.PasskeyStore, client *webauthn.WebAuthn) *Service {
	s.passkeys = passkeys
	s.webauthn = client
	s.sessions = passkey.NewSessionStore()
	return s
}

// normalizeEmail lowercases and trims an address so "A@X.com" and
// "a@x.com" resolve to the same account, per the unique-lowercased-email
// invariant.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserView(u *model.User) dto.UserView {
	return dto.UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		StorageUsed:  u.StorageUsed,
		StorageLimit: u.StorageLimit,
		CreatedAt:    u.CreatedAt,
	}
}

// Register creates a new account: it generates the user's file-encryption
// key before the row is ever persisted, so a partially-created account
// never exists without key material.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !captcha.Verify(req.CaptchaID, req.CaptchaAnswer) {
		return nil, apperr.Validation("captcha answer is incorrect or expired")
	}

	email := normalizeEmail(req.Email)

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation("password and confirmation do not match")
	}

	if existing, err := s.users.FindByUsername(ctx, req.Username); err != nil {
		return nil, apperr.Internal(err)
	} else if existing != nil {
		return nil, apperr.AlreadyExists("username is already taken")
	}
	if existing, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, apperr.Internal(err)
	} else if existing != nil {
		return nil, apperr.AlreadyExists("email is already registered")
	}

	fileKey, err := crypto.GenerateUserKey()
	if err != nil {
		return nil, err
	}
	fileKeySalt, err := crypto.RandomToken(32)
	if err != nil {
		return nil, err
	}
	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &model.User{
		Username:          req.Username,
		Email:             email,
		PasswordHash:      passwordHash,
		FileKey:           hex.EncodeToString(fileKey),
		FileKeySalt:       fileKeySalt,
		Role:              model.RoleUser,
		Active:            true,
		StorageLimit:      model.DefaultStorageLimit,
		PasswordChangedAt: now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, apperr.AlreadyExists("username or email is already registered")
		}
		return nil, apperr.Internal(err)
	}

	token, err := s.GenerateToken(u)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &dto.AuthResponse{User: toUserView(u), Token: token}, nil
}

// Captcha issues a fresh registration challenge.
func (s *Service) Captcha() (*dto.CaptchaResponse, error) {
	c, err := captcha.New()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &dto.CaptchaResponse{CaptchaID: c.ID, Image: c.Image}, nil
}

// Login authenticates a user, enforcing the account-lock state machine
// around the password check: a locked account rejects the attempt before
// the password is even compared, and a wrong password while unlocked
// advances the failure counter.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.AuthFailure("invalid email or password")
	}
	if !u.Active {
		return nil, apperr.Forbidden("account is deactivated")
	}

	now := time.Now()
	if err := quota.CheckLogin(u, now); err != nil {
		return nil, err
	}

	if !crypto.VerifyPassword(req.Password, u.PasswordHash) {
		quota.RecordLoginFailure(u, now)
		if saveErr := s.users.Save(ctx, u); saveErr != nil {
			s.log.Error("failed to persist login failure state", zap.Error(saveErr))
		}
		return nil, apperr.AuthFailure("invalid email or password")
	}

	quota.RecordLoginSuccess(u, now)
	if err := s.users.Save(ctx, u); err != nil {
		return nil, apperr.Internal(err)
	}

	token, err := s.GenerateToken(u)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &dto.AuthResponse{User: toUserView(u), Token: token}, nil
}

func (s *Service) Me(ctx context.Context, userID uint) (*dto.UserView, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	view := toUserView(u)
	return &view, nil
}

// UpdateProfile changes username and/or email. Either field may be
// omitted; both are re-validated and re-checked for uniqueness when set.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req dto.UpdateProfileRequest) (*dto.UserView, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	if req.Username != nil && *req.Username != u.Username {
		if err := validateUsername(*req.Username); err != nil {
			return nil, err
		}
		if existing, err := s.users.FindByUsername(ctx, *req.Username); err != nil {
			return nil, apperr.Internal(err)
		} else if existing != nil {
			return nil, apperr.AlreadyExists("username is already taken")
		}
		u.Username = *req.Username
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != u.Email {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			if existing, err := s.users.FindByEmail(ctx, email); err != nil {
				return nil, apperr.Internal(err)
			} else if existing != nil {
				return nil, apperr.AlreadyExists("email is already registered")
			}
			u.Email = email
		}
	}

	if err := s.users.Save(ctx, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, apperr.AlreadyExists("username or email is already registered")
		}
		return nil, apperr.Internal(err)
	}

	view := toUserView(u)
	return &view, nil
}

// UpdatePassword rotates the password hash and stamps PasswordChangedAt,
// which invalidates every bearer token issued before this moment — the
// file-encryption key itself is untouched, so existing files stay readable.
func (s *Service) UpdatePassword(ctx context.Context, userID uint, req dto.UpdatePasswordRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.NotFound("user not found")
	}
	if !crypto.VerifyPassword(req.CurrentPassword, u.PasswordHash) {
		return apperr.AuthFailure("current password is incorrect")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = time.Now()

	if err := s.users.Save(ctx, u); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DeleteAccount deactivates the account rather than destroying it: the
// user's files and metadata are retained (and keep counting against
// quota) so an administrator can still account for their storage.
func (s *Service) DeleteAccount(ctx context.Context, userID uint) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u == nil {
		return apperr.NotFound("user not found")
	}
	u.Active = false
	if err := s.users.Save(ctx, u); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) StorageStats(ctx context.Context, userID uint) (*dto.StorageResponse, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	var percent float64
	if u.StorageLimit > 0 {
		percent = float64(u.StorageUsed) / float64(u.StorageLimit) * 100
	}
	return &dto.StorageResponse{Used: u.StorageUsed, Limit: u.StorageLimit, Percent: percent}, nil
}

// UserKey decodes a user's hex-encoded file-encryption key for use by the
// files module; it never leaves this process unencoded.
func UserKey(u *model.User) ([]byte, error) {
	key, err := hex.DecodeString(u.FileKey)
	if err != nil {
		return nil, apperr.CryptoFailure(err)
	}
	return key, nil
}

// FindActiveUser loads a user by id for the JWT middleware's
// password-changed-at check, returning nil (not an error) when absent.
func (s *Service) FindActiveUser(ctx context.Context, userID uint) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}
