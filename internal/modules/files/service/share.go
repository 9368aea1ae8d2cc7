package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
)

const (
	shareTokenBytes      = 32
	defaultShareDays     = 7
	secondsPerDay  int64 = 86400
)

// ShareCreate generates a fresh token on the file, replacing any existing
// share and resetting its download count to zero.
func (s *Service) ShareCreate(ctx context.Context, userID, fileID uint, req dto.ShareCreateRequest) (*dto.ShareResponse, error) {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("file not found")
	}

	token, err := crypto.RandomToken(shareTokenBytes)
	if err != nil {
		return nil, err
	}

	days := defaultShareDays
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		days = *req.ExpiresIn
	}
	expiresAt := time.Now().Add(time.Duration(days) * time.Duration(secondsPerDay) * time.Second)

	var passwordHash string
	if req.Password != "" {
		passwordHash, err = crypto.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
	}

	f.Share = model.Share{
		Token:         token,
		ExpiresAt:     &expiresAt,
		MaxDownloads:  req.MaxDownloads,
		PasswordHash:  passwordHash,
		DownloadCount: 0,
	}
	appendAccess(f, model.AccessShare, "", "")

	if err := s.files.Save(ctx, f); err != nil {
		return nil, apperr.Internal(err)
	}

	return &dto.ShareResponse{
		ShareURL:     s.shareBaseURL + "/" + token,
		ShareToken:   token,
		ExpiresAt:    f.Share.ExpiresAt,
		MaxDownloads: f.Share.MaxDownloads,
		HasPassword:  passwordHash != "",
	}, nil
}

// ShareRevoke atomically clears every share field on the file.
func (s *Service) ShareRevoke(ctx context.Context, userID, fileID uint) error {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if f == nil {
		return apperr.NotFound("file not found")
	}

	f.ClearShare()
	if err := s.files.Save(ctx, f); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ErrRequiresPassword signals the two-step share handshake: the share
// exists and is valid but no password was presented.
var ErrRequiresPassword = apperr.New(apperr.CodeAuthFailure, "this share requires a password")

// ShareConsume is the anonymous download path. A missing or revoked
// token is NotFound; an expired or exhausted one is ShareExpired; a
// password-protected share with no password presented returns
// ErrRequiresPassword, which the handler renders as the two-step
// handshake rather than a generic error.
func (s *Service) ShareConsume(ctx context.Context, token, password string, meta AccessMeta) (*DownloadResult, error) {
	f, err := s.files.FindByShareToken(ctx, token)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil || !f.HasShare() {
		return nil, apperr.NotFound("share not found")
	}

	now := time.Now()
	if !f.Share.IsValid(now) {
		return nil, apperr.ShareExpired("this share has expired or reached its download limit")
	}

	if f.Share.PasswordHash != "" {
		if password == "" {
			return nil, ErrRequiresPassword
		}
		if !s.shareCache.Verified(ctx, token, meta.ClientIP) {
			if !crypto.VerifyPassword(password, f.Share.PasswordHash) {
				return nil, apperr.AuthFailure("incorrect share password")
			}
			s.shareCache.Remember(ctx, token, meta.ClientIP)
		}
	}

	owner, err := s.users.FindByID(ctx, f.OwnerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if owner == nil {
		return nil, apperr.NotFound("file owner no longer exists")
	}

	result, err := s.decryptFile(f, owner)
	if err != nil {
		return nil, err
	}

	f.DownloadCount++
	f.Share.DownloadCount++
	appendAccess(f, model.AccessDownload, meta.ClientIP, meta.UserAgent)
	if err := s.files.Save(ctx, f); err != nil {
		s.log.Error("failed to persist share consume state", zap.Error(err))
	}

	return result, nil
}
