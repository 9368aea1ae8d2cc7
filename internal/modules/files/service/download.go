package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	authsvc "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/service"
)

var errChecksumMismatch = errors.New("decrypted plaintext does not match its stored checksum")

// DownloadResult carries everything the transport layer needs to emit a
// file's decrypted bytes with the correct headers.
type DownloadResult struct {
	Name     string
	MimeType string
	Size     int64
	Content  []byte
}

// AccessMeta is the client context an access-log entry records.
type AccessMeta struct {
	ClientIP  string
	UserAgent string
}

// Download loads, decrypts, and integrity-checks a file owned by userID,
// then increments its download count and appends an access-log entry.
func (s *Service) Download(ctx context.Context, userID, fileID uint, meta AccessMeta) (*DownloadResult, error) {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("file not found")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	result, err := s.decryptFile(f, u)
	if err != nil {
		return nil, err
	}

	f.DownloadCount++
	appendAccess(f, model.AccessDownload, meta.ClientIP, meta.UserAgent)
	if err := s.files.Save(ctx, f); err != nil {
		s.log.Error("failed to persist download access log", zap.Error(err))
	}

	return result, nil
}

// Preview is Download restricted to image/* MIME types.
func (s *Service) Preview(ctx context.Context, userID, fileID uint, meta AccessMeta) (*DownloadResult, error) {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("file not found")
	}
	if !strings.HasPrefix(strings.ToLower(f.MimeType), "image/") {
		return nil, apperr.Validation("preview is only available for image files")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	result, err := s.decryptFile(f, u)
	if err != nil {
		return nil, err
	}

	appendAccess(f, model.AccessView, meta.ClientIP, meta.UserAgent)
	if err := s.files.Save(ctx, f); err != nil {
		s.log.Error("failed to persist preview access log", zap.Error(err))
	}

	return result, nil
}

// decryptFile loads the ciphertext container for f, decrypts it with the
// owner's key, and verifies the stored plaintext checksum. On
// IntegrityFailure the blob and record are both left untouched — the
// failure is logged, not remediated, so the corruption can be diagnosed.
func (s *Service) decryptFile(f *model.File, owner *model.User) (*DownloadResult, error) {
	container, err := s.blobs.OpenForRead(f.StoragePath)
	if err != nil {
		return nil, err
	}

	fileKey, err := authsvc.UserKey(owner)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.Decrypt(container, fileKey)
	if err != nil {
		s.log.Error("integrity failure on decrypt", zap.Uint("fileId", f.ID), zap.Error(err))
		return nil, err
	}

	if crypto.Hash(plaintext) != f.PlaintextChecksum {
		s.log.Error("checksum mismatch on decrypt", zap.Uint("fileId", f.ID))
		return nil, apperr.IntegrityFailure(errChecksumMismatch)
	}

	return &DownloadResult{
		Name:     f.OriginalName,
		MimeType: f.MimeType,
		Size:     int64(len(plaintext)),
		Content:  plaintext,
	}, nil
}
