package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	authsvc "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/service"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/quota"
)

// UploadInput is one file of a batch, decoupled from any particular HTTP
// multipart representation so the handler owns every transport detail.
type UploadInput struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.ReadCloser
}

// Upload accepts a batch of files for one user. Inputs are processed in
// order; a per-file failure — oversized file, disallowed MIME type, or a
// write error — is attached to that file's slot and does not abort the
// rest of the batch. The batch-size check and the batch-level quota check
// (on the sum of declared sizes, oversized files included) are the only
// batch-wide gates and happen once, before any byte is staged, per spec.md §4.4.
func (s *Service) Upload(ctx context.Context, userID uint, inputs []UploadInput, req dto.UploadRequest) (*dto.UploadResponse, error) {
	if err := validateBatchSize(len(inputs)); err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	var batchTotal int64
	for _, in := range inputs {
		batchTotal += in.Size
	}
	if err := quota.CheckUpload(u, batchTotal); err != nil {
		return nil, err
	}

	folder := normalizeFolder(req.Folder)
	tags := normalizeTags(req.Tags, "")
	description := normalizeDescription(req.Description)

	resp := &dto.UploadResponse{}
	var committedSize int64

	fileKey, keyErr := authsvc.UserKey(u)

	for _, in := range inputs {
		result, uploadErr := s.uploadOne(ctx, u, fileKey, keyErr, in, folder, tags, description)
		if uploadErr != nil {
			resp.Errors = append(resp.Errors, dto.UploadItemError{Name: in.Name, Message: messageFor(uploadErr)})
			continue
		}
		resp.Files = append(resp.Files, *result)
		committedSize += in.Size
	}

	if committedSize > 0 {
		quota.Credit(u, committedSize)
		if err := s.users.Save(ctx, u); err != nil {
			s.log.Error("failed to persist quota credit after upload", zap.Error(err))
		}
	}

	return resp, nil
}

func messageFor(err error) string {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Message
	}
	return "upload failed"
}

func (s *Service) uploadOne(ctx context.Context, u *model.User, fileKey []byte, keyErr error, in UploadInput, folder string, tags []string, description string) (*dto.UploadFileResult, error) {
	defer in.Content.Close()

	if in.Size > maxFileSize {
		return nil, apperr.Validation("file exceeds the 150 MiB size limit")
	}
	if !isAllowedMime(in.MimeType) {
		return nil, apperr.Validation("file type is not permitted")
	}
	if keyErr != nil {
		return nil, keyErr
	}

	ext := strings.ToLower(filepath.Ext(in.Name))
	staged, err := s.blobs.Stage(u.ID, ext)
	if err != nil {
		return nil, err
	}

	plaintext, err := io.ReadAll(in.Content)
	if err != nil {
		_ = s.blobs.Remove(staged.Path)
		return nil, apperr.Internal(err)
	}
	if _, err := s.blobs.WritePlaintext(staged.Path, bytes.NewReader(plaintext)); err != nil {
		_ = s.blobs.Remove(staged.Path)
		return nil, err
	}

	plaintextChecksum := crypto.Hash(plaintext)

	container, err := crypto.Encrypt(plaintext, fileKey)
	if err != nil {
		_ = s.blobs.Remove(staged.Path)
		return nil, err
	}
	if err := s.blobs.ReplaceContents(staged.Path, container); err != nil {
		_ = s.blobs.Remove(staged.Path)
		return nil, err
	}
	ciphertextChecksum := crypto.Hash(container)

	sanitizedName := sanitizeName(in.Name)
	record := &model.File{
		OwnerID:            u.ID,
		OriginalName:       sanitizedName,
		BlobID:             staged.BlobID,
		MimeType:           in.MimeType,
		PlaintextSize:      int64(len(plaintext)),
		CiphertextSize:     int64(len(container)),
		PlaintextChecksum:  plaintextChecksum,
		CiphertextChecksum: ciphertextChecksum,
		StoragePath:        staged.Path,
		Folder:             folder,
		Tags:               model.StringSlice(tags),
		Description:        description,
	}

	if err := s.files.Create(ctx, record); err != nil {
		_ = s.blobs.Remove(staged.Path)
		return nil, apperr.Internal(err)
	}

	return &dto.UploadFileResult{
		ID:            record.ID,
		Name:          record.OriginalName,
		PlaintextSize: record.PlaintextSize,
		MimeType:      record.MimeType,
		Category:      string(model.CategorizeExtension(ext)),
		CreatedAt:     record.CreatedAt,
	}, nil
}
