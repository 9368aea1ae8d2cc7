package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/quota"
)

// SoftDelete hides a file from default listings without touching its
// blob or refunding quota — trashed files still count against the
// owner's storage, by design.
func (s *Service) SoftDelete(ctx context.Context, userID, fileID uint) error {
	f, err := s.files.FindByIDOwnedIncludingDeleted(ctx, fileID, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if f == nil {
		return apperr.NotFound("file not found")
	}
	if f.IsDeleted {
		return nil
	}

	now := time.Now()
	f.IsDeleted = true
	f.DeletedAt = &now
	if err := s.files.Save(ctx, f); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Restore is SoftDelete's inverse; both are idempotent in their target state.
func (s *Service) Restore(ctx context.Context, userID, fileID uint) error {
	f, err := s.files.FindByIDOwnedIncludingDeleted(ctx, fileID, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if f == nil {
		return apperr.NotFound("file not found")
	}
	if !f.IsDeleted {
		return nil
	}

	f.IsDeleted = false
	f.DeletedAt = nil
	if err := s.files.Save(ctx, f); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// PermanentDelete removes the blob (a missing blob is not an error),
// refunds quota by the file's plaintext size, and removes the record.
func (s *Service) PermanentDelete(ctx context.Context, userID, fileID uint) error {
	f, err := s.files.FindByIDOwnedIncludingDeleted(ctx, fileID, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if f == nil {
		return apperr.NotFound("file not found")
	}
	return s.purge(ctx, userID, []model.File{*f})
}

// Delete dispatches to SoftDelete or PermanentDelete depending on the
// caller's `permanent` flag, matching the DELETE /files/:id?permanent=
// endpoint contract.
func (s *Service) Delete(ctx context.Context, userID, fileID uint, permanent bool) error {
	if permanent {
		return s.PermanentDelete(ctx, userID, fileID)
	}
	return s.SoftDelete(ctx, userID, fileID)
}

// purge removes every given file's blob and metadata record and refunds
// the owner's quota by the sum of their plaintext sizes. Blob-removal
// errors are logged, never fatal — the record deletion still proceeds,
// leaving at most an orphaned blob for the sweep job to collect.
func (s *Service) purge(ctx context.Context, userID uint, files []model.File) error {
	if len(files) == 0 {
		return nil
	}

	var refund int64
	for _, f := range files {
		if err := s.blobs.Remove(f.StoragePath); err != nil {
			s.log.Error("failed to remove blob during purge", zap.String("path", f.StoragePath), zap.Error(err))
		}
		refund += f.PlaintextSize
	}

	if err := s.files.BulkDelete(ctx, files); err != nil {
		return apperr.Internal(err)
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal(err)
	}
	if u != nil {
		quota.Debit(u, refund)
		if err := s.users.Save(ctx, u); err != nil {
			s.log.Error("failed to persist quota debit after purge", zap.Error(err))
		}
	}
	return nil
}

// BulkDelete accepts up to 100 ids; per-id lookup failures are collected
// rather than aborting the batch, and quota is refunded only for ids that
// were actually permanently deleted.
func (s *Service) BulkDelete(ctx context.Context, userID uint, req dto.BulkDeleteRequest) (*dto.BulkDeleteResult, error) {
	if err := validateBulkIDs(len(req.FileIDs)); err != nil {
		return nil, err
	}

	owned, err := s.files.FindByIDsOwned(ctx, req.FileIDs, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	found := make(map[uint]model.File, len(owned))
	for _, f := range owned {
		found[f.ID] = f
	}

	result := &dto.BulkDeleteResult{}

	if !req.Permanent {
		now := time.Now()
		for _, id := range req.FileIDs {
			f, ok := found[id]
			if !ok {
				result.Errors = append(result.Errors, dto.UploadItemError{Name: idLabel(id), Message: "file not found"})
				continue
			}
			if !f.IsDeleted {
				f.IsDeleted = true
				f.DeletedAt = &now
				if err := s.files.Save(ctx, &f); err != nil {
					result.Errors = append(result.Errors, dto.UploadItemError{Name: idLabel(id), Message: "soft delete failed"})
					continue
				}
			}
			result.DeletedCount++
		}
		return result, nil
	}

	var toPurge []model.File
	for _, id := range req.FileIDs {
		f, ok := found[id]
		if !ok {
			result.Errors = append(result.Errors, dto.UploadItemError{Name: idLabel(id), Message: "file not found"})
			continue
		}
		toPurge = append(toPurge, f)
	}

	if err := s.purge(ctx, userID, toPurge); err != nil {
		return nil, err
	}
	result.DeletedCount = len(toPurge)
	return result, nil
}

// EmptyTrash permanently deletes every soft-deleted file owned by the
// user and refunds quota by the sum of their plaintext sizes.
func (s *Service) EmptyTrash(ctx context.Context, userID uint) (*dto.BulkDeleteResult, error) {
	deleted, err := s.files.FindAllDeletedByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.purge(ctx, userID, deleted); err != nil {
		return nil, err
	}
	return &dto.BulkDeleteResult{DeletedCount: len(deleted)}, nil
}

func idLabel(id uint) string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}
