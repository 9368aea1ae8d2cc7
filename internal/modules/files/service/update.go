package service

import (
	"context"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
)

// Update mutates only the fields the spec classifies as mutable — display
// name, folder, tags, description. Owner, sizes, checksums, the blob id,
// and the MIME type never change after upload.
func (s *Service) Update(ctx context.Context, userID, fileID uint, req dto.UpdateFileRequest) (*dto.FileView, error) {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("file not found")
	}

	if req.OriginalName != nil {
		name := sanitizeName(*req.OriginalName)
		if name == "" {
			return nil, apperr.Validation("original name cannot be empty")
		}
		f.OriginalName = name
	}
	if req.Folder != nil {
		f.Folder = normalizeFolder(*req.Folder)
	}
	raw := ""
	if req.RawTags != nil {
		raw = *req.RawTags
	}
	if req.Tags != nil || req.RawTags != nil {
		f.Tags = model.StringSlice(normalizeTags(req.Tags, raw))
	}
	if req.Description != nil {
		f.Description = normalizeDescription(*req.Description)
	}

	appendAccess(f, model.AccessUpdate, "", "")
	if err := s.files.Save(ctx, f); err != nil {
		return nil, apperr.Internal(err)
	}

	view := toFileView(f)
	return &view, nil
}
