// Package service implements the file lifecycle engine: upload, listing,
// download/preview, metadata updates, soft-delete/trash, permanent
// delete, sharing, and the derived stats/folders views.
package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	authrepo "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
)

const defaultListLimit = 20
const maxListLimit = 100

type Service struct {
	files repo.FileStore
	users authrepo.UserStore
	blobs *blobstore.Store

	// shareBaseURL is prefixed to a share token to build the public
	// share URL returned by ShareCreate, e.g. "https://vault.example/api/files/shared".
	shareBaseURL string

	shareCache *sharecache.Cache

	log *zap.Logger
}

func New(files repo.FileStore, users authrepo.UserStore, blobs *blobstore.Store, shareBaseURL string, shareCache *sharecache.Cache, log *zap.Logger) *Service {
	return &Service{files: files, users: users, blobs: blobs, shareBaseURL: shareBaseURL, shareCache: shareCache, log: log}
}

func toFileView(f *model.File) dto.FileView {
	ext := strings.ToLower(filepath.Ext(f.OriginalName))
	return dto.FileView{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Category:     string(model.CategorizeExtension(ext)),
		Size:         f.PlaintextSize,
		Folder:       f.Folder,
		Tags:         []string(f.Tags),
		Description:  f.Description,
		HasShare:     f.HasShare(),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Get returns the sanitized record if owned and not deleted.
func (s *Service) Get(ctx context.Context, userID, fileID uint) (*dto.FileView, error) {
	f, err := s.files.FindByIDOwned(ctx, fileID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("file not found")
	}
	view := toFileView(f)
	return &view, nil
}

// list answers both the default listing and, via onlyDeleted, the trash
// view — the soft-delete filter itself always lives in repo.List.
func (s *Service) list(ctx context.Context, userID uint, q dto.ListQuery, onlyDeleted bool) (*dto.ListResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var category model.Category
	if q.Category != "" {
		cat, err := model.ParseCategory(q.Category)
		if err != nil {
			return nil, apperr.Validation("unknown category filter")
		}
		category = cat
	}

	params := repo.ListParams{
		OwnerID:     userID,
		OnlyDeleted: onlyDeleted,
		Category:    category,
		Folder:      q.Folder,
		Search:      q.Search,
		Sort:        q.Sort,
		Offset:      (page - 1) * limit,
		Limit:       limit,
	}

	files, total, err := s.files.List(ctx, params)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	views := make([]dto.FileView, len(files))
	for i := range files {
		views[i] = toFileView(&files[i])
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}

	return &dto.ListResponse{
		Files: views,
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

func (s *Service) List(ctx context.Context, userID uint, q dto.ListQuery) (*dto.ListResponse, error) {
	return s.list(ctx, userID, q, false)
}

func (s *Service) Trash(ctx context.Context, userID uint, q dto.ListQuery) (*dto.ListResponse, error) {
	return s.list(ctx, userID, q, true)
}

func appendAccess(f *model.File, action model.AccessAction, clientIP, userAgent string) {
	f.AccessLog = f.AccessLog.Append(model.AccessLogEntry{
		Action:    action,
		Timestamp: time.Now(),
		ClientIP:  clientIP,
		UserAgent: userAgent,
	})
}
