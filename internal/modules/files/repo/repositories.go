// Package repo is the files module's metadata store contract, grounded on
// the teacher's image repository (CreateAndIncreaseUserStorage et al.)
// generalized to the vault's File record and quota accounting.
package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/model"
)

// ListParams carries every filter/sort/pagination input the metadata
// store needs to answer List/Trash; the owner scope and the soft-delete
// filter are always applied by the query builder itself, never left to
// the caller.
type ListParams struct {
	OwnerID        uint
	IncludeDeleted bool
	OnlyDeleted    bool
	Category       model.Category
	Folder         string
	Search         string
	Sort           string
	Offset         int
	Limit          int
}

type FileStore interface {
	Create(ctx context.Context, f *model.File) error
	Save(ctx context.Context, f *model.File) error
	FindByIDOwned(ctx context.Context, id, ownerID uint) (*model.File, error)
	FindByIDOwnedIncludingDeleted(ctx context.Context, id, ownerID uint) (*model.File, error)
	FindByIDsOwned(ctx context.Context, ids []uint, ownerID uint) ([]model.File, error)
	FindAllDeletedByOwner(ctx context.Context, ownerID uint) ([]model.File, error)
	List(ctx context.Context, params ListParams) ([]model.File, int64, error)
	FindByShareToken(ctx context.Context, token string) (*model.File, error)
	Delete(ctx context.Context, f *model.File) error
	BulkDelete(ctx context.Context, files []model.File) error
	DistinctFolders(ctx context.Context, ownerID uint) ([]string, map[string]int64, error)
	Stats(ctx context.Context, ownerID uint) (totalCount int64, totalSize int64, err error)
	CategoryCounts(ctx context.Context, ownerID uint) (map[model.Category]int64, map[model.Category]int64, error)
	RecentUploads(ctx context.Context, ownerID uint, n int) ([]model.File, error)
	MostDownloaded(ctx context.Context, ownerID uint, n int) ([]model.File, error)
	AllStoragePaths(ctx context.Context) (map[string]bool, error)
}

type gormFileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) FileStore {
	return &gormFileStore{db: db}
}

// withoutDeleted is the filtered-read default every query in this file
// goes through unless it explicitly wants trashed rows too (the trash
// listing, restore, purge, id-batch and storage-path queries simply leave
// the scope out). Call sites never repeat the "is_deleted = false" clause by
// hand so a new query can't forget it.
func withoutDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func (r *gormFileStore) Create(ctx context.Context, f *model.File) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (r *gormFileStore) Save(ctx context.Context, f *model.File) error {
	if err := r.db.WithContext(ctx).Save(f).Error; err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

func (r *gormFileStore) FindByIDOwned(ctx context.Context, id, ownerID uint) (*model.File, error) {
	var f model.File
	err := r.db.WithContext(ctx).
		Scopes(withoutDeleted).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&f).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return &f, nil
}

func (r *gormFileStore) FindByIDOwnedIncludingDeleted(ctx context.Context, id, ownerID uint) (*model.File, error) {
	var f model.File
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&f).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find file (unscoped): %w", err)
	}
	return &f, nil
}

func (r *gormFileStore) FindByIDsOwned(ctx context.Context, ids []uint, ownerID uint) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Where("id IN ? AND owner_id = ?", ids, ownerID).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("find files by ids: %w", err)
	}
	return files, nil
}

func (r *gormFileStore) FindAllDeletedByOwner(ctx context.Context, ownerID uint) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_deleted = ?", ownerID, true).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("find deleted files: %w", err)
	}
	return files, nil
}

// List is the single query builder behind both the default listing and
// the trash view: the soft-delete filter is always applied here, never
// left for a handler or service to remember.
func (r *gormFileStore) List(ctx context.Context, p ListParams) ([]model.File, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.File{}).Where("owner_id = ?", p.OwnerID)

	switch {
	case p.OnlyDeleted:
		q = q.Where("is_deleted = ?", true)
	case !p.IncludeDeleted:
		q = q.Scopes(withoutDeleted)
	}

	if p.Folder != "" {
		q = q.Where("folder = ?", p.Folder)
	}
	if p.Category != "" {
		exts := model.ExtensionsForCategory(p.Category)
		if len(exts) > 0 {
			q = q.Where(extensionClause(exts), extensionArgs(exts)...)
		} else {
			q = q.Where(knownExtensionClause(), knownExtensionArgs()...)
		}
	}
	if p.Search != "" {
		like := "%" + p.Search + "%"
		q = q.Where("original_name LIKE ? OR description LIKE ? OR tags LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	q = q.Order(sortClause(p.Sort))
	if p.Limit > 0 {
		q = q.Limit(p.Limit).Offset(p.Offset)
	}

	var files []model.File
	if err := q.Find(&files).Error; err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	return files, total, nil
}

func extensionClause(exts []string) string {
	parts := make([]string, len(exts))
	for i := range exts {
		parts[i] = "original_name LIKE ?"
	}
	return strings.Join(parts, " OR ")
}

func extensionArgs(exts []string) []any {
	args := make([]any, len(exts))
	for i, ext := range exts {
		args[i] = "%" + ext
	}
	return args
}

// knownExtensionClause/Args implement the "other" category: not matching
// any known extension family.
func knownExtensionClause() string {
	all := []string{}
	for _, cat := range []model.Category{model.CategoryImage, model.CategoryDocument, model.CategoryVideo, model.CategoryAudio, model.CategoryArchive} {
		all = append(all, model.ExtensionsForCategory(cat)...)
	}
	parts := make([]string, len(all))
	for i := range all {
		parts[i] = "original_name NOT LIKE ?"
	}
	return strings.Join(parts, " AND ")
}

func knownExtensionArgs() []any {
	all := []string{}
	for _, cat := range []model.Category{model.CategoryImage, model.CategoryDocument, model.CategoryVideo, model.CategoryAudio, model.CategoryArchive} {
		all = append(all, model.ExtensionsForCategory(cat)...)
	}
	args := make([]any, len(all))
	for i, ext := range all {
		args[i] = "%" + ext
	}
	return args
}

// sortClause maps a "-"-prefixed sort key to a SQL ORDER BY clause.
// An empty key gives the default, newest first; any other unrecognized
// key sorts by creation time, ascending unless "-"-prefixed.
func sortClause(sort string) string {
	field := strings.TrimPrefix(sort, "-")
	desc := strings.HasPrefix(sort, "-") || sort == ""

	var column string
	switch field {
	case "name":
		column = "original_name"
	case "size":
		column = "plaintext_size"
	default:
		column = "created_at"
	}

	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// FindByShareToken resolves a share token to its file. A soft-deleted
// file's share must not still resolve, so this goes through the same
// filtered-read scope every other owner-facing lookup does.
func (r *gormFileStore) FindByShareToken(ctx context.Context, token string) (*model.File, error) {
	var f model.File
	err := r.db.WithContext(ctx).Scopes(withoutDeleted).Where("share_token = ?", token).First(&f).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find file by share token: %w", err)
	}
	return &f, nil
}

// Delete permanently removes the metadata record. Quota debit is the
// service layer's responsibility (see internal/quota.Debit), applied to
// the in-memory User the same way a credit is applied after an upload.
func (r *gormFileStore) Delete(ctx context.Context, f *model.File) error {
	if err := r.db.WithContext(ctx).Delete(f).Error; err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// BulkDelete permanently removes every given record in one statement.
func (r *gormFileStore) BulkDelete(ctx context.Context, files []model.File) error {
	if len(files) == 0 {
		return nil
	}
	ids := make([]uint, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.File{}).Error; err != nil {
		return fmt.Errorf("bulk delete files: %w", err)
	}
	return nil
}

func (r *gormFileStore) DistinctFolders(ctx context.Context, ownerID uint) ([]string, map[string]int64, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Select("folder").
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).
		Find(&files).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list folders: %w", err)
	}

	counts := make(map[string]int64)
	for _, f := range files {
		counts[f.Folder]++
	}
	folders := make([]string, 0, len(counts))
	for folder := range counts {
		folders = append(folders, folder)
	}
	return folders, counts, nil
}

func (r *gormFileStore) Stats(ctx context.Context, ownerID uint) (int64, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, 0, fmt.Errorf("count files: %w", err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.File{}).
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(plaintext_size), 0)").Scan(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("sum file sizes: %w", err)
	}
	return count, total, nil
}

func (r *gormFileStore) CategoryCounts(ctx context.Context, ownerID uint) (map[model.Category]int64, map[model.Category]int64, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).
		Find(&files).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list files for category stats: %w", err)
	}

	counts := make(map[model.Category]int64)
	sizes := make(map[model.Category]int64)
	for _, f := range files {
		cat := model.CategorizeExtension(strings.ToLower(filepath.Ext(f.OriginalName)))
		counts[cat]++
		sizes[cat] += f.PlaintextSize
	}
	return counts, sizes, nil
}

func (r *gormFileStore) RecentUploads(ctx context.Context, ownerID uint, n int) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Limit(n).Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list recent uploads: %w", err)
	}
	return files, nil
}

func (r *gormFileStore) MostDownloaded(ctx context.Context, ownerID uint, n int) ([]model.File, error) {
	var files []model.File
	err := r.db.WithContext(ctx).
		Scopes(withoutDeleted).
		Where("owner_id = ?", ownerID).
		Order("download_count DESC").Limit(n).Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list most downloaded: %w", err)
	}
	return files, nil
}

// AllStoragePaths returns every blob path with a live metadata record,
// across every owner and including soft-deleted (but not yet purged)
// files — the orphan sweep must never remove a blob a trashed file still
// references.
func (r *gormFileStore) AllStoragePaths(ctx context.Context) (map[string]bool, error) {
	var paths []string
	if err := r.db.WithContext(ctx).Model(&model.File{}).Pluck("storage_path", &paths).Error; err != nil {
		return nil, fmt.Errorf("list storage paths: %w", err)
	}
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set, nil
}
