// Package dto holds the files module's request/response shapes.
package dto

import "time"

// FileView is the sanitized, client-facing projection of a File: it never
// carries StoragePath or AccessLog.
type FileView struct {
	ID           uint      `json:"id"`
	OriginalName string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Category     string    `json:"category"`
	Size         int64     `json:"size"`
	Folder       string    `json:"folder"`
	Tags         []string  `json:"tags"`
	Description  string    `json:"description"`
	HasShare     bool      `json:"hasShare"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UploadFileResult is one slot in a batch upload response.
type UploadFileResult struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	PlaintextSize int64    `json:"plaintextSize"`
	MimeType     string    `json:"mimeType"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UploadItemError reports the per-file failure for a batch upload slot.
type UploadItemError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type UploadRequest struct {
	Folder      string
	Tags        []string
	Description string
}

type UploadResponse struct {
	Files  []UploadFileResult `json:"files"`
	Errors []UploadItemError  `json:"errors,omitempty"`
}

// ListQuery carries every filter/sort/pagination input for List and Trash.
type ListQuery struct {
	Page     int
	Limit    int
	Category string
	Folder   string
	Search   string
	Sort     string
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type ListResponse struct {
	Files      []FileView `json:"files"`
	Pagination Pagination `json:"pagination"`
}

// UpdateFileRequest carries the mutable fields of a file record. Tags may
// arrive as an array or a comma-separated string, hence RawTags.
type UpdateFileRequest struct {
	OriginalName *string  `json:"name"`
	Folder       *string  `json:"folder"`
	Tags         []string `json:"tags"`
	RawTags      *string  `json:"tagsString"`
	Description  *string  `json:"description"`
}

type ShareCreateRequest struct {
	ExpiresIn    *int    `json:"expiresIn"`
	MaxDownloads *int    `json:"maxDownloads"`
	Password     string  `json:"password"`
}

type ShareResponse struct {
	ShareURL     string     `json:"shareUrl"`
	ShareToken   string     `json:"shareToken"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	MaxDownloads *int       `json:"maxDownloads"`
	HasPassword  bool       `json:"hasPassword"`
}

type BulkDeleteRequest struct {
	FileIDs   []uint `json:"fileIds" binding:"required"`
	Permanent bool   `json:"permanent"`
}

type BulkDeleteResult struct {
	DeletedCount int               `json:"deletedCount"`
	Errors       []UploadItemError `json:"errors,omitempty"`
}

type MoveRequest struct {
	FileIDs      []uint `json:"fileIds" binding:"required"`
	TargetFolder string `json:"targetFolder" binding:"required"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
	Size     int64  `json:"size"`
}

type RecentFile struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type PopularFile struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	DownloadCount int    `json:"downloadCount"`
}

type StatsResponse struct {
	TotalFiles       int64          `json:"totalFiles"`
	TotalSize        int64          `json:"totalSize"`
	Categories       []CategoryStat `json:"categories"`
	RecentUploads    []RecentFile   `json:"recentUploads"`
	MostDownloaded   []PopularFile  `json:"mostDownloaded"`
}

type FoldersResponse struct {
	Folders []string       `json:"folders"`
	Counts  map[string]int64 `json:"counts"`
}
