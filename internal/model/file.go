package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Category is the derived, non-persisted classification of a file by its
// original filename's extension.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryArchive  Category = "archive"
	CategoryOther    Category = "other"
)

// AccessAction identifies the kind of access-log entry.
type AccessAction string

const (
	AccessView     AccessAction = "view"
	AccessDownload AccessAction = "download"
	AccessShare    AccessAction = "share"
	AccessUpdate   AccessAction = "update"
	AccessDelete   AccessAction = "delete"
)

// AccessLogLimit bounds the ring buffer of access-log entries per file.
const AccessLogLimit = 100

// AccessLogEntry is one entry in a file's bounded access history.
type AccessLogEntry struct {
	Action    AccessAction `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	ClientIP  string       `json:"clientIp"`
	UserAgent string       `json:"userAgent"`
}

// AccessLog is a JSON-encoded column: GORM has no native bounded-ring
// column type, so the ring eviction (see AccessLog.Append) is enforced in
// Go rather than in SQL.
type AccessLog []AccessLogEntry

func (a AccessLog) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	return string(b), err
}

func (a *AccessLog) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported AccessLog scan type %T", value)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Append adds an entry to the log, evicting the oldest once the bound is
// exceeded.
func (a AccessLog) Append(entry AccessLogEntry) AccessLog {
	a = append(a, entry)
	if len(a) > AccessLogLimit {
		a = a[len(a)-AccessLogLimit:]
	}
	return a
}

// StringSlice is a JSON-encoded []string column, used for Tags.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported StringSlice scan type %T", value)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Share is the anonymous-access sub-record of a File. It is "present" when
// Token is non-empty; ClearShare nils out every field atomically.
type Share struct {
	// Token is indexed (not uniquely: most rows carry no share and would
	// collide on "") since every share lookup goes through it.
	Token            string `gorm:"size:64;index:idx_files_share_token"`
	ExpiresAt        *time.Time
	MaxDownloads     *int
	PasswordHash     string
	DownloadCount    int `gorm:"not null;default:0"`
}

// IsValid reports whether the share can still be consumed, per the state
// machine in the data model: token present, not expired, and (if bounded)
// under its download cap.
func (s Share) IsValid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}
	if s.MaxDownloads != nil && s.DownloadCount >= *s.MaxDownloads {
		return false
	}
	return true
}

// File is the metadata record for one stored blob.
type File struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint `gorm:"not null;index:idx_files_owner_created,priority:1;index:idx_files_owner_folder,priority:1"`

	OriginalName string `gorm:"size:255;not null"`
	BlobID       string `gorm:"uniqueIndex;size:64;not null"`
	MimeType     string `gorm:"size:127;not null"`

	PlaintextSize  int64 `gorm:"not null"`
	CiphertextSize int64 `gorm:"not null"`

	PlaintextChecksum  string `gorm:"size:64;not null"`
	CiphertextChecksum string `gorm:"size:64;not null"`

	StoragePath string `gorm:"not null"`
	Folder      string `gorm:"size:500;not null;default:/;index:idx_files_owner_folder,priority:2"`

	Tags        StringSlice `gorm:"type:text"`
	Description string      `gorm:"size:500"`

	IsDeleted bool       `gorm:"not null;default:false;index:idx_files_deleted,priority:1"`
	DeletedAt *time.Time `gorm:"index:idx_files_deleted,priority:2"`

	Share `gorm:"embedded;embeddedPrefix:share_"`

	AccessLog AccessLog `gorm:"type:text"`

	// DownloadCount tracks every successful download of this file, by
	// the owner or through a share; Share.DownloadCount is the narrower
	// counter a share's max-downloads cap is checked against.
	DownloadCount int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"index:idx_files_owner_created,priority:2"`
	UpdatedAt time.Time
}

// HasShare reports whether the file currently has an active share token
// (not necessarily a *valid* one — see Share.IsValid).
func (f *File) HasShare() bool { return f.Share.Token != "" }

// ClearShare atomically removes every share field, per the revoke
// operation's invariant.
func (f *File) ClearShare() {
	f.Share = Share{}
}

// CategorizeExtension derives a Category from a filename's extension,
// using the same MIME-family grouping as the upload allow-list and the
// stats/list category filter.
func CategorizeExtension(ext string) Category {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".tiff", ".heic":
		return CategoryImage
	case ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".md", ".csv", ".json", ".xml":
		return CategoryDocument
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return CategoryVideo
	case ".mp3", ".wav", ".ogg", ".flac", ".m4a":
		return CategoryAudio
	case ".zip", ".tar", ".gz", ".rar", ".7z":
		return CategoryArchive
	default:
		return CategoryOther
	}
}

// ExtensionsForCategory returns the extensions CategorizeExtension maps to
// the given category, used by the files module to build a category filter
// against the stored original-name column without a derived SQL column.
func ExtensionsForCategory(cat Category) []string {
	switch cat {
	case CategoryImage:
		return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".tiff", ".heic"}
	case CategoryDocument:
		return []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".md", ".csv", ".json", ".xml"}
	case CategoryVideo:
		return []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
	case CategoryAudio:
		return []string{".mp3", ".wav", ".ogg", ".flac", ".m4a"}
	case CategoryArchive:
		return []string{".zip", ".tar", ".gz", ".rar", ".7z"}
	default:
		return nil
	}
}

var errUnknownCategory = errors.New("unknown category")

// ParseCategory validates a category filter value from a query string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryImage, CategoryDocument, CategoryVideo, CategoryAudio, CategoryArchive, CategoryOther:
		return Category(s), nil
	default:
		return "", errUnknownCategory
	}
}
