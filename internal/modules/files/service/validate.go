package service

import (
	"regexp"
	"strings"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

const (
	maxFileSize        = 150 * 1024 * 1024
	maxBatchSize       = 10
	maxBulkDeleteIDs   = 100
	maxOriginalNameLen = 255
	maxFolderLen       = 500
	maxDescriptionLen  = 500
	maxTagLen          = 50
	maxTagCount        = 20
)

// allowedMimePrefixes and allowedMimeTypes implement the upload allow-list
// of spec.md §6: images, common documents, archives, common video/audio,
// text, JSON/XML, and a generic binary fallback.
var (
	allowedMimePrefixes = []string{"image/", "video/", "audio/", "text/"}
	allowedMimeTypes    = map[string]bool{
		"application/pdf":              true,
		"application/msword":           true,
		"application/vnd.ms-excel":     true,
		"application/vnd.ms-powerpoint": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
		"application/zip":              true,
		"application/x-tar":            true,
		"application/gzip":             true,
		"application/x-rar-compressed": true,
		"application/x-7z-compressed":  true,
		"application/json":             true,
		"application/xml":              true,
		"application/octet-stream":     true,
	}
)

func isAllowedMime(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	for _, prefix := range allowedMimePrefixes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return allowedMimeTypes[mime]
}

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// sanitizeName replaces path separators and shell-hostile characters, and
// truncates to the maximum original-name length.
func sanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if len(name) > maxOriginalNameLen {
		name = name[:maxOriginalNameLen]
	}
	return name
}

// normalizeFolder ensures a leading "/" and enforces the max length.
func normalizeFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return "/"
	}
	if !strings.HasPrefix(folder, "/") {
		folder = "/" + folder
	}
	if len(folder) > maxFolderLen {
		folder = folder[:maxFolderLen]
	}
	return folder
}

// normalizeTags truncates to maxTagCount tags of at most maxTagLen chars
// each, accepting either an array or a comma-separated string.
func normalizeTags(tags []string, rawCSV string) []string {
	if len(tags) == 0 && rawCSV != "" {
		for _, t := range strings.Split(rawCSV, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	if len(tags) > maxTagCount {
		tags = tags[:maxTagCount]
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		if len(t) > maxTagLen {
			t = t[:maxTagLen]
		}
		out[i] = t
	}
	return out
}

func normalizeDescription(desc string) string {
	if len(desc) > maxDescriptionLen {
		return desc[:maxDescriptionLen]
	}
	return desc
}

func validateBatchSize(n int) error {
	if n == 0 {
		return apperr.Validation("no files were provided")
	}
	if n > maxBatchSize {
		return apperr.Validation("batch size exceeds the maximum of 10 files")
	}
	return nil
}

func validateBulkIDs(n int) error {
	if n == 0 {
		return apperr.Validation("no file ids were provided")
	}
	if n > maxBulkDeleteIDs {
		return apperr.Validation("bulk operation exceeds the maximum of 100 ids")
	}
	return nil
}
