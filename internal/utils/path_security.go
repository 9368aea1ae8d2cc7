// Package utils holds small, domain-free helpers shared across modules.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

// SecureJoin joins relativePath onto basePath, rejecting any result that
// escapes basePath or passes through a symlink along the way. The blob
// store uses this for every path it hands back so a crafted blob id or
// extension can never resolve outside a user's subtree. Errors are
// already apperr-typed so callers can return them straight through
// instead of re-wrapping a generic error.
func SecureJoin(basePath, relativePath string) (string, error) {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("resolve base path: %w", err))
	}

	cleanRel := filepath.Clean(relativePath)
	if cleanRel == "." {
		cleanRel = ""
	}
	if filepath.IsAbs(cleanRel) {
		return "", apperr.Validation("invalid path: absolute paths are not allowed")
	}

	targetAbs, err := filepath.Abs(filepath.Join(baseAbs, cleanRel))
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("resolve target path: %w", err))
	}

	if err := EnsureNoSymlinkBetween(baseAbs, targetAbs); err != nil {
		return "", err
	}

	return targetAbs, nil
}

// ResolveBlobPath addresses one blob the way the metadata store's File
// record does: root/<user-id>/<blob-id><ext>.encrypted. blobID is
// rejected outright if it contains a path separator or a "." — a stored
// blob id is always a UUID, so this never legitimately fires, but it
// closes off a blob record whose id was corrupted or forged from ever
// reaching SecureJoin's slower traversal check.
func ResolveBlobPath(root string, userID uint, blobID, ext string) (string, error) {
	if blobID == "" || strings.ContainsAny(blobID, `/\.`) {
		return "", apperr.Validation("invalid blob id")
	}
	userDir, err := SecureJoin(root, fmt.Sprintf("%d", userID))
	if err != nil {
		return "", err
	}
	return SecureJoin(userDir, blobID+ext+".encrypted")
}

// EnsurePathNotSymlink checks whether path itself is a symlink. A path
// that does not yet exist is not an error, so callers can use this for a
// location they are about to create.
func EnsurePathNotSymlink(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return apperr.Internal(fmt.Errorf("resolve path: %w", err))
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Internal(fmt.Errorf("stat path: %w", err))
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return apperr.IntegrityFailure(fmt.Errorf("symlink traversal detected at %s", absPath))
	}

	return nil
}

// EnsureNoSymlinkBetween verifies that targetPath lies within basePath
// and that no existing node on the path between them is a symlink.
// Missing nodes are not an error, so it can guard a not-yet-created file.
func EnsureNoSymlinkBetween(basePath, targetPath string) error {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return apperr.Internal(fmt.Errorf("resolve base path: %w", err))
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return apperr.Internal(fmt.Errorf("resolve target path: %w", err))
	}

	if err := ensureWithinBase(baseAbs, targetAbs); err != nil {
		return err
	}

	current := targetAbs
	for {
		info, statErr := os.Lstat(current)
		if statErr == nil {
			if info.Mode()&os.ModeSymlink != 0 {
				return apperr.IntegrityFailure(fmt.Errorf("symlink traversal detected at %s", current))
			}
		} else if !os.IsNotExist(statErr) {
			return apperr.Internal(fmt.Errorf("stat path: %w", statErr))
		}

		if samePath(current, baseAbs) {
			break
		}

		parent := filepath.Dir(current)
		if samePath(parent, current) {
			return apperr.Internal(fmt.Errorf("invalid path: could not locate the base directory"))
		}
		current = parent
	}

	return nil
}

// ensureWithinBase is the boundary check every other guard in this file
// builds on: targetAbs must resolve strictly inside baseAbs's tree.
func ensureWithinBase(baseAbs, targetAbs string) error {
	baseVol := filepath.VolumeName(baseAbs)
	targetVol := filepath.VolumeName(targetAbs)
	if baseVol != "" || targetVol != "" {
		if !strings.EqualFold(baseVol, targetVol) {
			return apperr.Validation("invalid path: crosses volumes")
		}
	}

	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("invalid path: %v", err))
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return apperr.Validation("invalid path: escapes the base directory")
	}
	return nil
}

// samePath compares two paths after cleaning, case-insensitively on
// Windows where the filesystem itself is case-insensitive.
func samePath(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
