// Package blobstore implements durable, per-user blob storage on a local
// filesystem, grounded on the teacher's upload placement
// (os.MkdirAll + uuid-named files under a configured root) generalized
// from date-sharded image paths to per-user/blob-id paths, and on its
// internal/utils.SecureJoin symlink/traversal guard.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/utils"
)

// Store addresses blobs under root/<user-id>/<blob-id><ext>.encrypted.
// It never stores plaintext once a commit (ReplaceContents with the
// encrypted container) has occurred, and never exposes a blob outside its
// owning user's subtree: every path it hands back is produced by itself.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Staged is a freshly created, empty-until-written blob location.
type Staged struct {
	BlobID string
	Path   string
}

// Stage creates (if needed) the user's subdirectory and reserves a new,
// globally unique blob id and path. The caller writes plaintext to Path,
// then later overwrites it in place with the encrypted container via
// ReplaceContents.
func (s *Store) Stage(userID uint, ext string) (*Staged, error) {
	userDir := filepath.Join(s.root, strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create user blob directory: %w", err))
	}

	blobID := uuid.New().String()
	path, err := utils.ResolveBlobPath(s.root, userID, blobID, ext)
	if err != nil {
		return nil, err
	}

	return &Staged{BlobID: blobID, Path: path}, nil
}

// WritePlaintext writes the staged blob's initial plaintext contents.
func (s *Store) WritePlaintext(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("open staged blob: %w", err))
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, apperr.Internal(fmt.Errorf("write staged blob: %w", err))
	}
	return n, nil
}

// Commit is a no-op in this implementation; it is reserved for an atomic
// rename-from-temp-name step should the engine ever stage under a
// provisional filename.
func (s *Store) Commit(path string) error { return nil }

// ReplaceContents overwrites a staged (or existing) blob with the given
// bytes — the read-modify-write step that turns a staged plaintext file
// into its encrypted container.
func (s *Store) ReplaceContents(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperr.Internal(fmt.Errorf("replace blob contents: %w", err))
	}
	return nil
}

// OpenForRead returns the full contents of the blob at path.
// A missing file surfaces as apperr.CodeMissingBlob.
func (s *Store) OpenForRead(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.MissingBlob("the stored file could not be found")
		}
		return nil, apperr.Internal(fmt.Errorf("read blob: %w", err))
	}
	return data, nil
}

// Remove idempotently unlinks the blob at path; a missing file is not an
// error, matching the purge path's tolerance for already-orphaned state.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.Internal(fmt.Errorf("remove blob: %w", err))
	}
	return nil
}

// UserDir returns the per-user subtree root. The orphan sweep does not use
// it; it walks the whole tree from Root.
func (s *Store) UserDir(userID uint) string {
	return filepath.Join(s.root, strconv.FormatUint(uint64(userID), 10))
}

// Root returns the blob store's root directory.
func (s *Store) Root() string { return s.root }
