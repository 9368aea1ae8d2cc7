package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

func TestSecureJoin_AllowsWithinBase(t *testing.T) {
	base := t.TempDir()

	got, err := SecureJoin(base, filepath.Join("a", "b", "c.txt"))
	if err != nil {
		t.Fatalf("SecureJoin returned error: %v", err)
	}

	baseAbs, _ := filepath.Abs(base)
	if !strings.HasPrefix(strings.ToLower(got), strings.ToLower(baseAbs+string(os.PathSeparator))) && !strings.EqualFold(got, baseAbs) {
		t.Fatalf("expected joined path to be under base, got=%q base=%q", got, baseAbs)
	}
}

func TestSecureJoin_RejectsAbsoluteInput(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "x.txt")

	_, err := SecureJoin(base, abs)
	if err == nil {
		t.Fatal("expected an error for absolute input path")
	}
}

func TestSecureJoin_RejectsTraversalOutsideBase(t *testing.T) {
	base := t.TempDir()
	_, err := SecureJoin(base, filepath.Join("..", "escape.txt"))
	if err == nil {
		t.Fatal("expected an error for traversal outside base")
	}
}

func TestSecureJoin_ErrorsAreApperrTyped(t *testing.T) {
	base := t.TempDir()
	_, err := SecureJoin(base, filepath.Join("..", "escape.txt"))
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != apperr.CodeValidation {
		t.Fatalf("expected a Validation apperr, got %v", err)
	}
}

func TestResolveBlobPath_AddressesPerUserSubtree(t *testing.T) {
	root := t.TempDir()

	got, err := ResolveBlobPath(root, 7, "550e8400-e29b-41d4-a716-446655440000", ".png")
	if err != nil {
		t.Fatalf("ResolveBlobPath: %v", err)
	}
	want := filepath.Join(root, "7", "550e8400-e29b-41d4-a716-446655440000.png.encrypted")
	wantAbs, _ := filepath.Abs(want)
	if got != wantAbs {
		t.Fatalf("got %q, want %q", got, wantAbs)
	}
}

func TestResolveBlobPath_RejectsBlobIDWithPathSeparator(t *testing.T) {
	root := t.TempDir()
	if _, err := ResolveBlobPath(root, 7, "../../etc/passwd", ".png"); err == nil {
		t.Fatal("expected a blob id containing a path separator to be rejected")
	}
}

func TestResolveBlobPath_RejectsBlobIDWithDot(t *testing.T) {
	root := t.TempDir()
	if _, err := ResolveBlobPath(root, 7, "a.b", ".png"); err == nil {
		t.Fatal("expected a blob id containing a dot to be rejected")
	}
}

func TestEnsurePathNotSymlink_NonExistentOK(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist")
	if err := EnsurePathNotSymlink(p); err != nil {
		t.Fatalf("expected nil for a non-existent path, got: %v", err)
	}
}

func TestEnsureNoSymlinkBetween_RejectsOutsideBase(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	if err := EnsureNoSymlinkBetween(base, outside); err == nil {
		t.Fatal("expected an error when target is outside base")
	}
}

func TestEnsureNoSymlinkBetween_RejectsCrossVolumeOnWindows(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("windows-specific")
	}

	base := t.TempDir()
	target := `Z:\somewhere`
	if err := EnsureNoSymlinkBetween(base, target); err == nil {
		t.Fatal("expected a cross-volume error")
	}
}
