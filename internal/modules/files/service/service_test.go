package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	authrepo "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
	"github.com/imranali-mngmt/secureiduploader/internal/testutils"
)

type readCloser struct{ io.Reader }

func (readCloser) Close() error { return nil }

func input(name, mime string, data []byte) UploadInput {
	return UploadInput{Name: name, MimeType: mime, Size: int64(len(data)), Content: readCloser{bytes.NewReader(data)}}
}

func newTestService(t *testing.T) (*Service, *model.User) {
	t.Helper()
	gdb := testutils.SetupDB(t)

	key, err := crypto.GenerateUserKey()
	if err != nil {
		t.Fatalf("generate user key: %v", err)
	}
	users := authrepo.NewUserStore(gdb)
	u := &model.User{
		Username:     "alice",
		Email:        "alice@x.y",
		PasswordHash: "irrelevant",
		FileKey:      hex.EncodeToString(key),
		StorageLimit: 1 << 20,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	blobs := blobstore.New(t.TempDir())
	files := repo.NewFileStore(gdb)
	svc := New(files, users, blobs, "https://vault.example/api/files/shared", sharecache.New(nil, "test"), zap.NewNop())
	return svc, u
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte{0x41}, 1024)
	resp, err := svc.Upload(ctx, u.ID, []UploadInput{input("a.txt", "text/plain", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected upload errors: %v", resp.Errors)
	}
	fileID := resp.Files[0].ID

	result, err := svc.Download(ctx, u.ID, fileID, AccessMeta{})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if result.Size != 1024 || !bytes.Equal(result.Content, data) {
		t.Fatalf("downloaded content mismatch: got %d bytes", result.Size)
	}

	got, err := svc.users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.StorageUsed != 1024 {
		t.Fatalf("expected used storage 1024, got %d", got.StorageUsed)
	}
}

func TestDownload_TamperedBlobFailsIntegrity(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte{0x41}, 256)
	resp, err := svc.Upload(ctx, u.ID, []UploadInput{input("a.txt", "text/plain", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	f, err := svc.files.FindByIDOwned(ctx, fileID, u.ID)
	if err != nil || f == nil {
		t.Fatalf("load file: %v", err)
	}

	raw, err := os.ReadFile(f.StoragePath)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(f.StoragePath, raw, 0o600); err != nil {
		t.Fatalf("rewrite blob: %v", err)
	}

	_, err = svc.Download(ctx, u.ID, fileID, AccessMeta{})
	if err == nil {
		t.Fatal("expected integrity failure on tampered blob")
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != apperr.CodeIntegrityFailed {
		t.Fatalf("expected IntegrityFailed, got %v", err)
	}

	got, err := svc.users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.StorageUsed != 256 {
		t.Fatalf("used storage must be unaffected by a failed download, got %d", got.StorageUsed)
	}
}

func TestUpload_BatchOverQuotaRejectsEntireBatch(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	u.StorageUsed = 900 * 1024
	if err := svc.users.Save(ctx, u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	data := bytes.Repeat([]byte{0x01}, 200*1024)
	_, err := svc.Upload(ctx, u.ID, []UploadInput{input("big.bin", "application/octet-stream", data)}, dto.UploadRequest{})
	if err == nil {
		t.Fatal("expected quota exceeded error")
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != apperr.CodeQuotaExceeded {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}

	got, err := svc.users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.StorageUsed != 900*1024 {
		t.Fatalf("used storage must stay unchanged on rejection, got %d", got.StorageUsed)
	}
}

func TestUpload_OversizedFileIsPerFileErrorNotBatchAbort(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	// The batch quota check counts the oversized file's declared size, so
	// the account needs room for it or the whole batch is refused first.
	u.StorageLimit = 1 << 30
	if err := svc.users.Save(ctx, u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	good := bytes.Repeat([]byte{0x02}, 32)
	oversized := input("huge.bin", "application/octet-stream", []byte{0x01})
	oversized.Size = maxFileSize + 1

	resp, err := svc.Upload(ctx, u.ID, []UploadInput{
		oversized,
		input("ok.bin", "application/octet-stream", good),
	}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(resp.Files) != 1 {
		t.Fatalf("expected the remaining file in the batch to succeed, got %d files", len(resp.Files))
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Name != "huge.bin" {
		t.Fatalf("expected exactly one per-file error for huge.bin, got %v", resp.Errors)
	}
}

func TestShareLifecycle(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	data := []byte("share me")
	resp, err := svc.Upload(ctx, u.ID, []UploadInput{input("s.txt", "text/plain", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	maxDownloads := 2
	share, err := svc.ShareCreate(ctx, u.ID, fileID, dto.ShareCreateRequest{
		ExpiresIn:    intPtr(1),
		MaxDownloads: &maxDownloads,
		Password:     "p@ss",
	})
	if err != nil {
		t.Fatalf("ShareCreate: %v", err)
	}

	if _, err := svc.ShareConsume(ctx, share.ShareToken, "", AccessMeta{}); !errors.Is(err, ErrRequiresPassword) {
		t.Fatalf("expected ErrRequiresPassword with no password, got %v", err)
	}

	if _, err := svc.ShareConsume(ctx, share.ShareToken, "wrong", AccessMeta{}); err == nil {
		t.Fatal("expected auth failure on wrong share password")
	} else if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeAuthFailure {
		t.Fatalf("expected AuthFailure, got %v", err)
	}

	if _, err := svc.ShareConsume(ctx, share.ShareToken, "p@ss", AccessMeta{}); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if _, err := svc.ShareConsume(ctx, share.ShareToken, "p@ss", AccessMeta{}); err != nil {
		t.Fatalf("second consume: %v", err)
	}

	_, err = svc.ShareConsume(ctx, share.ShareToken, "p@ss", AccessMeta{})
	if err == nil {
		t.Fatal("expected share to be exhausted on third attempt")
	}
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeShareExpired {
		t.Fatalf("expected ShareExpired, got %v", err)
	}

	if err := svc.ShareRevoke(ctx, u.ID, fileID); err != nil {
		t.Fatalf("ShareRevoke: %v", err)
	}
	_, err = svc.ShareConsume(ctx, share.ShareToken, "p@ss", AccessMeta{})
	if appErr, ok := apperr.As(err); !ok || appErr.Code != apperr.CodeNotFound {
		t.Fatalf("expected NotFound after revoke, got %v", err)
	}
}

func TestSoftDeleteRestore_HidesAndRevealsWithoutAffectingQuota(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte{0x02}, 512)
	resp, err := svc.Upload(ctx, u.ID, []UploadInput{input("f.bin", "application/octet-stream", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	if err := svc.SoftDelete(ctx, u.ID, fileID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	list, err := svc.List(ctx, u.ID, dto.ListQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Files) != 0 {
		t.Fatalf("expected default listing to hide deleted file, got %d entries", len(list.Files))
	}

	trash, err := svc.Trash(ctx, u.ID, dto.ListQuery{})
	if err != nil {
		t.Fatalf("Trash: %v", err)
	}
	if len(trash.Files) != 1 {
		t.Fatalf("expected trash listing to contain the deleted file, got %d entries", len(trash.Files))
	}

	if err := svc.Restore(ctx, u.ID, fileID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	list, err = svc.List(ctx, u.ID, dto.ListQuery{})
	if err != nil {
		t.Fatalf("List after restore: %v", err)
	}
	if len(list.Files) != 1 {
		t.Fatalf("expected restored file back in default listing, got %d entries", len(list.Files))
	}

	got, err := svc.users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.StorageUsed != 512 {
		t.Fatalf("used storage must be unaffected by soft delete/restore, got %d", got.StorageUsed)
	}
}

func TestPermanentDelete_RefundsQuotaByPlaintextSize(t *testing.T) {
	svc, u := newTestService(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte{0x03}, 2048)
	resp, err := svc.Upload(ctx, u.ID, []UploadInput{input("f.bin", "application/octet-stream", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	if err := svc.PermanentDelete(ctx, u.ID, fileID); err != nil {
		t.Fatalf("PermanentDelete: %v", err)
	}

	got, err := svc.users.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.StorageUsed != 0 {
		t.Fatalf("expected used storage refunded to 0, got %d", got.StorageUsed)
	}

	if _, err := svc.Get(ctx, u.ID, fileID); err == nil {
		t.Fatal("expected permanently deleted file to be gone")
	}
}

func intPtr(n int) *int { return &n }
