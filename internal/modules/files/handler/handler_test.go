package handler

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	"github.com/imranali-mngmt/secureiduploader/internal/crypto"
	"github.com/imranali-mngmt/secureiduploader/internal/httpx"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	authrepo "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/repo"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/service"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
	"github.com/imranali-mngmt/secureiduploader/internal/testutils"
)

type readCloser struct{ io.Reader }

func (readCloser) Close() error { return nil }

func uploadInput(name, mime string, data []byte) service.UploadInput {
	return service.UploadInput{Name: name, MimeType: mime, Size: int64(len(data)), Content: readCloser{bytes.NewReader(data)}}
}

// withUser stubs the auth middleware: it sets the context key the real
// JWTAuth middleware would set, so handlers under test can call
// authhandler.UserID without a token round trip.
func withUser(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("id", uid)
		c.Next()
	}
}

func setupTestHandler(t *testing.T) (*Handler, *service.Service, *model.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutils.SetupDB(t)

	key, err := crypto.GenerateUserKey()
	if err != nil {
		t.Fatalf("generate user key: %v", err)
	}
	users := authrepo.NewUserStore(gdb)
	u := &model.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "irrelevant",
		FileKey:      hex.EncodeToString(key),
		StorageLimit: 1 << 20,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	blobs := blobstore.New(t.TempDir())
	files := repo.NewFileStore(gdb)
	svc := service.New(files, users, blobs, "https://vault.example/api/files/shared", sharecache.New(nil, "test"), zap.NewNop())
	return New(svc), svc, u
}

func multipartUploadBody(t *testing.T, fieldName, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, w.FormDataContentType()
}

func TestUploadHandler_ReturnsCreatedWithEnvelope(t *testing.T) {
	h, _, u := setupTestHandler(t)

	r := gin.New()
	r.POST("/files", withUser(u.ID), h.Upload)

	body, contentType := multipartUploadBody(t, "files", "note.txt", []byte("hello vault"))
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var env httpx.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}
	if env.Data == nil {
		t.Fatal("expected non-nil data in upload envelope")
	}
}

func TestDownloadHandler_RoundTripAndHeaders(t *testing.T) {
	h, svc, u := setupTestHandler(t)
	ctx := context.Background()

	data := []byte("round trip bytes")
	resp, err := svc.Upload(ctx, u.ID, []service.UploadInput{uploadInput("round.bin", "application/octet-stream", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	r := gin.New()
	r.GET("/files/:id/download", withUser(u.ID), h.Download)

	req := httptest.NewRequest(http.MethodGet, "/files/"+strconv.FormatUint(uint64(fileID), 10)+"/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Fatalf("downloaded body mismatch: got %q want %q", w.Body.Bytes(), data)
	}
	disposition := w.Header().Get("Content-Disposition")
	if len(disposition) < 10 || disposition[:10] != "attachment" {
		t.Fatalf("expected an attachment disposition, got %q", disposition)
	}
}

func TestShareConsumeHandler_RequiresPasswordThenSucceeds(t *testing.T) {
	h, svc, u := setupTestHandler(t)
	ctx := context.Background()

	data := []byte("shared bytes")
	resp, err := svc.Upload(ctx, u.ID, []service.UploadInput{uploadInput("shared.bin", "application/octet-stream", data)}, dto.UploadRequest{})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fileID := resp.Files[0].ID

	share, err := svc.ShareCreate(ctx, u.ID, fileID, dto.ShareCreateRequest{Password: "sesame"})
	if err != nil {
		t.Fatalf("ShareCreate: %v", err)
	}

	r := gin.New()
	r.GET("/files/shared/:token", h.ShareConsume)

	noPassReq := httptest.NewRequest(http.MethodGet, "/files/shared/"+share.ShareToken, nil)
	noPassW := httptest.NewRecorder()
	r.ServeHTTP(noPassW, noPassReq)

	if noPassW.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 requiring a password, got %d body=%s", noPassW.Code, noPassW.Body.String())
	}
	var env httpx.Envelope
	if err := json.Unmarshal(noPassW.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.RequiresPassword {
		t.Fatalf("expected requiresPassword=true, got %+v", env)
	}

	withPassReq := httptest.NewRequest(http.MethodGet, "/files/shared/"+share.ShareToken+"?password=sesame", nil)
	withPassW := httptest.NewRecorder()
	r.ServeHTTP(withPassW, withPassReq)

	if withPassW.Code != http.StatusOK {
		t.Fatalf("expected 200 with the right password, got %d body=%s", withPassW.Code, withPassW.Body.String())
	}
	if !bytes.Equal(withPassW.Body.Bytes(), data) {
		t.Fatalf("shared download body mismatch: got %q want %q", withPassW.Body.Bytes(), data)
	}
	disposition := withPassW.Header().Get("Content-Disposition")
	if len(disposition) < 10 || disposition[:10] != "attachment" {
		t.Fatalf("expected an attachment disposition on a share download, got %q", disposition)
	}
}
