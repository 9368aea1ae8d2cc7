// Package handler adapts HTTP requests to the files service: multipart
// upload parsing, query-string binding for list/trash, and the anonymous
// share-download path.
package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/httpx"
	authhandler "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/handler"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/files/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func accessMeta(c *gin.Context) service.AccessMeta {
	return service.AccessMeta{ClientIP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func fileIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Upload(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		httpx.Fail(c, apperr.Validation("multipart form required"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		httpx.Fail(c, apperr.Validation("no files were provided"))
		return
	}

	inputs := make([]service.UploadInput, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			httpx.Fail(c, apperr.Validation("could not read uploaded file "+fh.Filename))
			return
		}
		inputs = append(inputs, service.UploadInput{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Content:  f,
		})
	}

	req := dto.UploadRequest{
		Folder:      c.PostForm("folder"),
		Tags:        c.PostFormArray("tags"),
		Description: c.PostForm("description"),
	}

	resp, err := h.svc.Upload(c.Request.Context(), uid, inputs, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OKWithErrors(c, http.StatusCreated, resp.Files, resp.Errors)
}

func listQuery(c *gin.Context) dto.ListQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return dto.ListQuery{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Folder:   c.Query("folder"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
}

func (h *Handler) List(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), uid, listQuery(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) Trash(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	resp, err := h.svc.Trash(c.Request.Context(), uid, listQuery(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) Get(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	view, err := h.svc.Get(c.Request.Context(), uid, id)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, view)
}

func (h *Handler) Update(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	var req dto.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	view, err := h.svc.Update(c.Request.Context(), uid, id, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, view)
}

func (h *Handler) Delete(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	permanent := c.Query("permanent") == "true"
	if err := h.svc.Delete(c.Request.Context(), uid, id, permanent); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) Restore(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	if err := h.svc.Restore(c.Request.Context(), uid, id); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "restored"})
}

func (h *Handler) EmptyTrash(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	result, err := h.svc.EmptyTrash(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, result)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	result, err := h.svc.BulkDelete(c.Request.Context(), uid, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, result)
}

func (h *Handler) Move(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	if err := h.svc.Move(c.Request.Context(), uid, req); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "moved"})
}

func (h *Handler) Download(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	result, err := h.svc.Download(c.Request.Context(), uid, id, accessMeta(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	writeContent(c, result, "attachment")
}

func (h *Handler) Preview(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	result, err := h.svc.Preview(c.Request.Context(), uid, id, accessMeta(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	writeContent(c, result, "inline")
}

// contentDisposition builds an RFC 6266 header value: an ASCII-safe
// fallback filename plus a percent-encoded filename* for names carrying
// quotes or non-ASCII characters, which would otherwise break the header
// or open the door to header injection.
func contentDisposition(disposition, filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	encoded := url.PathEscape(filename)
	return disposition + `; filename="` + fallback + `"; filename*=UTF-8''` + encoded
}

func writeContent(c *gin.Context, result *service.DownloadResult, disposition string) {
	c.Header("Content-Disposition", contentDisposition(disposition, result.Name))
	c.Header("Cache-Control", "private, max-age=0, no-cache")
	c.Header("Content-Length", strconv.Itoa(len(result.Content)))
	c.Data(http.StatusOK, result.MimeType, result.Content)
}

func (h *Handler) ShareCreate(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	var req dto.ShareCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	resp, err := h.svc.ShareCreate(c.Request.Context(), uid, id, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, resp)
}

func (h *Handler) ShareRevoke(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, ok := fileIDParam(c)
	if !ok {
		httpx.Fail(c, apperr.Validation("invalid file id"))
		return
	}
	if err := h.svc.ShareRevoke(c.Request.Context(), uid, id); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "share revoked"})
}

// ShareConsume serves the anonymous GET/POST share-download endpoint. A
// password-protected share with no password presented renders the
// two-step handshake rather than a generic error.
func (h *Handler) ShareConsume(c *gin.Context) {
	token := c.Param("token")
	password := c.Query("password")
	if password == "" {
		password = c.PostForm("password")
	}

	result, err := h.svc.ShareConsume(c.Request.Context(), token, password, accessMeta(c))
	if err != nil {
		if errors.Is(err, service.ErrRequiresPassword) {
			httpx.RequiresPassword(c)
			return
		}
		httpx.Fail(c, err)
		return
	}
	writeContent(c, result, "attachment")
}

func (h *Handler) Stats(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	resp, err := h.svc.Stats(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) Folders(c *gin.Context) {
	uid, ok := authhandler.UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	resp, err := h.svc.Folders(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}
