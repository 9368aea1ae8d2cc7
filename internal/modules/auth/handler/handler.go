// Package handler adapts HTTP requests to the auth service.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/httpx"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// UserID extracts the authenticated user's id set by the JWT middleware.
// It is exported so the files module's handler can reuse the same
// convention without importing gin context keys from two places.
func UserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get("id")
	if !exists {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

func (h *Handler) Captcha(c *gin.Context) {
	resp, err := h.svc.Captcha()
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	view, err := h.svc.Me(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, view)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}

	view, err := h.svc.UpdateProfile(c.Request.Context(), uid, req)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, view)
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}

	if err := h.svc.UpdatePassword(c.Request.Context(), uid, req); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), uid); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "account deactivated"})
}

// BeginPasskeyRegistration issues a WebAuthn registration challenge for
// the authenticated account.
func (h *Handler) BeginPasskeyRegistration(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	token, creation, err := h.svc.BeginPasskeyRegistration(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"sessionToken": token, "options": creation})
}

// FinishPasskeyRegistration completes a registration ceremony and
// persists the resulting credential.
func (h *Handler) FinishPasskeyRegistration(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	var req dto.PasskeyCeremonyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	if err := h.svc.FinishPasskeyRegistration(c.Request.Context(), uid, req.SessionToken, req.Credential); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, gin.H{"message": "passkey registered"})
}

// ListPasskeys returns the authenticated account's bound credentials.
func (h *Handler) ListPasskeys(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	views, err := h.svc.ListPasskeys(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, views)
}

// DeletePasskey removes one of the authenticated account's credentials.
func (h *Handler) DeletePasskey(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httpx.Fail(c, apperr.Validation("invalid passkey id"))
		return
	}
	if err := h.svc.DeletePasskey(c.Request.Context(), uid, uint(id)); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "passkey removed"})
}

// BeginPasskeyLogin issues a discoverable (usernameless) login challenge.
func (h *Handler) BeginPasskeyLogin(c *gin.Context) {
	token, assertion, err := h.svc.BeginPasskeyLogin(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"sessionToken": token, "options": assertion})
}

// FinishPasskeyLogin verifies a login assertion and issues a bearer token.
func (h *Handler) FinishPasskeyLogin(c *gin.Context) {
	var req dto.PasskeyCeremonyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Fail(c, apperr.Validation("invalid request body"))
		return
	}
	resp, err := h.svc.FinishPasskeyLogin(c.Request.Context(), req.SessionToken, req.Credential)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, resp)
}

func (h *Handler) StorageStats(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Fail(c, apperr.AuthFailure("missing or invalid credentials"))
		return
	}

	stats, err := h.svc.StorageStats(c.Request.Context(), uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, stats)
}
