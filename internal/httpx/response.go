// Package httpx renders the service's JSON response envelope and maps
// apperr codes to HTTP status, grounded on the teacher's
// httpx.WriteServiceError convention.
package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

// Envelope is the shape of every JSON response the API emits.
type Envelope struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	Data             any    `json:"data,omitempty"`
	RequiresPassword bool   `json:"requiresPassword,omitempty"`
	Errors           any    `json:"errors,omitempty"`
}

// OK writes a success envelope with the given HTTP status and payload.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OKWithErrors writes a success envelope alongside a per-item errors list,
// used by batch operations (upload, bulk-delete) that partially succeed.
func OKWithErrors(c *gin.Context, status int, data any, errs any) {
	c.JSON(status, Envelope{Success: true, Data: data, Errors: errs})
}

// RequiresPassword writes the two-step share handshake response.
func RequiresPassword(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Envelope{Success: false, RequiresPassword: true, Message: "this share is password protected"})
}

// Fail writes a standardized error envelope for any error value.
//
// Operational errors (apperr.Error) surface their message verbatim at the
// status their code maps to; everything else becomes a generic 500 so
// unknown failures are never leaked to the client.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		c.JSON(statusFor(appErr.Code), Envelope{Success: false, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Envelope{Success: false, Message: "an internal error occurred"})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeAuthFailure:
		return http.StatusUnauthorized
	case apperr.CodeAccountLocked:
		return http.StatusLocked
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeAlreadyExists:
		return http.StatusConflict
	case apperr.CodeQuotaExceeded:
		return http.StatusBadRequest
	case apperr.CodeShareExpired:
		return http.StatusGone
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperr.CodeMissingBlob:
		return http.StatusNotFound
	case apperr.CodeIntegrityFailed, apperr.CodeCryptoFailure, apperr.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
