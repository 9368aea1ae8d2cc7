// Package apperr defines the closed error taxonomy shared by every module.
//
// Operational errors carry a Code the transport layer maps to an HTTP status
// and a user-visible Message; anything that isn't an *Error is treated as an
// unknown/internal failure and logged in full rather than leaked to a caller.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies the class of an operational error.
type Code string

const (
	CodeValidation      Code = "validation"
	CodeAuthFailure     Code = "auth_failure"
	CodeAccountLocked   Code = "account_locked"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeAlreadyExists   Code = "already_exists"
	CodeQuotaExceeded   Code = "quota_exceeded"
	CodeShareExpired    Code = "share_expired"
	CodeRateLimited     Code = "rate_limited"
	CodeIntegrityFailed Code = "integrity_failure"
	CodeMissingBlob     Code = "missing_blob"
	CodeCryptoFailure   Code = "crypto_failure"
	CodeInternal        Code = "internal"
)

// Error is an operational error: one whose code and message are safe to
// send to a client. Internal details that must not leak belong in Cause,
// which is logged but never rendered.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an operational error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an operational error that also carries an internal cause,
// for cases where the client-visible message must stay generic
// (IntegrityFailure, CryptoFailure, Internal) while the real cause is logged.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As extracts an *Error from err, following Unwrap chains.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func Validation(msg string) error    { return New(CodeValidation, msg) }
func AuthFailure(msg string) error   { return New(CodeAuthFailure, msg) }
func AccountLocked(msg string) error { return New(CodeAccountLocked, msg) }
func Forbidden(msg string) error     { return New(CodeForbidden, msg) }
func NotFound(msg string) error      { return New(CodeNotFound, msg) }
func AlreadyExists(msg string) error { return New(CodeAlreadyExists, msg) }
func QuotaExceeded(msg string) error { return New(CodeQuotaExceeded, msg) }
func ShareExpired(msg string) error  { return New(CodeShareExpired, msg) }
func RateLimited(msg string) error   { return New(CodeRateLimited, msg) }
func MissingBlob(msg string) error   { return New(CodeMissingBlob, msg) }

func IntegrityFailure(cause error) error {
	return Wrap(CodeIntegrityFailed, "file integrity check failed", cause)
}

func CryptoFailure(cause error) error {
	return Wrap(CodeCryptoFailure, "a cryptographic operation failed", cause)
}

func Internal(cause error) error {
	return Wrap(CodeInternal, "an internal error occurred", cause)
}
