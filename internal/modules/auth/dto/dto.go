// Package dto holds the auth module's request/response shapes.
package dto

import (
	"encoding/json"
	"time"
)

type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	CaptchaID       string `json:"captchaId" binding:"required"`
	CaptchaAnswer   string `json:"captchaAnswer" binding:"required"`
}

// CaptchaResponse is the registration challenge handed to an anonymous
// client: Image is a base64-encoded PNG data URI.
type CaptchaResponse struct {
	CaptchaID string `json:"captchaId"`
	Image     string `json:"image"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// UserView is the sanitized, client-facing projection of a User: it never
// carries PasswordHash, FileKey, or FileKeySalt.
type UserView struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	StorageUsed  int64     `json:"storageUsed"`
	StorageLimit int64     `json:"storageLimit"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

type StorageResponse struct {
	Used    int64   `json:"used"`
	Limit   int64   `json:"limit"`
	Percent float64 `json:"percent"`
}

// PasskeyView is the client-facing projection of a bound WebAuthn
// credential: the opaque credential/public-key material never leaves
// the server.
type PasskeyView struct {
	ID           uint      `json:"id"`
	CredentialID string    `json:"credentialId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PasskeyCeremonyRequest carries the session token a Begin call issued
// plus the raw JSON the browser's WebAuthn API produced in response.
type PasskeyCeremonyRequest struct {
	SessionToken string          `json:"sessionToken" binding:"required"`
	Credential   json.RawMessage `json:"credential" binding:"required"`
}
