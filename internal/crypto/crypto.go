// Package crypto implements the vault's cryptographic primitive layer:
// AEAD encryption at rest, password-based key derivation, password
// hashing, and checksums. The AES-GCM/salt-derivation shape is grounded
// on the pack's AES helpers; PBKDF2 replaces Argon2 because the container
// format mandates PBKDF2-HMAC-SHA512 with fixed, reproducible parameters.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

const (
	// UserKeySize is the size, in bytes, of a user's long-lived file key.
	UserKeySize = 32

	saltSize = 64
	ivSize   = 16
	tagSize  = 16

	// kdfIterations and the KDF hash (SHA-512) are fixed system-wide so a container
	// encrypted today can always be decrypted later: varying them per
	// file would make the embedded salt insufficient to reproduce the
	// data key.
	kdfIterations = 100_000
	dataKeySize   = 32

	bcryptCost = 12
)

// GenerateUserKey returns a fresh 32-byte key for a newly registered user.
func GenerateUserKey() ([]byte, error) {
	key := make([]byte, UserKeySize)
	if _, err := io.ReadFull(cryptorand.Reader, key); err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("generate user key: %w", err))
	}
	return key, nil
}

// deriveDataKey reproduces the 32-byte AES key for a container from the
// user's long-lived key and the container's embedded salt. Parameters are
// fixed (see kdfIterations) so this is reproducible verbatim at decrypt
// time without storing anything beyond the salt itself.
func deriveDataKey(userKey, salt []byte) []byte {
	return pbkdf2.Key(userKey, salt, kdfIterations, dataKeySize, sha512.New)
}

// Encrypt seals plaintext under the user's key, returning a container
// laid out as: salt(64) || iv(16) || tag(16) || ciphertext. No version or
// framing byte precedes it; the format itself is the version.
func Encrypt(plaintext, userKey []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(cryptorand.Reader, salt); err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("generate salt: %w", err))
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(cryptorand.Reader, iv); err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("generate iv: %w", err))
	}

	dataKey := deriveDataKey(userKey, salt)
	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("new cipher: %w", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("new gcm: %w", err))
	}

	// Seal appends the tag after the ciphertext; the container layout
	// wants it between iv and ciphertext, so split it back out here.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	container := make([]byte, 0, saltSize+ivSize+tagSize+len(ciphertext))
	container = append(container, salt...)
	container = append(container, iv...)
	container = append(container, tag...)
	container = append(container, ciphertext...)
	return container, nil
}

// Decrypt opens a container produced by Encrypt, verifying the GCM tag.
// Truncated containers or a tag mismatch surface as IntegrityFailure.
func Decrypt(container, userKey []byte) ([]byte, error) {
	if len(container) < saltSize+ivSize+tagSize {
		return nil, apperr.IntegrityFailure(fmt.Errorf("container too short: %d bytes", len(container)))
	}

	salt := container[0:saltSize]
	iv := container[saltSize : saltSize+ivSize]
	tag := container[saltSize+ivSize : saltSize+ivSize+tagSize]
	ciphertext := container[saltSize+ivSize+tagSize:]

	dataKey := deriveDataKey(userKey, salt)
	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("new cipher: %w", err))
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, apperr.CryptoFailure(fmt.Errorf("new gcm: %w", err))
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, apperr.IntegrityFailure(fmt.Errorf("gcm open: %w", err))
	}
	return plaintext, nil
}

// Hash returns the lowercase hex SHA-256 digest of b.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FileChecksum streams r through SHA-256, never holding the full file in
// memory, and returns the lowercase hex digest.
func FileChecksum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", apperr.Internal(fmt.Errorf("checksum file: %w", err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashPassword produces a memory-hard, salted digest suitable for storage.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", apperr.CryptoFailure(fmt.Errorf("hash password: %w", err))
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches the stored digest.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// RandomToken returns n cryptographically random bytes, hex-encoded.
// Used for share tokens (n=32) and similar opaque identifiers.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(cryptorand.Reader, buf); err != nil {
		return "", apperr.CryptoFailure(fmt.Errorf("generate token: %w", err))
	}
	return hex.EncodeToString(buf), nil
}
