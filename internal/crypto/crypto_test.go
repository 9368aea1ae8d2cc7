package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

func mustUserKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateUserKey()
	if err != nil {
		t.Fatalf("GenerateUserKey: %v", err)
	}
	return key
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	key := mustUserKey(t)
	plaintext := bytes.Repeat([]byte{0x41}, 1024)

	container, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := Decrypt(container, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("roundtrip mismatch: got %d bytes, want %d", len(got), len(plaintext))
	}
}

func TestEncrypt_ContainerLayout(t *testing.T) {
	key := mustUserKey(t)
	plaintext := []byte("container layout check")

	container, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if got, want := len(container), 96+len(plaintext); got != want {
		t.Fatalf("container length = %d, want %d", got, want)
	}
}

func TestEncrypt_FieldOffsets(t *testing.T) {
	key := mustUserKey(t)
	a, err := Encrypt([]byte("offsets"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt([]byte("offsets"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if bytes.Equal(a[0:64], b[0:64]) {
		t.Fatal("expected distinct random salts at offset [0,64)")
	}
	if bytes.Equal(a[64:80], b[64:80]) {
		t.Fatal("expected distinct random ivs at offset [64,80)")
	}
	if bytes.Equal(a[80:96], b[80:96]) {
		t.Fatal("expected distinct tags at offset [80,96)")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	key := mustUserKey(t)
	other := mustUserKey(t)
	plaintext := []byte("secret bytes")

	container, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = Decrypt(container, other)
	if err == nil {
		t.Fatal("expected decrypt with wrong key to fail")
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != apperr.CodeIntegrityFailed {
		t.Fatalf("expected IntegrityFailure, got %v", err)
	}
}

func TestDecrypt_TamperedByteFails(t *testing.T) {
	key := mustUserKey(t)
	plaintext := []byte("tamper-detection test payload")

	container, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tampered := bytes.Clone(container)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = Decrypt(tampered, key)
	if err == nil {
		t.Fatal("expected decrypt of tampered container to fail")
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != apperr.CodeIntegrityFailed {
		t.Fatalf("expected IntegrityFailure, got %v", err)
	}
}

func TestDecrypt_TruncatedFails(t *testing.T) {
	key := mustUserKey(t)
	container, err := Encrypt([]byte("x"), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = Decrypt(container[:10], key)
	if err == nil {
		t.Fatal("expected decrypt of truncated container to fail")
	}
}

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("hello"))
	b := Hash([]byte("hello"))
	if a != b {
		t.Fatalf("hash not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d", len(a))
	}
}

func TestFileChecksum_MatchesHash(t *testing.T) {
	data := []byte("checksum me")
	sum, err := FileChecksum(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("FileChecksum: %v", err)
	}
	if sum != Hash(data) {
		t.Fatalf("FileChecksum = %s, want %s", sum, Hash(data))
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	digest, err := HashPassword("Aa1!aaaa")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("Aa1!aaaa", digest) {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword("wrong-password", digest) {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestRandomToken_Length(t *testing.T) {
	token, err := RandomToken(32)
	if err != nil {
		t.Fatalf("RandomToken: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64-char hex token, got %d", len(token))
	}
	if strings.ToLower(token) != token {
		t.Fatalf("expected lowercase hex token, got %q", token)
	}
}
