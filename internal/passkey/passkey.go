// Package passkey builds the WebAuthn client and ceremony session store
// backing passwordless login, grounded on the teacher's
// internal/service/passkey_service*.go.
package passkey

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
)

// SessionTTL bounds how long a begun ceremony (registration or login) may
// stay unfinished before its challenge is discarded.
const SessionTTL = 5 * time.Minute

// NewClient builds a *webauthn.WebAuthn whose relying-party ID and allowed
// origin are derived from the site's public base URL: RPID must be a bare
// hostname and RPOrigins must be the exact scheme+host the browser sends,
// both enforced strictly by authenticators and browsers.
func NewClient(baseURL, siteName string) (*webauthn.WebAuthn, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return nil, apperr.Validation("a valid public base URL is required to enable passkeys")
	}
	if siteName == "" {
		siteName = "Vault"
	}

	client, err := webauthn.New(&webauthn.Config{
		RPDisplayName: siteName,
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{parsed.Scheme + "://" + parsed.Host},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return client, nil
}

// User adapts a vault account plus its stored credentials to
// webauthn.User. WebAuthnID encodes the account id as decimal digits so a
// discoverable login's returned user handle can be parsed back with
// ParseUserHandle.
type User struct {
	ID          uint
	Username    string
	Credentials []webauthn.Credential
}

func (u *User) WebAuthnID() []byte                        { return []byte(strconv.FormatUint(uint64(u.ID), 10)) }
func (u *User) WebAuthnName() string                       { return u.Username }
func (u *User) WebAuthnDisplayName() string                 { return u.Username }
func (u *User) WebAuthnCredentials() []webauthn.Credential { return u.Credentials }

// ParseUserHandle decodes the user handle a discoverable-login assertion
// returns back into an account id, reversing User.WebAuthnID.
func ParseUserHandle(handle []byte) (uint, error) {
	id, err := strconv.ParseUint(string(handle), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid passkey user handle")
	}
	return uint(id), nil
}

// CredentialRequest wraps a client's raw ceremony-completion JSON in the
// *http.Request shape go-webauthn's Finish* methods parse, grounded on
// the teacher's BuildPasskeyCredentialRequest.
func CredentialRequest(body []byte) (*http.Request, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, apperr.Validation("passkey credential payload is empty")
	}
	req, err := http.NewRequest(http.MethodPost, "/", bytes.NewReader(trimmed))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// EncodeCredentialID renders a raw WebAuthn credential ID as the string
// form stored in model.PasskeyCredential.CredentialID.
func EncodeCredentialID(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}

// storedCredential mirrors webauthn.Credential without its large, unused
// Attestation object, keeping the persisted row small.
type storedCredential struct {
	ID              []byte                    `json:"id"`
	PublicKey       []byte                    `json:"publicKey"`
	AttestationType string                    `json:"attestationType"`
	Transport       []string                  `json:"transport"`
	Flags           webauthn.CredentialFlags  `json:"flags"`
	Authenticator   webauthn.Authenticator    `json:"authenticator"`
}

// MarshalCredential serializes a verified credential for storage.
func MarshalCredential(cred *webauthn.Credential) (string, error) {
	if cred == nil {
		return "", fmt.Errorf("credential is nil")
	}
	transports := make([]string, 0, len(cred.Transport))
	for _, t := range cred.Transport {
		transports = append(transports, string(t))
	}
	raw, err := json.Marshal(storedCredential{
		ID:              cred.ID,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		Transport:       transports,
		Flags:           cred.Flags,
		Authenticator:   cred.Authenticator,
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// UnmarshalCredential reverses MarshalCredential.
func UnmarshalCredential(serialized string) (webauthn.Credential, error) {
	var stored storedCredential
	if err := json.Unmarshal([]byte(serialized), &stored); err != nil {
		return webauthn.Credential{}, err
	}
	transports := make([]protocol.AuthenticatorTransport, 0, len(stored.Transport))
	for _, t := range stored.Transport {
		transports = append(transports, protocol.AuthenticatorTransport(t))
	}
	return webauthn.Credential{
		ID:              stored.ID,
		PublicKey:       stored.PublicKey,
		AttestationType: stored.AttestationType,
		Transport:       transports,
		Flags:           stored.Flags,
		Authenticator:   stored.Authenticator,
	}, nil
}

// sessionEntry is a ceremony in progress: the WebAuthn challenge the
// client must answer, plus the account it is scoped to (0 for a
// discoverable login, which has no account until the assertion resolves
// one).
type sessionEntry struct {
	userID    uint
	data      webauthn.SessionData
	expiresAt time.Time
}

// SessionStore holds in-flight registration/login ceremonies. It is an
// in-process sync.Map, grounded on the teacher's passkeySessionStore
// fallback path — a single vaultd process owns every ceremony end to end,
// so there is no multi-instance sharing requirement to justify adding
// Redis to this path the way internal/sharecache does for share passwords.
type SessionStore struct {
	sessions sync.Map
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Put stores a ceremony's challenge and returns the one-time token the
// client must echo back to Take.
func (s *SessionStore) Put(userID uint, data *webauthn.SessionData) (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", apperr.Internal(err)
	}
	id := base64.RawURLEncoding.EncodeToString(token)
	s.sessions.Store(id, sessionEntry{userID: userID, data: *data, expiresAt: time.Now().Add(SessionTTL)})
	return id, nil
}

// Take consumes the ceremony named by id: a session may be finished only
// once, which is what makes a captured challenge unreplayable. requireUser
// of 0 skips the ownership check (discoverable login has no account yet).
func (s *SessionStore) Take(id string, requireUser uint) (*webauthn.SessionData, error) {
	raw, ok := s.sessions.LoadAndDelete(id)
	if !ok {
		return nil, apperr.Validation("passkey session not found or already used")
	}
	entry, ok := raw.(sessionEntry)
	if !ok {
		return nil, apperr.Internal(fmt.Errorf("corrupt passkey session entry"))
	}
	if time.Now().After(entry.expiresAt) {
		return nil, apperr.Validation("passkey session has expired")
	}
	if requireUser != 0 && entry.userID != requireUser {
		return nil, apperr.Forbidden("passkey session does not belong to this account")
	}
	return &entry.data, nil
}
