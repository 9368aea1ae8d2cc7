package service

import (
	"context"
	"errors"

	gowebauthn "github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/apperr"
	"github.com/imranali-mngmt/secureiduploader/internal/model"
	"github.com/imranali-mngmt/secureiduploader/internal/modules/auth/dto"
	"github.com/imranali-mngmt/secureiduploader/internal/passkey"
)

// maxPasskeysPerUser bounds how many credentials one account may register,
// grounded on the teacher's consts.MaxUserPasskeyCount.
const maxPasskeysPerUser = 10

func (s *Service) requirePasskeys() error {
	if s.webauthn == nil || s.sessions == nil {
		return apperr.Internal(errors.New("passkey login is not configured on this deployment"))
	}
	return nil
}

func (s *Service) loadPasskeyUser(ctx context.Context, userID uint) (*passkey.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	records, err := s.passkeys.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	creds := make([]webauthn.Credential, 0, len(records))
	for _, rec := range records {
		cred, err := passkey.UnmarshalCredential(rec.Credential)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		creds = append(creds, cred)
	}
	return &passkey.User{ID: u.ID, Username: u.Username, Credentials: creds}, nil
}

// BeginPasskeyRegistration issues a registration challenge for an already
// authenticated account and returns the session token the client must
// echo back to FinishPasskeyRegistration, alongside the creation options
// to hand the browser's navigator.credentials.create().
func (s *Service) BeginPasskeyRegistration(ctx context.Context, userID uint) (string, *gowebauthn.CredentialCreation, error) {
	if err := s.requirePasskeys(); err != nil {
		return "", nil, err
	}

	count, err := s.passkeys.CountByUserID(ctx, userID)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	if count >= maxPasskeysPerUser {
		return "", nil, apperr.Validation("this account has reached the maximum number of passkeys")
	}

	user, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	exclusions := make([]gowebauthn.CredentialDescriptor, 0, len(user.Credentials))
	for _, cred := range user.Credentials {
		exclusions = append(exclusions, cred.Descriptor())
	}

	creation, sessionData, err := s.webauthn.BeginRegistration(
		user,
		webauthn.WithResidentKeyRequirement(gowebauthn.ResidentKeyRequirementRequired),
		webauthn.WithExclusions(exclusions),
	)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	token, err := s.sessions.Put(userID, sessionData)
	if err != nil {
		return "", nil, err
	}
	return token, creation, nil
}

// FinishPasskeyRegistration verifies the browser's attestation against the
// challenge named by sessionToken and persists the resulting credential.
func (s *Service) FinishPasskeyRegistration(ctx context.Context, userID uint, sessionToken string, credentialJSON []byte) error {
	if err := s.requirePasskeys(); err != nil {
		return err
	}

	sessionData, err := s.sessions.Take(sessionToken, userID)
	if err != nil {
		return err
	}

	user, err := s.loadPasskeyUser(ctx, userID)
	if err != nil {
		return err
	}

	req, err := passkey.CredentialRequest(credentialJSON)
	if err != nil {
		return err
	}

	credential, err := s.webauthn.FinishRegistration(user, *sessionData, req)
	if err != nil {
		return apperr.Validation("passkey registration could not be verified")
	}

	credentialID := passkey.EncodeCredentialID(credential.ID)
	if existing, err := s.passkeys.FindByCredentialID(ctx, credentialID); err != nil {
		return apperr.Internal(err)
	} else if existing != nil {
		return apperr.AlreadyExists("this passkey is already registered")
	}

	serialized, err := passkey.MarshalCredential(credential)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := s.passkeys.Create(ctx, &model.PasskeyCredential{
		UserID:       userID,
		CredentialID: credentialID,
		Credential:   serialized,
	}); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ListPasskeys returns the credential ids bound to an account, without
// their opaque key material.
func (s *Service) ListPasskeys(ctx context.Context, userID uint) ([]dto.PasskeyView, error) {
	records, err := s.passkeys.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	views := make([]dto.PasskeyView, 0, len(records))
	for _, rec := range records {
		views = append(views, dto.PasskeyView{
			ID:           rec.ID,
			CredentialID: rec.CredentialID,
			CreatedAt:    rec.CreatedAt,
		})
	}
	return views, nil
}

// DeletePasskey removes one of an account's bound credentials.
func (s *Service) DeletePasskey(ctx context.Context, userID, passkeyID uint) error {
	if err := s.passkeys.DeleteByID(ctx, userID, passkeyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("passkey not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

// BeginPasskeyLogin issues a discoverable (usernameless) login challenge:
// the authenticator itself picks which bound credential to assert with,
// so no account needs to be identified up front.
func (s *Service) BeginPasskeyLogin(ctx context.Context) (string, *gowebauthn.CredentialAssertion, error) {
	if err := s.requirePasskeys(); err != nil {
		return "", nil, err
	}

	assertion, sessionData, err := s.webauthn.BeginDiscoverableLogin(
		webauthn.WithUserVerification(gowebauthn.VerificationPreferred),
	)
	if err != nil {
		return "", nil, apperr.Internal(err)
	}

	token, err := s.sessions.Put(0, sessionData)
	if err != nil {
		return "", nil, err
	}
	return token, assertion, nil
}

// FinishPasskeyLogin verifies a discoverable login assertion, updates the
// credential's stored signature counter (the library's main replay
// defense), and issues a bearer token through the same path Login uses.
func (s *Service) FinishPasskeyLogin(ctx context.Context, sessionToken string, credentialJSON []byte) (*dto.AuthResponse, error) {
	if err := s.requirePasskeys(); err != nil {
		return nil, err
	}

	sessionData, err := s.sessions.Take(sessionToken, 0)
	if err != nil {
		return nil, err
	}

	req, err := passkey.CredentialRequest(credentialJSON)
	if err != nil {
		return nil, err
	}

	var resolved *passkey.User
	validatedCredential, err := s.webauthn.FinishDiscoverableLogin(
		func(rawID, userHandle []byte) (webauthn.User, error) {
			userID, parseErr := passkey.ParseUserHandle(userHandle)
			if parseErr != nil {
				return nil, parseErr
			}
			user, loadErr := s.loadPasskeyUser(ctx, userID)
			if loadErr != nil {
				return nil, loadErr
			}
			resolved = user
			return user, nil
		},
		*sessionData,
		req,
	)
	if err != nil {
		return nil, apperr.AuthFailure("passkey login failed")
	}

	if resolved == nil {
		return nil, apperr.Internal(errors.New("passkey login resolved no user"))
	}
	user := resolved

	serialized, err := passkey.MarshalCredential(validatedCredential)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.passkeys.UpdateCredentialData(ctx, user.ID, passkey.EncodeCredentialID(validatedCredential.ID), serialized); err != nil {
		return nil, apperr.Internal(err)
	}

	u, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u == nil || !u.Active {
		return nil, apperr.AuthFailure("passkey login failed")
	}

	token, err := s.GenerateToken(u)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &dto.AuthResponse{User: toUserView(u), Token: token}, nil
}
