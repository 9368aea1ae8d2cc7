package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/imranali-mngmt/secureiduploader/internal/model"
)

// PasskeyStore is the metadata store contract for WebAuthn credentials,
// grounded on the teacher's repository.PasskeyStore.
type PasskeyStore interface {
	ListByUserID(ctx context.Context, userID uint) ([]model.PasskeyCredential, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	FindByCredentialID(ctx context.Context, credentialID string) (*model.PasskeyCredential, error)
	Create(ctx context.Context, cred *model.PasskeyCredential) error
	UpdateCredentialData(ctx context.Context, userID uint, credentialID, serialized string) error
	DeleteByID(ctx context.Context, userID, passkeyID uint) error
}

type gormPasskeyStore struct {
	db *gorm.DB
}

func NewPasskeyStore(db *gorm.DB) PasskeyStore {
	return &gormPasskeyStore{db: db}
}

func (s *gormPasskeyStore) ListByUserID(ctx context.Context, userID uint) ([]model.PasskeyCredential, error) {
	var creds []model.PasskeyCredential
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&creds).Error; err != nil {
		return nil, fmt.Errorf("list passkey credentials: %w", err)
	}
	return creds, nil
}

func (s *gormPasskeyStore) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.PasskeyCredential{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count passkey credentials: %w", err)
	}
	return count, nil
}

func (s *gormPasskeyStore) FindByCredentialID(ctx context.Context, credentialID string) (*model.PasskeyCredential, error) {
	var cred model.PasskeyCredential
	if err := s.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find passkey credential: %w", err)
	}
	return &cred, nil
}

func (s *gormPasskeyStore) Create(ctx context.Context, cred *model.PasskeyCredential) error {
	if err := s.db.WithContext(ctx).Create(cred).Error; err != nil {
		return fmt.Errorf("create passkey credential: %w", err)
	}
	return nil
}

func (s *gormPasskeyStore) UpdateCredentialData(ctx context.Context, userID uint, credentialID, serialized string) error {
	tx := s.db.WithContext(ctx).Model(&model.PasskeyCredential{}).
		Where("user_id = ? AND credential_id = ?", userID, credentialID).
		Update("credential", serialized)
	if tx.Error != nil {
		return fmt.Errorf("update passkey credential: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *gormPasskeyStore) DeleteByID(ctx context.Context, userID, passkeyID uint) error {
	tx := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, passkeyID).Delete(&model.PasskeyCredential{})
	if tx.Error != nil {
		return fmt.Errorf("delete passkey credential: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
