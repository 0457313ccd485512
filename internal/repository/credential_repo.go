package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/saeid-a/tradechat/internal/models"
	"gorm.io/gorm"
)

const credentialRowID = 1

// CredentialRecord is the single sqlite row holding the persisted session.
type CredentialRecord struct {
	ID        uint `gorm:"primaryKey"`
	UserJSON  string
	Token     string
	Expiry    time.Time
	UpdatedAt time.Time
}

func (CredentialRecord) TableName() string {
	return "credentials"
}

type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Load(ctx context.Context) (*models.Credentials, error) {
	var record CredentialRecord
	err := r.db.WithContext(ctx).First(&record, credentialRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(record.UserJSON), &user); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &models.Credentials{
		User:  user,
		Token: models.Token{Token: record.Token, Expiry: record.Expiry.UTC()},
	}, nil
}

func (r *CredentialRepository) Save(ctx context.Context, creds models.Credentials) error {
	user, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	record := CredentialRecord{
		ID:       credentialRowID,
		UserJSON: string(user),
		Token:    creds.Token.Token,
		Expiry:   creds.Token.Expiry.UTC(),
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Delete(&CredentialRecord{}, credentialRowID).Error; err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
