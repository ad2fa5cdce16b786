package license

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
	"github.com/hugh/langhub/pkg/crypto"
	"gorm.io/gorm"
)

var (
	ErrInvalidLicense  = errors.New("invalid license")
	ErrLicenseNotFound = errors.New("license not found")
)

var _ access.LicenseProvider = (*Service)(nil)

// Payload is the signed content of a license before sealing.
type Payload struct {
	Licensee     string                     `json:"licensee"`
	Restrictions access.LicenseRestrictions `json:"restrictions"`
	StartsAt     time.Time                  `json:"starts_at"`
	ExpiresAt    time.Time                  `json:"expires_at"`
}

func (p *Payload) Validate() error {
	if strings.TrimSpace(p.Licensee) == "" {
		return fmt.Errorf("%w: licensee is required", ErrInvalidLicense)
	}
	if _, ok := access.ParsePlan(string(p.Restrictions.Plan)); !ok {
		return fmt.Errorf("%w: unknown plan %q", ErrInvalidLicense, p.Restrictions.Plan)
	}
	if p.StartsAt.IsZero() || p.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: starts_at and expires_at are required", ErrInvalidLicense)
	}
	if !p.ExpiresAt.After(p.StartsAt) {
		return fmt.Errorf("%w: expires_at must be after starts_at", ErrInvalidLicense)
	}
	return nil
}

// Issue seals a payload for the instance identified by publicKey.
func Issue(publicKey string, p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return crypto.SealFor(publicKey, data)
}

// Service stores instance licenses and answers which one is in force.
type Service struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	now       func() time.Time
}

func NewService(db *gorm.DB, encryptor *crypto.Encryptor) *Service {
	return &Service{db: db, encryptor: encryptor, now: time.Now}
}

// Recipient is the public key licenses for this instance are sealed to.
func (s *Service) Recipient() string {
	return s.encryptor.PublicKey()
}

// Import opens a sealed license, validates it and stores it.
func (s *Service) Import(ctx context.Context, sealed string) (*models.License, error) {
	p, err := s.open(sealed)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lic := models.License{
		Licensee:  p.Licensee,
		Plan:      string(p.Restrictions.Plan),
		Data:      strings.TrimSpace(sealed),
		StartsAt:  p.StartsAt.UTC(),
		ExpiresAt: p.ExpiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&lic).Error; err != nil {
		return nil, fmt.Errorf("storing license: %w", err)
	}
	return &lic, nil
}

// CurrentActiveLicense returns the newest license whose validity window
// contains now, or nil. A stored license that no longer decrypts is an
// error, never an absent license.
func (s *Service) CurrentActiveLicense(ctx context.Context) (*access.License, error) {
	now := s.now().UTC()

	var lic models.License
	err := s.db.WithContext(ctx).
		Where("starts_at <= ? AND expires_at >= ?", now, now).
		Order("created_at DESC").
		First(&lic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	p, err := s.open(lic.Data)
	if err != nil {
		return nil, fmt.Errorf("license %s: %w", lic.ID, err)
	}

	return &access.License{
		ID:           lic.ID,
		Licensee:     p.Licensee,
		Restrictions: p.Restrictions,
		StartsAt:     p.StartsAt,
		ExpiresAt:    p.ExpiresAt,
	}, nil
}

// List returns every stored license, newest first.
func (s *Service) List(ctx context.Context) ([]models.License, error) {
	var licenses []models.License
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&licenses).Error
	return licenses, err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.License{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

func (s *Service) open(sealed string) (*Payload, error) {
	data, err := s.encryptor.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLicense, err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLicense, err)
	}
	return &p, nil
}
