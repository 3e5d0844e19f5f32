// Package storeopts persists integration state in a key-value option
// store: the tenant UID, minted API secrets, and validation flags.
package storeopts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
)

// Well-known option keys.
const (
	KeyTenantUID        = "tenant_uid"
	KeySecretID         = "api_secret_id"
	KeySecretKey        = "api_secret_key"
	KeyCredentialsValid = "credentials_valid"
	KeyInstalledVersion = "installed_version"
)

// ErrNotFound marks a missing option key.
var ErrNotFound = errors.New("store option not found")

// Store is the option persistence surface.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Repository provides option persistence over GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the value stored under key.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var option models.StoreOption
	err := r.db.WithContext(ctx).First(&option, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return option.Value, nil
}

// Set upserts the value stored under key.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	option := models.StoreOption{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&option).Error
}

// Delete removes the option; deleting a missing key is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&models.StoreOption{}, "key = ?", key).Error
}

// EnsureTenantID returns the persistent tenant identifier for this
// storefront, minting host.<uuid> on first use.
func EnsureTenantID(ctx context.Context, store Store, host string) (string, error) {
	existing, err := store.Get(ctx, KeyTenantUID)
	if err == nil && strings.TrimSpace(existing) != "" {
		return existing, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("storefront host is required to mint a tenant id")
	}
	minted := fmt.Sprintf("%s.%s", host, uuid.NewString())
	if err := store.Set(ctx, KeyTenantUID, minted); err != nil {
		return "", err
	}
	return minted, nil
}
