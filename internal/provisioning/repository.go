package provisioning

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
)

// InstallationRepository persists installation snapshots over GORM.
type InstallationRepository struct {
	db *gorm.DB
}

// NewInstallationRepository builds a repository tied to the provided GORM DB.
func NewInstallationRepository(db *gorm.DB) *InstallationRepository {
	return &InstallationRepository{db: db}
}

// Upsert inserts or refreshes the installation row keyed by tenant.
func (r *InstallationRepository) Upsert(ctx context.Context, installation *models.Installation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"store_name", "production", "active_extensions", "installed_at", "updated_at",
			}),
		}).
		Create(installation).Error
}

// DeleteByTenant removes the installation row for a tenant.
func (r *InstallationRepository) DeleteByTenant(ctx context.Context, tenantID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.Installation{}, "tenant_id = ?", tenantID).Error
}
