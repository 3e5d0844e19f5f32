package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Installation is the snapshot persisted when this instance registers
// itself with the remote backend. ActiveExtensions records the
// storefront's installed extension slugs at install time; the remote
// side uses it for compatibility diagnostics.
type Installation struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         string         `gorm:"column:tenant_id;not null;uniqueIndex"`
	StoreName        string         `gorm:"column:store_name;not null"`
	Production       bool           `gorm:"column:production;not null;default:false"`
	ActiveExtensions pq.StringArray `gorm:"column:active_extensions;type:text[];not null;default:ARRAY[]::text[]"`
	InstalledAt      time.Time      `gorm:"column:installed_at;not null"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
