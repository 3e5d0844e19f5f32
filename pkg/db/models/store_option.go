package models

import "time"

// StoreOption is one row of the persistent key-value option store used
// for integration state: minted secrets, the tenant UID, validation
// flags, and installation bookkeeping.
type StoreOption struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
