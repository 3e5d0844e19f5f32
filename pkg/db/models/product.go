package models

import (
	"time"

	"github.com/google/uuid"
)

// Product mirrors the storefront catalog entry with the fields that
// matter for shipping: physical dimensions, weight, shipping class,
// and the virtual flag. Dimension and weight columns hold the raw
// store-unit values; conversion to metric happens at quoting time.
type Product struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU             string         `gorm:"column:sku;not null;uniqueIndex"`
	Title           string         `gorm:"column:title;not null"`
	Virtual         bool           `gorm:"column:virtual;not null;default:false"`
	Weight          *float64       `gorm:"column:weight;type:numeric(10,3)"`
	Length          *float64       `gorm:"column:length;type:numeric(10,3)"`
	Width           *float64       `gorm:"column:width;type:numeric(10,3)"`
	Height          *float64       `gorm:"column:height;type:numeric(10,3)"`
	ShippingClassID *uuid.UUID     `gorm:"column:shipping_class_id;type:uuid"`
	ShippingClass   *ShippingClass `gorm:"foreignKey:ShippingClassID"`
	Variations      []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariation is a concrete sellable variant. Any shipping field
// left NULL falls back to the parent product at quoting time.
type ProductVariation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex"`
	Title     string    `gorm:"column:title;not null"`
	Weight    *float64  `gorm:"column:weight;type:numeric(10,3)"`
	Length    *float64  `gorm:"column:length;type:numeric(10,3)"`
	Width     *float64  `gorm:"column:width;type:numeric(10,3)"`
	Height    *float64  `gorm:"column:height;type:numeric(10,3)"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
