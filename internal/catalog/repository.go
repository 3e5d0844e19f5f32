package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
)

// Reader is the catalog lookup surface the quoting pipeline depends on.
type Reader interface {
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	GetVariationBySKU(ctx context.Context, sku string) (*models.ProductVariation, *models.Product, error)
}

// Repository provides catalog persistence over GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProductBySKU loads a product with its shipping class.
func (r *Repository) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("ShippingClass").
		First(&product, "sku = ?", sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// GetVariationBySKU loads a variation together with its parent product.
func (r *Repository) GetVariationBySKU(ctx context.Context, sku string) (*models.ProductVariation, *models.Product, error) {
	var variation models.ProductVariation
	err := r.db.WithContext(ctx).First(&variation, "sku = ?", sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variation not found")
		}
		return nil, nil, err
	}

	var parent models.Product
	err = r.db.WithContext(ctx).
		Preload("ShippingClass").
		First(&parent, "id = ?", variation.ProductID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variation parent product not found")
		}
		return nil, nil, err
	}
	return &variation, &parent, nil
}

// UpsertProduct inserts or updates a product keyed by SKU.
func (r *Repository) UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ListIncomplete returns non-virtual products missing at least one
// shipping measurement, for the merchant-facing catalog audit.
func (r *Repository) ListIncomplete(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("ShippingClass").
		Where("virtual = ?", false).
		Where("weight IS NULL OR length IS NULL OR width IS NULL OR height IS NULL OR weight <= 0").
		Order("sku ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
