package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/shipquote-backend/api/responses"
	catalogsvc "github.com/angelmondragon/shipquote-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
)

type incompleteProduct struct {
	SKU     string   `json:"sku"`
	Title   string   `json:"title"`
	Missing []string `json:"missing"`
}

// CatalogIncomplete lists products that cannot quote because shipping
// measurements are missing, for the merchant-facing audit screen.
func CatalogIncomplete(repo *catalogsvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository unavailable"))
			return
		}

		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 || parsed > 500 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be between 1 and 500"))
				return
			}
			limit = parsed
		}

		products, err := repo.ListIncomplete(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]incompleteProduct, 0, len(products))
		for _, product := range products {
			entry := incompleteProduct{SKU: product.SKU, Title: product.Title}
			if product.Weight == nil || *product.Weight <= 0 {
				entry.Missing = append(entry.Missing, "weight")
			}
			if product.Length == nil {
				entry.Missing = append(entry.Missing, "length")
			}
			if product.Width == nil {
				entry.Missing = append(entry.Missing, "width")
			}
			if product.Height == nil {
				entry.Missing = append(entry.Missing, "height")
			}
			out = append(out, entry)
		}
		responses.WriteSuccess(w, map[string]any{"products": out})
	}
}
