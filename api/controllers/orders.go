package controllers

import (
	"net/http"

	"github.com/angelmondragon/shipquote-backend/api/responses"
	"github.com/angelmondragon/shipquote-backend/api/validators"
	ordersvc "github.com/angelmondragon/shipquote-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

type orderPayloadResponse struct {
	ManagedShipping bool                       `json:"managed_shipping"`
	Package         *types.OrderPackagePayload `json:"package,omitempty"`
}

// OrderPackagePayload builds the package block for an outbound order
// webhook or REST order read. Orders that shipped on a foreign method
// get no package block.
func OrderPackagePayload(enricher *ordersvc.Enricher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if enricher == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order enricher unavailable"))
			return
		}

		var order ordersvc.Order
		if err := validators.DecodeJSONBody(r, &order); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if !ordersvc.UsesManagedShipping(order.ShippingMethodIDs) {
			responses.WriteSuccess(w, orderPayloadResponse{ManagedShipping: false})
			return
		}

		payload, err := enricher.BuildPackagePayload(ctx, order)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderPayloadResponse{
			ManagedShipping: true,
			Package:         &payload,
		})
	}
}
