// Package orders enriches outbound order webhooks and REST order reads
// with the package-shaped shipping context the remote backend expects.
package orders

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/internal/lineitems"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

const flatRateMethodID = "flat_rate"

// Order is the inbound order snapshot from the host platform.
type Order struct {
	ID                string               `json:"id" validate:"required"`
	Status            string               `json:"status"`
	SessionID         string               `json:"session_id"`
	Items             []lineitems.CartItem `json:"items"`
	RawItems          any                  `json:"raw_items,omitempty"`
	Billing           types.Destination    `json:"billing"`
	Shipping          types.Destination    `json:"shipping"`
	ShippingTotal     decimal.Decimal      `json:"shipping_total"`
	ShippingMethodIDs []string             `json:"shipping_method_ids"`
}

// Authenticator mints the bearer token injected into outbound webhooks.
type Authenticator interface {
	AccessToken(ctx context.Context) (string, error)
	TenantID() string
}

// SessionReader exposes the stored shipping options for a session.
type SessionReader interface {
	ShippingOptions(ctx context.Context, sessionID string) (types.ShippingOptions, bool, error)
}

// Enricher builds order package payloads and signs outbound webhooks.
type Enricher struct {
	normalizer *lineitems.Normalizer
	sessions   SessionReader
	auth       Authenticator
	storeC     config.StoreConfig
	logger     *logger.Logger
}

// NewEnricher wires the order enricher.
func NewEnricher(normalizer *lineitems.Normalizer, sessions SessionReader, auth Authenticator, storeCfg config.StoreConfig, logg *logger.Logger) (*Enricher, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session reader is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Enricher{
		normalizer: normalizer,
		sessions:   sessions,
		auth:       auth,
		storeC:     storeCfg,
		logger:     logg,
	}, nil
}

// UsesManagedShipping reports whether the order shipped on one of our
// rates or on flat rate, the two methods the remote backend reconciles.
func UsesManagedShipping(methodIDs []string) bool {
	for _, id := range methodIDs {
		if id == flatRateMethodID || strings.HasPrefix(id, "shipquote") {
			return true
		}
	}
	return false
}

// BuildPackagePayload assembles the package block for an order. Orders
// whose line items no longer pass validation still ship a payload; the
// raw line items ride along instead of normalized ones.
func (e *Enricher) BuildPackagePayload(ctx context.Context, order Order) (types.OrderPackagePayload, error) {
	ctx = e.logger.WithSessionID(ctx, order.SessionID)

	var contents any
	result, err := e.normalizer.Normalize(ctx, order.Items)
	if err != nil {
		return types.OrderPackagePayload{}, err
	}
	if result.OK() && len(result.Items) > 0 {
		contents = result.Items
	} else {
		if !result.OK() {
			e.logger.Warn(ctx, "order items failed validation; attaching raw contents")
		}
		contents = order.RawItems
	}

	shippingOptions, found, err := e.sessions.ShippingOptions(ctx, order.SessionID)
	if err != nil {
		return types.OrderPackagePayload{}, err
	}
	if !found {
		shippingOptions = types.ShippingOptions{TailLift: enums.TailLiftNone}
	}

	return types.OrderPackagePayload{
		ID:              order.ID,
		Status:          order.Status,
		WebhookSource:   e.auth.TenantID(),
		ViewOrderLink:   e.viewOrderLink(order.ID),
		Destination:     e.resolveDestination(order),
		ShippingTotal:   order.ShippingTotal,
		ShippingOptions: shippingOptions,
		Contents:        contents,
	}, nil
}

// SignWebhook injects the auth and tenant headers on an outbound
// webhook request.
func (e *Enricher) SignWebhook(ctx context.Context, header http.Header) error {
	token, err := e.auth.AccessToken(ctx)
	if err != nil {
		return err
	}
	header.Set("Authorization", token)
	header.Set("instanceId", e.auth.TenantID())
	return nil
}

// resolveDestination uses the order's shipping block as shipped. Phone
// and email are absent from most shipping blocks and fall back to the
// billing values field by field.
func (e *Enricher) resolveDestination(order Order) types.Destination {
	destination := order.Shipping
	if strings.TrimSpace(destination.Phone) == "" {
		destination.Phone = order.Billing.Phone
	}
	if strings.TrimSpace(destination.Email) == "" {
		destination.Email = order.Billing.Email
	}
	return destination
}

func (e *Enricher) viewOrderLink(orderID string) string {
	base := strings.TrimRight(e.storeC.URL, "/")
	return fmt.Sprintf("%s/admin/orders/%s", base, orderID)
}
