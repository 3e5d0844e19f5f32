// Package packages assembles the quotable package: normalized contents,
// resolved destination, and derived shipping options.
package packages

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/internal/lineitems"
	"github.com/angelmondragon/shipquote-backend/internal/options"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

// SessionState is the slice of the session store the assembler reads
// choices from and mirrors derived options into.
type SessionState interface {
	OptionChoice(ctx context.Context, sessionID string, name enums.ShippingOptionName) (enums.OptionChoice, error)
	SetShippingOptions(ctx context.Context, sessionID string, options types.ShippingOptions) error
}

// Request is one package-assembly job. NoCompanySignal is resolved by
// the caller from the live checkout form; see options.Inputs.
type Request struct {
	SessionID       string
	Cart            []lineitems.CartItem
	CartTotal       decimal.Decimal
	Billing         types.Destination
	Shipping        types.Destination
	NoCompanySignal bool
}

// Assembly is the tagged outcome: a quotable package or the validation
// errors that block quoting, never both.
type Assembly struct {
	Package *types.Package
	Errors  []types.ValidationError
}

// OK reports whether a quotable package was produced.
func (a Assembly) OK() bool {
	return a.Package != nil && len(a.Errors) == 0
}

// Messages flattens the validation errors for checkout display.
func (a Assembly) Messages() []string {
	messages := make([]string, 0, len(a.Errors))
	for _, ve := range a.Errors {
		messages = append(messages, ve.Message)
	}
	return messages
}

// Assembler builds packages for the quoting pipeline.
type Assembler struct {
	normalizer *lineitems.Normalizer
	sessions   SessionState
	shipTo     enums.ShipTo
	logger     *logger.Logger
}

// NewAssembler wires the assembler.
func NewAssembler(normalizer *lineitems.Normalizer, sessions SessionState, shipTo enums.ShipTo, logg *logger.Logger) (*Assembler, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if !shipTo.IsValid() {
		return nil, fmt.Errorf("invalid ship-to destination %q", shipTo)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Assembler{
		normalizer: normalizer,
		sessions:   sessions,
		shipTo:     shipTo,
		logger:     logg,
	}, nil
}

// Assemble runs the pipeline for one request. Validation defects come
// back in the Assembly; only infrastructure failures return an error.
func (a *Assembler) Assemble(ctx context.Context, req Request, settings types.MerchantSettings) (Assembly, error) {
	ctx = a.logger.WithSessionID(ctx, req.SessionID)

	result, err := a.normalizer.Normalize(ctx, req.Cart)
	if err != nil {
		return Assembly{}, err
	}
	if !result.OK() {
		a.logger.Warn(a.logger.WithField(ctx, "defects", len(result.Errors)), "cart failed shipping validation")
		return Assembly{Errors: result.Errors}, nil
	}
	if len(result.Items) == 0 {
		return Assembly{Errors: []types.ValidationError{{
			Field:   "contents",
			Message: "no shippable items in cart",
		}}}, nil
	}

	destination := a.resolveDestination(req)
	if !destination.Complete() {
		return Assembly{Errors: []types.ValidationError{{
			Field:   "destination",
			Message: "Incomplete destination address",
		}}}, nil
	}

	maxWeight := maxItemWeight(result.Items)

	receipted, err := a.sessions.OptionChoice(ctx, req.SessionID, enums.ShippingOptionReceiptedDelivery)
	if err != nil {
		return Assembly{}, err
	}
	assurance, err := a.sessions.OptionChoice(ctx, req.SessionID, enums.ShippingOptionTransportAssurance)
	if err != nil {
		return Assembly{}, err
	}

	shippingOptions := options.Derive(options.Inputs{
		Settings:                 settings,
		CartTotal:                req.CartTotal,
		MaxItemWeight:            maxWeight,
		NoCompanySignal:          req.NoCompanySignal,
		ReceiptedDeliveryChoice:  receipted,
		TransportAssuranceChoice: assurance,
	})

	if err := a.sessions.SetShippingOptions(ctx, req.SessionID, shippingOptions); err != nil {
		// Mirroring is best-effort; the quote must not fail on it.
		a.logger.Error(ctx, "failed to mirror shipping options into session", err)
	}

	return Assembly{Package: &types.Package{
		ID:              uuid.NewString(),
		Contents:        result.Items,
		Destination:     destination,
		MaxItemWeight:   maxWeight,
		ShippingOptions: shippingOptions,
	}}, nil
}

// resolveDestination picks the address block per the store's ship-to
// mode. The shipping block never carries an email, so that field is
// always taken from billing.
func (a *Assembler) resolveDestination(req Request) types.Destination {
	if a.shipTo.UsesBilling() {
		return req.Billing
	}
	destination := req.Shipping
	destination.Email = req.Billing.Email
	return destination
}

func maxItemWeight(items []types.LineItem) float64 {
	var max float64
	for _, item := range items {
		if item.Weight > max {
			max = item.Weight
		}
	}
	return max
}
