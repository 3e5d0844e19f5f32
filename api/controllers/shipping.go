package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/api/middleware"
	"github.com/angelmondragon/shipquote-backend/api/responses"
	"github.com/angelmondragon/shipquote-backend/api/validators"
	"github.com/angelmondragon/shipquote-backend/internal/lineitems"
	"github.com/angelmondragon/shipquote-backend/internal/options"
	"github.com/angelmondragon/shipquote-backend/internal/packages"
	"github.com/angelmondragon/shipquote-backend/internal/quotes"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/session"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

type calculateRatesRequest struct {
	SessionID string               `json:"session_id" validate:"required"`
	Cart      []lineitems.CartItem `json:"cart" validate:"required,min=1,dive"`
	CartTotal decimal.Decimal      `json:"cart_total"`
	Billing   types.Destination    `json:"billing"`
	Shipping  types.Destination    `json:"shipping"`
}

type calculateRatesResponse struct {
	Success         bool                   `json:"success"`
	Rates           []types.RateLine       `json:"rates,omitempty"`
	Errors          []string               `json:"errors,omitempty"`
	ShippingOptions *types.ShippingOptions `json:"shipping_options,omitempty"`
	Checkboxes      options.Visibility     `json:"checkboxes"`
	OptionsToken    string                 `json:"options_token,omitempty"`
}

// QuoteSessionWriter stores the last quote response for a session.
type QuoteSessionWriter interface {
	SetQuotes(ctx context.Context, sessionID string, resp types.QuoteResponse) error
}

// OptionSessionWriter records checkbox toggles and invalidates rates.
type OptionSessionWriter interface {
	SetOptionChoice(ctx context.Context, sessionID string, name enums.ShippingOptionName, choice enums.OptionChoice) error
	InvalidateRates(ctx context.Context, sessionID string) error
}

// CalculateRates runs the quoting pipeline for a checkout snapshot.
func CalculateRates(assembler *packages.Assembler, quoteSvc *quotes.Service, sessions QuoteSessionWriter, sessionCfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if assembler == nil || quoteSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quoting pipeline unavailable"))
			return
		}

		var payload calculateRatesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !session.SessionIDValid(payload.SessionID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id"))
			return
		}
		ctx = logg.WithSessionID(ctx, payload.SessionID)

		settings, err := quoteSvc.Settings(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		checkboxes := options.VisibleCheckboxes(settings, payload.CartTotal)
		optionsToken, err := session.MintOptionToken(sessionCfg.Secret, payload.SessionID, time.Now(), sessionCfg.TTL)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		assembly, err := assembler.Assemble(ctx, packages.Request{
			SessionID:       payload.SessionID,
			Cart:            payload.Cart,
			CartTotal:       payload.CartTotal,
			Billing:         payload.Billing,
			Shipping:        payload.Shipping,
			NoCompanySignal: noCompanySignal(payload.Billing),
		}, settings)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !assembly.OK() {
			responses.WriteSuccess(w, calculateRatesResponse{
				Success:      false,
				Errors:       assembly.Messages(),
				Checkboxes:   checkboxes,
				OptionsToken: optionsToken,
			})
			return
		}

		quoteResp, err := quoteSvc.GetRates(ctx, *assembly.Package)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if sessions != nil {
			if err := sessions.SetQuotes(ctx, payload.SessionID, quoteResp); err != nil {
				logg.Error(ctx, "failed to store quotes in session", err)
			}
		}
		if !quoteResp.Success {
			responses.WriteSuccess(w, calculateRatesResponse{
				Success:      false,
				Errors:       quoteResp.Errors,
				Checkboxes:   checkboxes,
				OptionsToken: optionsToken,
			})
			return
		}

		shippingOptions := assembly.Package.ShippingOptions
		responses.WriteSuccess(w, calculateRatesResponse{
			Success:         true,
			Rates:           quoteSvc.MapRates(quoteResp),
			ShippingOptions: &shippingOptions,
			Checkboxes:      checkboxes,
			OptionsToken:    optionsToken,
		})
	}
}

type updateOptionRequest struct {
	Option string `json:"option" validate:"required,oneof=receiptedDelivery transportAssurance"`
	Choice string `json:"choice" validate:"required,oneof=yes no"`
}

// UpdateShippingOption records a checkbox toggle for the authenticated
// session and invalidates its cached rates.
func UpdateShippingOption(sessions OptionSessionWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := middleware.SessionIDFromContext(ctx)
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		var payload updateOptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		name, err := enums.ParseShippingOptionName(payload.Option)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid option"))
			return
		}
		choice, err := enums.ParseOptionChoice(payload.Choice)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid choice"))
			return
		}

		if err := sessions.SetOptionChoice(ctx, sessionID, name, choice); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := sessions.InvalidateRates(ctx, sessionID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"option": name.String(),
			"choice": choice.String(),
		})
	}
}

// noCompanySignal reports a residential delivery: the checkout form
// carried no company name on the billing block.
func noCompanySignal(billing types.Destination) bool {
	return strings.TrimSpace(billing.Company) == ""
}
