package controllers

import (
	"net/http"

	"github.com/angelmondragon/shipquote-backend/api/responses"
	"github.com/angelmondragon/shipquote-backend/api/validators"
	provisioningsvc "github.com/angelmondragon/shipquote-backend/internal/provisioning"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/remote"
)

// ValidateCredentials proves the configured remote credentials and
// returns the dashboard link on success.
func ValidateCredentials(svc *provisioningsvc.Service, client *remote.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provisioning service unavailable"))
			return
		}
		if err := svc.ValidateCredentials(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		body := map[string]string{"status": "valid"}
		if client != nil {
			body["dashboard_url"] = client.DashboardURL(ctx)
		}
		responses.WriteSuccess(w, body)
	}
}

// Install registers this instance with the remote backend.
func Install(svc *provisioningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload provisioningsvc.InstallInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Install(ctx, payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "installed"})
	}
}

type updateRequest struct {
	Version string `json:"version" validate:"required"`
}

// Update notifies the remote backend of a version change.
func Update(svc *provisioningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Update(ctx, payload.Version); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated", "version": payload.Version})
	}
}

// Uninstall deregisters this instance and wipes stored credentials.
func Uninstall(svc *provisioningsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := svc.Uninstall(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "uninstalled"})
	}
}
