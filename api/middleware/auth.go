package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shipquote-backend/api/responses"
	"github.com/angelmondragon/shipquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/logger"
	"github.com/angelmondragon/shipquote-backend/pkg/session"
)

// OptionToken guards the customer-facing option endpoints: the request
// must carry a bearer token minted for the session it manipulates.
func OptionToken(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			raw = strings.TrimPrefix(raw, "Bearer ")
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing option token"))
				return
			}

			sessionID, err := session.ValidateOptionToken(cfg.Secret, raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid option token"))
				return
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
