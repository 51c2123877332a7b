package middleware

import (
	"net/http"

	"github.com/posterops/poster-bridge/api/responses"
	"github.com/posterops/poster-bridge/api/validators"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

// Query parameter names carrying the shared secrets.
const (
	webhookKeyParam = "api-key"
	queryTokenParam = "auth-token"
)

// WebhookKey rejects requests whose api-key query parameter does not
// match the configured webhook secret. Rejection happens before any
// handler side effect, so unauthenticated calls leave no records behind.
func WebhookKey(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireQuerySecret(webhookKeyParam, secret, logg)
}

// QueryToken rejects requests whose auth-token query parameter does not
// match the configured query secret.
func QueryToken(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return requireQuerySecret(queryTokenParam, secret, logg)
}

func requireQuerySecret(param, secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.URL.Query().Get(param)
			if !validators.SecretEquals(got, secret) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "shared secret mismatch"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
