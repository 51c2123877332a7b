package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/posterops/poster-bridge/api/responses"
	posterwebhook "github.com/posterops/poster-bridge/internal/webhooks/poster"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

type PosterWebhookService interface {
	Process(ctx context.Context, body []byte) (*posterwebhook.Result, error)
}

// PosterWebhook ingests Poster POS event deliveries. The shared-secret
// check runs in middleware before this handler, so a rejected call never
// reaches the pipeline. The acknowledgement is the flat shape Poster
// expects, not the success envelope.
func PosterWebhook(svc PosterWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading request body"))
			return
		}

		result, err := svc.Process(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}
