package controllers

import (
	"net/http"
	"strconv"

	"github.com/posterops/poster-bridge/api/responses"
	"github.com/posterops/poster-bridge/internal/catalog"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

// CatalogItems returns the cached catalog snapshot. `refresh=true`
// bypasses the TTL and forces a refetch from the upstream API.
func CatalogItems(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

		var (
			items []catalog.Item
			err   error
		)
		if force {
			items, err = svc.RefreshCatalog(ctx, "")
		} else {
			items, err = svc.GetCatalog(ctx, "")
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
