package cron

import (
	"context"
	"fmt"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/pkg/logger"
)

type catalogRefresher interface {
	RefreshCatalog(ctx context.Context, token string) ([]catalog.Item, error)
}

type CatalogRefreshJobParams struct {
	Logger  *logger.Logger
	Catalog catalogRefresher
}

// NewCatalogRefreshJob forces a catalog snapshot refresh each cycle so
// webhook enrichment never waits on a cold cache.
func NewCatalogRefreshJob(params CatalogRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	return &catalogRefreshJob{
		logg:    params.Logger,
		catalog: params.Catalog,
	}, nil
}

type catalogRefreshJob struct {
	logg    *logger.Logger
	catalog catalogRefresher
}

func (j *catalogRefreshJob) Name() string { return "catalog-refresh" }

func (j *catalogRefreshJob) Run(ctx context.Context) error {
	items, err := j.catalog.RefreshCatalog(ctx, "")
	if err != nil {
		return fmt.Errorf("catalog refresh: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"items_count": len(items),
	})
	j.logg.Info(logCtx, "catalog refresh complete")
	return nil
}
