package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/posterops/poster-bridge/internal/catalog"
	"github.com/posterops/poster-bridge/pkg/logger"
)

type fakeCatalogRefresher struct {
	items  []catalog.Item
	err    error
	called int
	tokens []string
}

func (f *fakeCatalogRefresher) RefreshCatalog(_ context.Context, token string) ([]catalog.Item, error) {
	f.called++
	f.tokens = append(f.tokens, token)
	return f.items, f.err
}

func TestCatalogRefreshJobForcesRefresh(t *testing.T) {
	refresher := &fakeCatalogRefresher{items: []catalog.Item{{ID: "1"}, {ID: "2"}}}
	job, err := NewCatalogRefreshJob(CatalogRefreshJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Catalog: refresher,
	})
	if err != nil {
		t.Fatalf("NewCatalogRefreshJob: %v", err)
	}
	if job.Name() != "catalog-refresh" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if refresher.called != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.called)
	}
	if refresher.tokens[0] != "" {
		t.Fatalf("expected the configured token to be used, got %q", refresher.tokens[0])
	}
}

func TestCatalogRefreshJobPropagatesErrors(t *testing.T) {
	refresher := &fakeCatalogRefresher{err: errors.New("boom")}
	job, err := NewCatalogRefreshJob(CatalogRefreshJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Catalog: refresher,
	})
	if err != nil {
		t.Fatalf("NewCatalogRefreshJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
