package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/posterops/poster-bridge/internal/transactions"
	"github.com/posterops/poster-bridge/pkg/logger"
)

const defaultSyncWindowDays = 2

type transactionSyncer interface {
	Sync(ctx context.Context, params transactions.SyncParams) (transactions.SyncResult, error)
}

type TransactionSyncJobParams struct {
	Logger       *logger.Logger
	Transactions transactionSyncer
	WindowDays   int
}

// NewTransactionSyncJob pulls recent transactions each cycle, catching
// deliveries the webhook path missed. The window overlaps previous
// runs; the bulk insert absorbs the duplicates.
func NewTransactionSyncJob(params TransactionSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction service required")
	}
	windowDays := params.WindowDays
	if windowDays <= 0 {
		windowDays = defaultSyncWindowDays
	}
	return &transactionSyncJob{
		logg:         params.Logger,
		transactions: params.Transactions,
		windowDays:   windowDays,
		now:          time.Now,
	}, nil
}

type transactionSyncJob struct {
	logg         *logger.Logger
	transactions transactionSyncer
	windowDays   int
	now          func() time.Time
}

func (j *transactionSyncJob) Name() string { return "transaction-sync" }

func (j *transactionSyncJob) Run(ctx context.Context) error {
	dateFrom := j.now().UTC().AddDate(0, 0, -j.windowDays).Format("2006-01-02")
	result, err := j.transactions.Sync(ctx, transactions.SyncParams{DateFrom: dateFrom})
	if err != nil {
		return fmt.Errorf("transaction sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"date_from":           dateFrom,
		"total_rows":          result.TotalRows,
		"affected_rows":       result.AffectedRows,
		"affected_with_error": result.AffectedWithError,
		"pages_processed":     result.PagesProcessed,
	})
	j.logg.Info(logCtx, "transaction sync complete")
	return nil
}
