package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/posterops/poster-bridge/internal/transactions"
	"github.com/posterops/poster-bridge/pkg/logger"
)

type fakeTransactionSyncer struct {
	result transactions.SyncResult
	err    error
	params []transactions.SyncParams
}

func (f *fakeTransactionSyncer) Sync(_ context.Context, params transactions.SyncParams) (transactions.SyncResult, error) {
	f.params = append(f.params, params)
	return f.result, f.err
}

func TestTransactionSyncJobUsesRollingWindow(t *testing.T) {
	now := time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC)
	syncer := &fakeTransactionSyncer{result: transactions.SyncResult{TotalRows: 5, AffectedRows: 3}}
	job := newTransactionSyncJob(t, syncer, 2)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(syncer.params) != 1 {
		t.Fatalf("expected one sync call, got %d", len(syncer.params))
	}
	if syncer.params[0].DateFrom != "2025-03-02" {
		t.Fatalf("expected dateFrom 2025-03-02, got %q", syncer.params[0].DateFrom)
	}
	if syncer.params[0].DateTo != "" {
		t.Fatalf("expected open upper bound, got %q", syncer.params[0].DateTo)
	}
}

func TestTransactionSyncJobDefaultsWindow(t *testing.T) {
	syncer := &fakeTransactionSyncer{}
	job := newTransactionSyncJob(t, syncer, 0)
	if job.windowDays != defaultSyncWindowDays {
		t.Fatalf("expected default window, got %d", job.windowDays)
	}
}

func TestTransactionSyncJobPropagatesErrors(t *testing.T) {
	syncer := &fakeTransactionSyncer{err: errors.New("boom")}
	job := newTransactionSyncJob(t, syncer, 2)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newTransactionSyncJob(t *testing.T, syncer *fakeTransactionSyncer, windowDays int) *transactionSyncJob {
	t.Helper()
	jobIface, err := NewTransactionSyncJob(TransactionSyncJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		Transactions: syncer,
		WindowDays:   windowDays,
	})
	if err != nil {
		t.Fatalf("NewTransactionSyncJob: %v", err)
	}
	job, ok := jobIface.(*transactionSyncJob)
	if !ok {
		t.Fatalf("expected transactionSyncJob, got %T", jobIface)
	}
	return job
}
