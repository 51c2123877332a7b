package transactions

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/pubsub"
	"github.com/posterops/poster-bridge/pkg/store"
)

const (
	dayStartSuffix = " 00:00:00"
	dayEndSuffix   = " 23:59:59"

	defaultListLimit = 100
)

type feedAPI interface {
	GetTransactions(ctx context.Context, params poster.TransactionListParams) (*poster.TransactionPage, error)
}

type recordStore interface {
	Find(ctx context.Context, collection string, filter store.Filter, opts store.FindOptions) ([]store.Document, error)
	InsertMany(ctx context.Context, collection, identityField string, docs []store.Document) (store.InsertManyResult, error)
}

type syncPublisher interface {
	PublishSyncCompleted(ctx context.Context, event pubsub.SyncCompletedEvent) (string, error)
}

// Service reads stored transactions and pulls the upstream feed in bulk.
type Service interface {
	// List returns stored transactions closed inside the inclusive date
	// window, newest first per the backing store's natural order.
	List(ctx context.Context, params ListParams) ([]store.Document, error)

	// Sync walks the paginated upstream feed newest-first and inserts
	// every transaction closed inside the window, skipping rows that are
	// already stored.
	Sync(ctx context.Context, params SyncParams) (SyncResult, error)
}

// ServiceParams wire the transaction service.
type ServiceParams struct {
	Feed   feedAPI
	Store  recordStore
	Logger *logger.Logger

	// Publisher is optional; completion events are skipped when unset.
	Publisher syncPublisher

	PerPage       int
	MaxEmptyPages int
}

type service struct {
	feed          feedAPI
	store         recordStore
	publisher     syncPublisher
	perPage       int
	maxEmptyPages int
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the transaction service.
func NewService(params ServiceParams) (Service, error) {
	if params.Feed == nil {
		return nil, fmt.Errorf("feed api is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if params.PerPage <= 0 {
		return nil, fmt.Errorf("per page must be positive")
	}
	if params.MaxEmptyPages <= 0 {
		return nil, fmt.Errorf("max empty pages must be positive")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		feed:          params.Feed,
		store:         params.Store,
		publisher:     params.Publisher,
		perPage:       params.PerPage,
		maxEmptyPages: params.MaxEmptyPages,
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]store.Document, error) {
	filter := store.Filter{DateField: "date_close"}
	if params.StartDate != "" {
		filter.From = params.StartDate + dayStartSuffix
	}
	if params.EndDate != "" {
		filter.To = params.EndDate + dayEndSuffix
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := store.FindOptions{OrderDescBy: "date_close", Limit: int64(limit)}

	docs, err := s.store.Find(ctx, Collection, filter, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stored transactions")
	}
	if docs == nil {
		docs = []store.Document{}
	}
	return docs, nil
}

func (s *service) Sync(ctx context.Context, params SyncParams) (SyncResult, error) {
	var result SyncResult
	if params.DateFrom == "" {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "dateFrom is required")
	}

	lower := params.DateFrom + dayStartSuffix
	upper := ""
	if params.DateTo != "" {
		upper = params.DateTo + dayEndSuffix
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"date_from": params.DateFrom,
		"date_to":   params.DateTo,
	})
	s.logg.Info(ctx, "transaction sync started")

	emptyRun := 0
	for page := 1; ; page++ {
		feedPage, err := s.feed.GetTransactions(ctx, poster.TransactionListParams{
			Page:     page,
			PerPage:  s.perPage,
			DateFrom: params.DateFrom,
			DateTo:   params.DateTo,
		})
		if err != nil {
			// Surfaces as a processing failure; the upstream cause
			// stays on the chain.
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching transaction feed page")
		}

		rows := feedPage.Transactions
		if len(rows) == 0 {
			s.logg.Info(s.logg.WithField(ctx, "page", page), "transaction sync reached empty page")
			break
		}

		result.PagesProcessed++
		result.TotalRows += len(rows)

		inWindow, sawOlder := filterWindow(rows, lower, upper)
		if len(inWindow) > 0 {
			insertRes, err := s.store.InsertMany(ctx, Collection, IdentityField, documentsFrom(inWindow))
			if err != nil {
				// A failed page is counted and skipped; the run keeps
				// walking the rest of the window.
				result.AffectedWithError += len(inWindow)
				s.logg.Error(s.logg.WithFields(ctx, map[string]any{
					"page": page,
					"rows": len(inWindow),
				}), "transaction sync page insert failed", err)
			} else {
				result.AffectedRows += insertRes.InsertedCount
				if insertRes.InsertedCount == 0 {
					emptyRun++
				} else {
					emptyRun = 0
				}
			}
		} else {
			emptyRun++
		}

		// The feed is newest first, so once a page dips below the lower
		// bound every following page is older still.
		if sawOlder {
			s.logg.Info(s.logg.WithField(ctx, "page", page), "transaction sync passed window start")
			break
		}
		if emptyRun >= s.maxEmptyPages {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"page":        page,
				"empty_pages": emptyRun,
			}), "transaction sync stopped on duplicate pages")
			break
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total_rows":          result.TotalRows,
		"affected_rows":       result.AffectedRows,
		"affected_with_error": result.AffectedWithError,
		"pages_processed":     result.PagesProcessed,
	}), "transaction sync finished")
	s.publishCompleted(ctx, params, result)
	return result, nil
}

func (s *service) publishCompleted(ctx context.Context, params SyncParams, result SyncResult) {
	if s.publisher == nil {
		return
	}
	_, err := s.publisher.PublishSyncCompleted(ctx, pubsub.SyncCompletedEvent{
		DateFrom:          params.DateFrom,
		DateTo:            params.DateTo,
		TotalRows:         result.TotalRows,
		AffectedRows:      result.AffectedRows,
		AffectedWithError: result.AffectedWithError,
		PagesProcessed:    result.PagesProcessed,
		OccurredAt:        s.now().UTC(),
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "sync completion event publish failed")
	}
}

// filterWindow keeps rows closed inside [lower, upper] and reports
// whether any row fell before the lower bound. Rows without a usable
// date are kept.
func filterWindow(rows []poster.Transaction, lower, upper string) ([]poster.Transaction, bool) {
	kept := make([]poster.Transaction, 0, len(rows))
	sawOlder := false
	for _, row := range rows {
		date := row.DateClose
		if date == "" {
			date = row.DateStart
		}
		if date == "" {
			kept = append(kept, row)
			continue
		}
		if date < lower {
			sawOlder = true
			continue
		}
		if upper != "" && date > upper {
			continue
		}
		kept = append(kept, row)
	}
	return kept, sawOlder
}

func documentsFrom(rows []poster.Transaction) []store.Document {
	docs := make([]store.Document, len(rows))
	for i, row := range rows {
		docs[i] = DocumentFromTransaction(row)
	}
	return docs
}
