package posterwebhook

import (
	"context"
	"strconv"
	"time"

	"github.com/posterops/poster-bridge/internal/transactions"
	"github.com/posterops/poster-bridge/internal/writeoffs"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/metrics"
	"github.com/posterops/poster-bridge/pkg/poster"
	"github.com/posterops/poster-bridge/pkg/pubsub"
	"github.com/posterops/poster-bridge/pkg/store"
)

type eventStore interface {
	InsertOne(ctx context.Context, collection string, doc store.Document) (string, error)
	UpdateOne(ctx context.Context, collection, id string, partial store.Document) error
	Upsert(ctx context.Context, collection, keyField, key string, doc store.Document) error
}

type transactionAPI interface {
	GetTransaction(ctx context.Context, transactionID string) (*poster.Transaction, error)
	GetTransactionWriteOffs(ctx context.Context, transactionID string) ([]poster.WriteOff, error)
}

type writeOffEnricher interface {
	EnrichAll(ctx context.Context, raws []poster.WriteOff) []writeoffs.Record
}

type eventPublisher interface {
	PublishTransactionIngested(ctx context.Context, event pubsub.TransactionEvent) (string, error)
}

// Result is the acknowledgement returned to Poster.
type Result struct {
	Success             bool   `json:"success"`
	ObjectID            int64  `json:"object_id"`
	Action              string `json:"action"`
	SavedToTransactions bool   `json:"saved_to_transactions"`
	WriteOffsCount      *int   `json:"write_offs_count,omitempty"`
	RawHookID           string `json:"raw_hook_id"`
}

type ServiceParams struct {
	Store    eventStore
	Poster   transactionAPI
	Enricher writeOffEnricher
	Logger   *logger.Logger

	// Optional collaborators.
	Publisher eventPublisher
	Metrics   *metrics.WebhookMetrics

	AllowedActions []string
	TriggerActions []string

	Now func() time.Time
}

// Service runs the ingestion pipeline for one delivery at a time.
type Service struct {
	store     eventStore
	poster    transactionAPI
	enricher  writeOffEnricher
	publisher eventPublisher
	metrics   *metrics.WebhookMetrics
	logg      *logger.Logger
	allowed   map[string]struct{}
	triggers  map[string]struct{}
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event store required")
	}
	if params.Poster == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "poster client required")
	}
	if params.Enricher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "write-off enricher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if len(params.AllowedActions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "allowed actions required")
	}
	if len(params.TriggerActions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "trigger actions required")
	}

	allowed := toSet(params.AllowedActions)
	triggers := toSet(params.TriggerActions)
	for action := range triggers {
		if _, ok := allowed[action]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "trigger action "+action+" is not allow-listed")
		}
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		store:     params.Store,
		poster:    params.Poster,
		enricher:  params.Enricher,
		publisher: params.Publisher,
		metrics:   params.Metrics,
		logg:      params.Logger,
		allowed:   allowed,
		triggers:  triggers,
		now:       now,
	}, nil
}

// Process runs one delivery through the pipeline. The raw audit write
// happens before any validation, so every authenticated call leaves a
// record even when its payload is garbage.
func (s *Service) Process(ctx context.Context, body []byte) (*Result, error) {
	rawID, err := s.store.InsertOne(ctx, RawEventsCollection, NewRawEventDocument(body, s.now()))
	if err != nil {
		s.metrics.IncEvent("", metrics.OutcomeFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting raw event")
	}
	ctx = s.logg.WithField(ctx, "raw_hook_id", rawID)

	env, err := ParseEnvelope(body)
	if err != nil {
		s.recordFailure(ctx, rawID, err)
		s.metrics.IncEvent("", metrics.OutcomeRejected)
		return nil, err
	}
	ctx = s.logg.WithAction(ctx, env.Action)

	if err := env.Validate(s.allowed); err != nil {
		s.recordFailure(ctx, rawID, err)
		s.metrics.IncEvent(env.Action, metrics.OutcomeRejected)
		return nil, err
	}
	ctx = s.logg.WithTransactionID(ctx, env.TransactionID())

	result := &Result{
		Success:   true,
		ObjectID:  env.TransactionID(),
		Action:    env.Action,
		RawHookID: rawID,
	}

	if _, ok := s.triggers[env.Action]; !ok {
		s.finishRaw(ctx, rawID, false)
		s.metrics.IncEvent(env.Action, metrics.OutcomeSkipped)
		s.logg.Info(ctx, "webhook acknowledged without persistence")
		return result, nil
	}

	outcome, err := s.persistDerived(ctx, env)
	if err != nil {
		s.recordFailure(ctx, rawID, err)
		s.metrics.IncEvent(env.Action, metrics.OutcomeFailed)
		return nil, err
	}
	result.SavedToTransactions = outcome.saved
	result.WriteOffsCount = outcome.writeOffCount

	s.finishRaw(ctx, rawID, outcome.saved)
	if outcome.saved {
		s.metrics.IncEvent(env.Action, metrics.OutcomeProcessed)
		s.publish(ctx, env.Action, rawID, outcome)
	} else {
		s.metrics.IncEvent(env.Action, metrics.OutcomeSkipped)
	}
	s.logg.Info(ctx, "webhook processed")
	return result, nil
}

type derivedOutcome struct {
	saved         bool
	transactionID int64
	writeOffCount *int
}

// persistDerived fetches transaction detail and upserts the derived
// record, keyed by the id the detail call returns rather than the
// inbound object_id. Missing detail downgrades to an acknowledged but
// unsaved event; only the upsert itself is allowed to fail the request.
func (s *Service) persistDerived(ctx context.Context, env *Envelope) (derivedOutcome, error) {
	detail, err := s.poster.GetTransaction(ctx, strconv.FormatInt(env.TransactionID(), 10))
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "transaction detail fetch failed")
		return derivedOutcome{}, nil
	}
	if detail == nil {
		s.logg.Info(ctx, "transaction detail returned no data")
		return derivedOutcome{}, nil
	}

	doc := transactions.DocumentFromTransaction(*detail)
	key, _ := doc[transactions.IdentityField].(string)
	outcome := derivedOutcome{transactionID: detail.TransactionID.Int64()}

	records, err := s.fetchWriteOffs(ctx, key)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "write-off enrichment failed")
	} else {
		count := len(records)
		outcome.writeOffCount = &count
		doc["write_offs"] = writeoffs.Documents(records)
		doc["write_offs_total_cost"] = writeoffs.CalculateTotalCost(records).InexactFloat64()
		doc["write_offs_synced_at"] = s.now().UTC()
	}

	if err := s.store.Upsert(ctx, transactions.Collection, transactions.IdentityField, key, doc); err != nil {
		return derivedOutcome{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting transaction record")
	}
	outcome.saved = true
	return outcome, nil
}

func (s *Service) fetchWriteOffs(ctx context.Context, transactionID string) ([]writeoffs.Record, error) {
	raws, err := s.poster.GetTransactionWriteOffs(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichAll(ctx, raws), nil
}

// recordFailure stamps the raw record so failed deliveries stay
// replayable. The update itself is best effort.
func (s *Service) recordFailure(ctx context.Context, rawID string, cause error) {
	reason := "processing failed"
	if typed := pkgerrors.As(cause); typed != nil {
		reason = typed.Message()
	}
	if err := s.store.UpdateOne(ctx, RawEventsCollection, rawID, failureUpdate(reason, s.now().UTC())); err != nil {
		s.logg.Error(ctx, "raw event failure update failed", err)
	}
}

func (s *Service) finishRaw(ctx context.Context, rawID string, saved bool) {
	if err := s.store.UpdateOne(ctx, RawEventsCollection, rawID, processedUpdate(saved, s.now().UTC())); err != nil {
		s.logg.Error(ctx, "raw event status update failed", err)
	}
}

func (s *Service) publish(ctx context.Context, action, rawID string, outcome derivedOutcome) {
	if s.publisher == nil {
		return
	}
	count := 0
	if outcome.writeOffCount != nil {
		count = *outcome.writeOffCount
	}
	event := pubsub.TransactionEvent{
		TransactionID: outcome.transactionID,
		Action:        action,
		RawHookID:     rawID,
		WriteOffCount: count,
		OccurredAt:    s.now().UTC(),
	}
	if _, err := s.publisher.PublishTransactionIngested(ctx, event); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "transaction event publish failed")
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
