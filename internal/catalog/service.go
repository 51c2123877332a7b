package catalog

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
	"github.com/posterops/poster-bridge/pkg/store"
)

type snapshotStore interface {
	GetByID(ctx context.Context, collection, id string) (store.Document, error)
	UpsertBatch(ctx context.Context, collection string, docs map[string]store.Document) error
}

type catalogSource interface {
	FetchCatalog(ctx context.Context, token string) ([]Item, error)
}

// Service is the lazily-refreshed catalog cache. Reads serve the
// persisted snapshot while it is younger than the TTL; otherwise the
// snapshot is refetched and replaced as one batch.
type Service interface {
	GetCatalog(ctx context.Context, token string) ([]Item, error)
	RefreshCatalog(ctx context.Context, token string) ([]Item, error)
	GetItem(ctx context.Context, id string, itemType ItemType) (*Item, error)
	GetItemName(ctx context.Context, id string, itemType ItemType) string
	LastSyncedAt(ctx context.Context) (time.Time, bool)
}

type service struct {
	store  snapshotStore
	source catalogSource
	ttl    time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the catalog cache.
func NewService(snapshots snapshotStore, source catalogSource, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("catalog ttl must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:  snapshots,
		source: source,
		ttl:    ttl,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) GetCatalog(ctx context.Context, token string) ([]Item, error) {
	syncedAt, ok := s.LastSyncedAt(ctx)
	if ok && s.now().Sub(syncedAt) < s.ttl {
		return s.readSnapshot(ctx)
	}
	return s.refresh(ctx, token)
}

func (s *service) RefreshCatalog(ctx context.Context, token string) ([]Item, error) {
	return s.refresh(ctx, token)
}

func (s *service) GetItem(ctx context.Context, id string, itemType ItemType) (*Item, error) {
	if id == "" {
		return nil, nil
	}
	items, err := s.GetCatalog(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id && items[i].Type == itemType {
			return &items[i], nil
		}
	}
	return nil, nil
}

// GetItemName never fails: lookup errors and misses both resolve to the
// Unknown sentinel so enrichment can proceed.
func (s *service) GetItemName(ctx context.Context, id string, itemType ItemType) string {
	item, err := s.GetItem(ctx, id, itemType)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"item_id":   id,
			"item_type": itemType.String(),
		}), "catalog name lookup failed")
		return UnknownName
	}
	if item == nil {
		return UnknownName
	}
	return item.Name
}

// LastSyncedAt reads the metadata document. Absence or an unreadable
// timestamp reports no sync, which forces the refresh branch.
func (s *service) LastSyncedAt(ctx context.Context) (time.Time, bool) {
	md, err := s.store.GetByID(ctx, Collection, MetadataDocID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return time.Time{}, false
		}
		s.logg.Error(ctx, "catalog metadata read failed", err)
		return time.Time{}, false
	}
	syncedAt, ok := store.AsTime(md["synced_at"])
	if !ok {
		return time.Time{}, false
	}
	return syncedAt, true
}

func (s *service) refresh(ctx context.Context, token string) ([]Item, error) {
	items, err := s.source.FetchCatalog(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	docs := map[string]store.Document{
		MetadataDocID: {
			"synced_at":   now,
			"items_count": len(items),
		},
		ItemsDocID: {
			"items":     encodeItems(items),
			"synced_at": now,
		},
	}
	if err := s.store.UpsertBatch(ctx, Collection, docs); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"items_count": len(items),
	}), "catalog snapshot refreshed")
	return items, nil
}

// readSnapshot tolerates a missing items document: metadata without a
// snapshot yields an empty catalog, not an error.
func (s *service) readSnapshot(ctx context.Context) ([]Item, error) {
	doc, err := s.store.GetByID(ctx, Collection, ItemsDocID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return []Item{}, nil
		}
		return nil, err
	}
	return decodeItems(doc), nil
}

func encodeItems(items []Item) []any {
	encoded := make([]any, len(items))
	for i, item := range items {
		doc := store.Document{
			"id":   item.ID,
			"name": item.Name,
			"type": int(item.Type),
		}
		if item.Unit != "" {
			doc["unit"] = item.Unit
		}
		if item.CategoryID != "" {
			doc["category_id"] = item.CategoryID
		}
		encoded[i] = doc
	}
	return encoded
}

func decodeItems(doc store.Document) []Item {
	raw, ok := store.AsSlice(doc["items"])
	if !ok {
		return []Item{}
	}
	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		m, ok := store.AsDocument(entry)
		if !ok {
			continue
		}
		typeCode, _ := store.AsInt64(m["type"])
		items = append(items, Item{
			ID:         store.AsString(m["id"]),
			Name:       store.AsString(m["name"]),
			Type:       ItemType(typeCode),
			Unit:       store.AsString(m["unit"]),
			CategoryID: store.AsString(m["category_id"]),
		})
	}
	return items
}
