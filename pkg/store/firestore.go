package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

// FirestoreBackend implements Backend on a Firestore database. Document
// ids double as the logical keys, so Upsert addresses documents by key
// directly and ignores keyField.
type FirestoreBackend struct {
	client *firestore.Client
	logg   *logger.Logger
}

func NewFirestore(ctx context.Context, projectID, databaseID string, logg *logger.Logger) (*FirestoreBackend, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firestore client initialized")
	}

	return &FirestoreBackend{client: client, logg: logg}, nil
}

func (f *FirestoreBackend) Name() string {
	return BackendFirestore
}

func (f *FirestoreBackend) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	query := f.client.Collection(collection).Query
	if !filter.empty() {
		if filter.From != "" {
			query = query.Where(filter.DateField, ">=", filter.From)
		}
		if filter.To != "" {
			query = query.Where(filter.DateField, "<=", filter.To)
		}
	}
	if opts.OrderDescBy != "" {
		query = query.OrderBy(opts.OrderDescBy, firestore.Desc)
	}
	if opts.Limit > 0 {
		query = query.Limit(int(opts.Limit))
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore find %s: %w", collection, err)
		}
		doc := snap.Data()
		doc["_id"] = snap.Ref.ID
		docs = append(docs, doc)
	}
	return docs, nil
}

func (f *FirestoreBackend) GetByID(ctx context.Context, collection, id string) (Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	doc := snap.Data()
	doc["_id"] = id
	return doc, nil
}

func (f *FirestoreBackend) Upsert(ctx context.Context, collection, _ string, key string, doc Document) error {
	if _, err := f.client.Collection(collection).Doc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore upsert %s/%s: %w", collection, key, err)
	}
	return nil
}

func (f *FirestoreBackend) UpsertBatch(ctx context.Context, collection string, docs map[string]Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := f.client.Batch()
	for id, doc := range docs {
		batch.Set(f.client.Collection(collection).Doc(id), doc)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("firestore batch upsert %s: %w", collection, err)
	}
	return nil
}

func (f *FirestoreBackend) InsertOne(ctx context.Context, collection string, doc Document) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("firestore insert %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *FirestoreBackend) InsertOneWithID(ctx context.Context, collection, id string, doc Document) error {
	_, err := f.client.Collection(collection).Doc(id).Create(ctx, doc)
	if status.Code(err) == codes.AlreadyExists {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("document %s/%s already exists", collection, id))
	}
	if err != nil {
		return fmt.Errorf("firestore insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *FirestoreBackend) InsertMany(ctx context.Context, collection, identityField string, docs []Document) (InsertManyResult, error) {
	var result InsertManyResult
	for _, doc := range docs {
		identity, ok := doc[identityField]
		if !ok {
			return result, fmt.Errorf("firestore bulk insert %s: document missing identity field %q", collection, identityField)
		}
		id := fmt.Sprint(identity)
		_, err := f.client.Collection(collection).Doc(id).Create(ctx, doc)
		if status.Code(err) == codes.AlreadyExists {
			result.DuplicateCount++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("firestore bulk insert %s/%s: %w", collection, id, err)
		}
		result.InsertedCount++
	}
	return result, nil
}

func (f *FirestoreBackend) UpdateOne(ctx context.Context, collection, id string, partial Document) error {
	flattened := Flatten(partial)
	updates := make([]firestore.Update, 0, len(flattened))
	for path, value := range flattened {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return fmt.Errorf("firestore update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping lists one collection id to prove the connection and credentials
// work; an empty database is still healthy.
func (f *FirestoreBackend) Ping(ctx context.Context) error {
	iter := f.client.Collections(ctx)
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "firestore ping")
	}
	return nil
}

func (f *FirestoreBackend) Close(_ context.Context) error {
	return f.client.Close()
}
