// Package store provides a dual-write document store facade over MongoDB
// and Firestore. Writes fan out to every enabled backend; reads come from
// exactly one. Call sites never branch on which backend is active.
package store

import "context"

// Document is the backend-agnostic record shape.
type Document = map[string]any

// Backend names, also used as the read-from selector values.
const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
)

// Filter restricts a Find to an inclusive range on a string-formatted
// date field. The zero value matches everything.
type Filter struct {
	DateField string
	From      string
	To        string
}

func (f Filter) empty() bool {
	return f.DateField == "" || (f.From == "" && f.To == "")
}

// FindOptions tune a Find call.
type FindOptions struct {
	// OrderDescBy sorts results descending on the named field.
	OrderDescBy string
	Limit       int64
}

// InsertManyResult reports how a duplicate-tolerant bulk insert went.
type InsertManyResult struct {
	InsertedCount  int
	DuplicateCount int
}

// Backend is one physical document store.
type Backend interface {
	Name() string

	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
	GetByID(ctx context.Context, collection, id string) (Document, error)

	// Upsert replaces the document matching keyField=key, creating it if
	// absent. Repeated calls with the same content converge.
	Upsert(ctx context.Context, collection, keyField, key string, doc Document) error

	// UpsertBatch writes several documents addressed by document id in a
	// single batch, atomically where the backend supports it.
	UpsertBatch(ctx context.Context, collection string, docs map[string]Document) error

	// InsertOne creates a document and returns the backend-assigned id.
	InsertOne(ctx context.Context, collection string, doc Document) (string, error)

	// InsertOneWithID creates a document under a caller-chosen id.
	InsertOneWithID(ctx context.Context, collection, id string, doc Document) error

	// InsertMany bulk-inserts with per-document idempotency on
	// identityField: existing documents count as duplicates and are left
	// untouched, and a duplicate never aborts the rest of the batch.
	InsertMany(ctx context.Context, collection, identityField string, docs []Document) (InsertManyResult, error)

	// UpdateOne applies a partial update to the document with the given
	// id. Nested maps update only the named leaf fields.
	UpdateOne(ctx context.Context, collection, id string, partial Document) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
