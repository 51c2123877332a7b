package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/posterops/poster-bridge/pkg/config"
	pkgerrors "github.com/posterops/poster-bridge/pkg/errors"
	"github.com/posterops/poster-bridge/pkg/logger"
)

const defaultMongoTimeout = 10 * time.Second

// MongoBackend implements Backend on a MongoDB database. Mongo is the
// identity-authoritative backend: InsertOne returns the hex form of the
// ObjectID the server minted.
type MongoBackend struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logg    *logger.Logger
}

func NewMongo(ctx context.Context, cfg config.MongoConfig, uri string, logg *logger.Logger) (*MongoBackend, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMongoTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, timeout)
	defer cancelPing()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "mongo client initialized")
	}

	return &MongoBackend{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
		logg:    logg,
	}, nil
}

func (m *MongoBackend) Name() string {
	return BackendMongo
}

func (m *MongoBackend) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	query := bson.M{}
	if !filter.empty() {
		dateRange := bson.M{}
		if filter.From != "" {
			dateRange["$gte"] = filter.From
		}
		if filter.To != "" {
			dateRange["$lte"] = filter.To
		}
		query[filter.DateField] = dateRange
	}

	findOpts := options.Find()
	if opts.OrderDescBy != "" {
		findOpts.SetSort(bson.D{{Key: opts.OrderDescBy, Value: -1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", collection, err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []Document
	for cursor.Next(ctx) {
		doc := Document{}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
		}
		docs = append(docs, normalizeMongoDoc(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor %s: %w", collection, err)
	}
	return docs, nil
}

func (m *MongoBackend) GetByID(ctx context.Context, collection, id string) (Document, error) {
	doc := Document{}
	err := m.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("document %s/%s not found", collection, id))
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %s/%s: %w", collection, id, err)
	}
	return normalizeMongoDoc(doc), nil
}

func (m *MongoBackend) Upsert(ctx context.Context, collection, keyField, key string, doc Document) error {
	_, err := m.db.Collection(collection).ReplaceOne(
		ctx,
		bson.M{keyField: key},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert %s[%s=%s]: %w", collection, keyField, key, err)
	}
	return nil
}

func (m *MongoBackend) UpsertBatch(ctx context.Context, collection string, docs map[string]Document) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for id, doc := range docs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := m.db.Collection(collection).BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("mongo batch upsert %s: %w", collection, err)
	}
	return nil
}

func (m *MongoBackend) InsertOne(ctx context.Context, collection string, doc Document) (string, error) {
	res, err := m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("mongo insert %s: %w", collection, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (m *MongoBackend) InsertOneWithID(ctx context.Context, collection, id string, doc Document) error {
	withID := Document{"_id": idValue(id)}
	for k, v := range doc {
		withID[k] = v
	}
	_, err := m.db.Collection(collection).InsertOne(ctx, withID)
	if mongo.IsDuplicateKeyError(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("document %s/%s already exists", collection, id))
	}
	if err != nil {
		return fmt.Errorf("mongo insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *MongoBackend) InsertMany(ctx context.Context, collection, identityField string, docs []Document) (InsertManyResult, error) {
	if len(docs) == 0 {
		return InsertManyResult{}, nil
	}

	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		identity, ok := doc[identityField]
		if !ok {
			return InsertManyResult{}, fmt.Errorf("mongo bulk insert %s: document missing identity field %q", collection, identityField)
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{identityField: identity}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	res, err := m.db.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return InsertManyResult{}, fmt.Errorf("mongo bulk insert %s: %w", collection, err)
	}
	return InsertManyResult{
		InsertedCount:  int(res.UpsertedCount),
		DuplicateCount: int(res.MatchedCount),
	}, nil
}

func (m *MongoBackend) UpdateOne(ctx context.Context, collection, id string, partial Document) error {
	res, err := m.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": Flatten(partial)})
	if err != nil {
		return fmt.Errorf("mongo update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("document %s/%s not found", collection, id))
	}
	return nil
}

func (m *MongoBackend) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mongo ping")
	}
	return nil
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// idFilter addresses a document by id. Ids minted by InsertOne are
// ObjectID hex strings and must be queried as ObjectIDs; everything else
// (catalog singleton ids) is stored as a plain string.
func idFilter(id string) bson.M {
	return bson.M{"_id": idValue(id)}
}

func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func normalizeMongoDoc(doc Document) Document {
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		doc["_id"] = oid.Hex()
	}
	return doc
}
