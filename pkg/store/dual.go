package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"

	"github.com/posterops/poster-bridge/pkg/logger"
)

// DualParams configure the dual-write facade.
type DualParams struct {
	Mongo          Backend
	Firestore      Backend
	WriteMongo     bool
	WriteFirestore bool
	ReadFrom       string
	Logger         *logger.Logger
}

// Dual fans writes out to every enabled backend and reads from exactly
// one. When both writers are enabled, InsertMany statistics come from
// the primary backend only: the read backend when it is write-enabled,
// otherwise the single enabled writer. Mongo is authoritative for id
// generation; when it is write-disabled, ids are synthesized locally in
// the same hex format.
type Dual struct {
	mongo          Backend
	firestore      Backend
	writeMongo     bool
	writeFirestore bool
	read           Backend
	primary        Backend
	logg           *logger.Logger
}

func NewDual(params DualParams) (*Dual, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.WriteMongo && params.Mongo == nil {
		return nil, errors.New("mongo backend required when mongo writes are enabled")
	}
	if params.WriteFirestore && params.Firestore == nil {
		return nil, errors.New("firestore backend required when firestore writes are enabled")
	}
	if !params.WriteMongo && !params.WriteFirestore {
		return nil, errors.New("at least one write backend must be enabled")
	}

	var read Backend
	switch params.ReadFrom {
	case BackendMongo:
		read = params.Mongo
	case BackendFirestore:
		read = params.Firestore
	default:
		return nil, fmt.Errorf("read backend must be %q or %q, got %q", BackendMongo, BackendFirestore, params.ReadFrom)
	}
	if read == nil {
		return nil, fmt.Errorf("read backend %q is not configured", params.ReadFrom)
	}

	d := &Dual{
		mongo:          params.Mongo,
		firestore:      params.Firestore,
		writeMongo:     params.WriteMongo,
		writeFirestore: params.WriteFirestore,
		read:           read,
		logg:           params.Logger,
	}

	switch {
	case params.ReadFrom == BackendMongo && params.WriteMongo:
		d.primary = params.Mongo
	case params.ReadFrom == BackendFirestore && params.WriteFirestore:
		d.primary = params.Firestore
	case params.WriteMongo:
		d.primary = params.Mongo
	default:
		d.primary = params.Firestore
	}

	return d, nil
}

// ReadBackend names the backend that serves reads.
func (d *Dual) ReadBackend() string {
	return d.read.Name()
}

func (d *Dual) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	return d.read.Find(ctx, collection, filter, opts)
}

func (d *Dual) GetByID(ctx context.Context, collection, id string) (Document, error) {
	return d.read.GetByID(ctx, collection, id)
}

func (d *Dual) Upsert(ctx context.Context, collection, keyField, key string, doc Document) error {
	return d.fanOut(func(b Backend) error {
		return b.Upsert(ctx, collection, keyField, key, doc)
	})
}

func (d *Dual) UpsertBatch(ctx context.Context, collection string, docs map[string]Document) error {
	return d.fanOut(func(b Backend) error {
		return b.UpsertBatch(ctx, collection, docs)
	})
}

func (d *Dual) UpdateOne(ctx context.Context, collection, id string, partial Document) error {
	return d.fanOut(func(b Backend) error {
		return b.UpdateOne(ctx, collection, id, partial)
	})
}

// InsertOne creates the document in every enabled backend under one
// shared id. Mongo runs first to mint the id; the firestore write reuses
// it so both stores address the same logical record.
func (d *Dual) InsertOne(ctx context.Context, collection string, doc Document) (string, error) {
	var id string
	if d.writeMongo {
		minted, err := d.mongo.InsertOne(ctx, collection, doc)
		if err != nil {
			return "", err
		}
		id = minted
	} else {
		id = primitive.NewObjectID().Hex()
	}

	if d.writeFirestore {
		if err := d.firestore.InsertOneWithID(ctx, collection, id, doc); err != nil {
			if d.writeMongo {
				d.logg.Error(ctx, fmt.Sprintf("firestore insert diverged from mongo for %s/%s", collection, id), err)
			}
			return "", err
		}
	}

	return id, nil
}

func (d *Dual) InsertMany(ctx context.Context, collection, identityField string, docs []Document) (InsertManyResult, error) {
	writers := d.writers()
	if len(writers) == 1 {
		return writers[0].InsertMany(ctx, collection, identityField, docs)
	}

	results := make([]InsertManyResult, len(writers))
	errs := make([]error, len(writers))
	var wg sync.WaitGroup
	for i, backend := range writers {
		wg.Add(1)
		go func(i int, backend Backend) {
			defer wg.Done()
			results[i], errs[i] = backend.InsertMany(ctx, collection, identityField, docs)
		}(i, backend)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return InsertManyResult{}, err
	}
	for i, backend := range writers {
		if backend == d.primary {
			return results[i], nil
		}
	}
	return results[0], nil
}

func (d *Dual) Ping(ctx context.Context) error {
	var errs []error
	for _, backend := range d.active() {
		if err := backend.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (d *Dual) Close(ctx context.Context) error {
	var errs []error
	for _, backend := range d.active() {
		if err := backend.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (d *Dual) fanOut(op func(Backend) error) error {
	writers := d.writers()
	if len(writers) == 1 {
		return op(writers[0])
	}

	errs := make([]error, len(writers))
	var wg sync.WaitGroup
	for i, backend := range writers {
		wg.Add(1)
		go func(i int, backend Backend) {
			defer wg.Done()
			errs[i] = op(backend)
		}(i, backend)
	}
	wg.Wait()
	return multierr.Combine(errs...)
}

// writers returns the enabled write backends, mongo first.
func (d *Dual) writers() []Backend {
	var backends []Backend
	if d.writeMongo {
		backends = append(backends, d.mongo)
	}
	if d.writeFirestore {
		backends = append(backends, d.firestore)
	}
	return backends
}

// active returns every distinct backend that participates in reads or
// writes.
func (d *Dual) active() []Backend {
	var backends []Backend
	if d.writeMongo || d.read == d.mongo {
		backends = append(backends, d.mongo)
	}
	if d.writeFirestore || d.read == d.firestore {
		backends = append(backends, d.firestore)
	}
	return backends
}
