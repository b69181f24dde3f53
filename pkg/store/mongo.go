package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// KindMongo is the MongoDB source's kind and reference scheme.
const KindMongo = "mongo"

// MongoOptions configures [NewMongo].
type MongoOptions struct {
	URI        string        `toml:"mongo_uri"`
	Database   string        `toml:"database"`
	Collection string        `toml:"collection"`
	Timeout    time.Duration `toml:"-"`
}

// withDefaults fills the database, collection and timeout.
func (o MongoOptions) withDefaults() MongoOptions {
	if o.Database == "" {
		o.Database = "kintree"
	}
	if o.Collection == "" {
		o.Collection = "trees"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// Mongo keeps one tree per document, keyed by name:
//
//	{_id: <name>, version: 1, persons: {...}, partnerships: {...}}
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

type treeDocument struct {
	ID          string `bson:"_id"`
	family.Tree `bson:",inline"`
}

// NewMongo connects and pings the primary.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &Mongo{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		timeout: opts.Timeout,
	}, nil
}

func (m *Mongo) Kind() string { return KindMongo }

func (m *Mongo) Load(ctx context.Context, name string) (*family.Tree, error) {
	if err := errors.ValidateTreeName(name); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc treeDocument
	if err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc); err != nil {
		return nil, mongoError(err, "load tree %s", name)
	}
	t := &doc.Tree
	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Save replaces the document for name, creating it if needed.
func (m *Mongo) Save(ctx context.Context, name string, t *family.Tree) error {
	if err := errors.ValidateTreeName(name); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	doc := treeDocument{ID: name, Tree: *t}
	_, err := m.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: name}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoError(err, "save tree %s", name)
	}
	return nil
}

// List returns every tree name in ascending order.
func (m *Mongo) List(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, mongoError(err, "list trees")
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError(err, "list trees")
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.ID
	}
	return names, nil
}

// Close disconnects a client opened by NewMongo.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// mongoError maps driver errors to coded errors.
func mongoError(err error, format string, args ...any) error {
	switch {
	case stderrors.Is(err, mongo.ErrNoDocuments):
		return errors.Wrap(errors.ErrCodeTreeNotFound, err, format, args...)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeNetwork, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, format, args...)
	}
}

var _ Source = (*Mongo)(nil)
