// Package mongostore implements docstore.Store on MongoDB.
//
// Native keys are ObjectIDs rendered as 24-digit hex; string keys are stored
// as plain string _id values. Array primitives map onto single-document
// update operators ($push with a negated match filter, positional $set and
// $unset, $pull), so they are atomic without client-side transactions.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/blueprints/pkg/docstore"
)

// DefaultTimeout bounds connection setup when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configures a MongoDB store.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store is a docstore.Store backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo: uri is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongo: database is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	err = docstore.Ping(ctx, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(opts.Database)}, nil
}

// Name returns "mongo".
func (s *Store) Name() string { return "mongo" }

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{coll: s.db.Collection(name)}
}

// NewNativeKey mints a fresh ObjectID.
func (s *Store) NewNativeKey() docstore.Key {
	return docstore.Native(primitive.NewObjectID().Hex())
}

// ParseNativeKey accepts 24-digit lowercase hex ObjectIDs.
func (s *Store) ParseNativeKey(v string) (docstore.Key, bool) {
	oid, err := primitive.ObjectIDFromHex(v)
	if err != nil || oid.Hex() != v {
		return docstore.Key{}, false
	}
	return docstore.Native(v), true
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// =============================================================================
// Key and document conversion
// =============================================================================

func toID(k docstore.Key) (any, error) {
	if k.Kind != docstore.NativeKey {
		return k.Value, nil
	}
	oid, err := primitive.ObjectIDFromHex(k.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an ObjectID", docstore.ErrInvalidKey, k.Value)
	}
	return oid, nil
}

func fromID(v any) (docstore.Key, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return docstore.Native(id.Hex()), nil
	case string:
		return docstore.Str(id), nil
	}
	return docstore.Key{}, fmt.Errorf("%w: unsupported _id type %T", docstore.ErrInvalidKey, v)
}

// fromBSON converts a decoded document into a docstore.Document with plain
// map[string]any and []any nesting.
func fromBSON(m bson.M) (docstore.Document, error) {
	doc := make(docstore.Document, len(m))
	for k, v := range m {
		if k == docstore.KeyField {
			key, err := fromID(v)
			if err != nil {
				return nil, err
			}
			doc[k] = key
			continue
		}
		doc[k] = fromValue(v)
	}
	return doc, nil
}

func fromValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromValue(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = fromValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}

// toBSON converts a document body for writing. The key field is dropped.
func toBSON(d docstore.Document) bson.M {
	out := bson.M{}
	for k, v := range d.Body() {
		out[k] = v
	}
	return out
}

// =============================================================================
// Collection
// =============================================================================

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Name() string { return c.coll.Name() }

func (c *collection) find(ctx context.Context, id any) (docstore.Document, error) {
	var m bson.M
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromBSON(m)
}

func (c *collection) FindOne(ctx context.Context, key docstore.Key) (docstore.Document, error) {
	id, err := toID(key)
	if err != nil {
		// A malformed native key cannot address any document.
		return nil, nil
	}
	return c.find(ctx, id)
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (docstore.Key, error) {
	body := toBSON(doc)
	key, ok := doc.Key()
	if ok && !key.IsZero() {
		id, err := toID(key)
		if err != nil {
			return docstore.Key{}, err
		}
		body["_id"] = id
	} else {
		body["_id"] = primitive.NewObjectID()
	}

	res, err := c.coll.InsertOne(ctx, body)
	if mongo.IsDuplicateKeyError(err) {
		return docstore.Key{}, docstore.ErrDuplicateKey
	}
	if err != nil {
		return docstore.Key{}, err
	}
	return fromID(res.InsertedID)
}

func (c *collection) Replace(ctx context.Context, key docstore.Key, doc docstore.Document) error {
	id, err := toID(key)
	if err != nil {
		return docstore.ErrNotFound
	}
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id}, toBSON(doc))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (c *collection) Remove(ctx context.Context, key docstore.Key) (bool, error) {
	id, err := toID(key)
	if err != nil {
		return false, nil
	}
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (c *collection) Truncate(ctx context.Context) error {
	_, err := c.coll.DeleteMany(ctx, bson.M{})
	return err
}

func (c *collection) Scan(ctx context.Context, fn func(docstore.Document) error) error {
	cur, err := c.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return err
		}
		doc, err := fromBSON(m)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return cur.Err()
}

// AppendIfAbsent pushes entry with a filter that only matches when no element
// carries the same match value. If the document exists but the filter misses,
// the upsert collides on _id; the stored element is then read back. A
// collision without a matching element means the document was created
// concurrently, and the push is retried.
func (c *collection) AppendIfAbsent(ctx context.Context, key docstore.Key, field, matchKey string, entry, seed docstore.Document) (docstore.Document, bool, error) {
	id, err := toID(key)
	if err != nil {
		return nil, false, err
	}
	match := entry[matchKey]

	update := bson.M{"$push": bson.M{field: map[string]any(entry.Body())}}
	if body := seed.Body(); len(body) > 0 {
		update["$setOnInsert"] = map[string]any(body)
	}
	filter := bson.M{"_id": id, field + "." + matchKey: bson.M{"$ne": match}}

	var (
		elem     docstore.Document
		appended bool
	)
	err = docstore.RetryConflicts(ctx, func() error {
		_, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err == nil {
			elem, appended = entry.Clone(), true
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		doc, err := c.find(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range doc.Elements(field) {
			if reflect.DeepEqual(e[matchKey], match) {
				elem, appended = e.Clone(), false
				return nil
			}
		}
		return docstore.Retryable(docstore.ErrConflict)
	})
	return elem, appended, err
}

func (c *collection) UpdateElement(ctx context.Context, key docstore.Key, field, matchKey string, match any, set docstore.Document, unset []string) (bool, error) {
	id, err := toID(key)
	if err != nil {
		return false, nil
	}
	filter := bson.M{"_id": id, field + "." + matchKey: match}

	update := bson.M{}
	if len(set) > 0 {
		s := bson.M{}
		for k, v := range set {
			s[field+".$."+k] = v
		}
		update["$set"] = s
	}
	if len(unset) > 0 {
		u := bson.M{}
		for _, k := range unset {
			u[field+".$."+k] = ""
		}
		update["$unset"] = u
	}
	if len(update) == 0 {
		n, err := c.coll.CountDocuments(ctx, filter)
		return n > 0, err
	}

	res, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (c *collection) PullElement(ctx context.Context, key docstore.Key, field, matchKey string, match any) (bool, error) {
	id, err := toID(key)
	if err != nil {
		return false, nil
	}
	res, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{field: bson.M{matchKey: match}}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// Ensure Store implements docstore.Store.
var _ docstore.Store = (*Store)(nil)
