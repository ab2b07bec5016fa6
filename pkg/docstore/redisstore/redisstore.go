// Package redisstore implements docstore.Store on Redis.
//
// Each document is one string value holding its JSON body under the key
//
//	<prefix>:<collection>:<kind>:<value>
//
// with kind "n" for native and "s" for string keys. Array primitives use
// WATCH/MULTI optimistic transactions and are retried when another client
// modifies the key first.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/blueprints/pkg/docstore"
)

// DefaultPrefix namespaces keys when Options.Prefix is empty.
const DefaultPrefix = "blueprints"

// Options configures a Redis store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is a docstore.Store backed by Redis.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect creates a client and verifies it with PING.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	err := docstore.Ping(ctx, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return New(rdb, opts.Prefix), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Name returns "redis".
func (s *Store) Name() string { return "redis" }

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{rdb: s.rdb, name: name, base: s.prefix + ":" + name + ":"}
}

// NewNativeKey mints a random UUID key.
func (s *Store) NewNativeKey() docstore.Key { return docstore.NewUUIDKey() }

// ParseNativeKey accepts canonical UUID strings.
func (s *Store) ParseNativeKey(v string) (docstore.Key, bool) { return docstore.ParseUUIDKey(v) }

// Close closes the client.
func (s *Store) Close(ctx context.Context) error { return s.rdb.Close() }

type collection struct {
	rdb  *redis.Client
	name string
	base string
}

func (c *collection) Name() string { return c.name }

func (c *collection) redisKey(k docstore.Key) string {
	if k.Kind == docstore.NativeKey {
		return c.base + "n:" + k.Value
	}
	return c.base + "s:" + k.Value
}

func (c *collection) parseKey(rk string) (docstore.Key, error) {
	rest, ok := strings.CutPrefix(rk, c.base)
	if !ok {
		return docstore.Key{}, fmt.Errorf("%w: %q", docstore.ErrInvalidKey, rk)
	}
	switch {
	case strings.HasPrefix(rest, "n:"):
		return docstore.Native(rest[2:]), nil
	case strings.HasPrefix(rest, "s:"):
		return docstore.Str(rest[2:]), nil
	}
	return docstore.Key{}, fmt.Errorf("%w: %q", docstore.ErrInvalidKey, rk)
}

// pattern matches every key of the collection.
func (c *collection) pattern() string {
	var b strings.Builder
	for _, r := range c.base {
		if strings.ContainsRune(`*?[]\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('*')
	return b.String()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *collection) get(ctx context.Context, cmd getter, key docstore.Key) (docstore.Document, error) {
	data, err := cmd.Get(ctx, c.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return docstore.DecodeBody(key, data)
}

func (c *collection) FindOne(ctx context.Context, key docstore.Key) (docstore.Document, error) {
	return c.get(ctx, c.rdb, key)
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (docstore.Key, error) {
	key, ok := doc.Key()
	if !ok || key.IsZero() {
		key = docstore.NewUUIDKey()
	}
	data, err := docstore.EncodeBody(doc)
	if err != nil {
		return docstore.Key{}, err
	}
	set, err := c.rdb.SetNX(ctx, c.redisKey(key), data, 0).Result()
	if err != nil {
		return docstore.Key{}, err
	}
	if !set {
		return docstore.Key{}, docstore.ErrDuplicateKey
	}
	return key, nil
}

func (c *collection) Replace(ctx context.Context, key docstore.Key, doc docstore.Document) error {
	data, err := docstore.EncodeBody(doc)
	if err != nil {
		return err
	}
	set, err := c.rdb.SetXX(ctx, c.redisKey(key), data, 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return docstore.ErrNotFound
	}
	return nil
}

func (c *collection) Remove(ctx context.Context, key docstore.Key) (bool, error) {
	n, err := c.rdb.Del(ctx, c.redisKey(key)).Result()
	return n > 0, err
}

func (c *collection) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.pattern(), 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (c *collection) Truncate(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	for batch := range slices.Chunk(keys, 500) {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Scan visits documents in key order. Documents removed after the key
// listing are skipped.
func (c *collection) Scan(ctx context.Context, fn func(docstore.Document) error) error {
	keys, err := c.keys(ctx)
	if err != nil {
		return err
	}
	for _, rk := range keys {
		key, err := c.parseKey(rk)
		if err != nil {
			return err
		}
		doc, err := c.get(ctx, c.rdb, key)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// modify runs a WATCH/MULTI read-modify-write on one document. fn returns
// the document to write back, or nil to leave it untouched.
func (c *collection) modify(ctx context.Context, key docstore.Key, fn func(doc docstore.Document) docstore.Document) error {
	rk := c.redisKey(key)
	txf := func(tx *redis.Tx) error {
		doc, err := c.get(ctx, tx, key)
		if err != nil {
			return err
		}
		out := fn(doc)
		if out == nil {
			return nil
		}
		data, err := docstore.EncodeBody(out)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, 0)
			return nil
		})
		return err
	}

	err := docstore.RetryConflicts(ctx, func() error {
		err := c.rdb.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			return docstore.Retryable(err)
		}
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%s: %w", c.name, docstore.ErrConflict)
	}
	return err
}

func (c *collection) AppendIfAbsent(ctx context.Context, key docstore.Key, field, matchKey string, entry, seed docstore.Document) (docstore.Document, bool, error) {
	var (
		elem     docstore.Document
		appended bool
	)
	err := c.modify(ctx, key, func(doc docstore.Document) docstore.Document {
		doc, elem, appended = docstore.ApplyAppend(doc, field, matchKey, entry, seed)
		if !appended {
			return nil
		}
		return doc
	})
	return elem, appended, err
}

func (c *collection) UpdateElement(ctx context.Context, key docstore.Key, field, matchKey string, match any, set docstore.Document, unset []string) (bool, error) {
	var found bool
	err := c.modify(ctx, key, func(doc docstore.Document) docstore.Document {
		if found = docstore.ApplyUpdate(doc, field, matchKey, match, set, unset); !found {
			return nil
		}
		return doc
	})
	return found, err
}

func (c *collection) PullElement(ctx context.Context, key docstore.Key, field, matchKey string, match any) (bool, error) {
	var removed bool
	err := c.modify(ctx, key, func(doc docstore.Document) docstore.Document {
		if removed = docstore.ApplyPull(doc, field, matchKey, match); !removed {
			return nil
		}
		return doc
	})
	return removed, err
}

// Ensure Store implements docstore.Store.
var _ docstore.Store = (*Store)(nil)
