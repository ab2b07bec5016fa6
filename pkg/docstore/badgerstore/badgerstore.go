// Package badgerstore implements docstore.Store on an embedded BadgerDB.
//
// Every document is one key/value pair. Keys are laid out as
//
//	<collection> 0x00 <kind> <value>
//
// where kind is 'n' for native keys and 's' for string keys, so both key
// kinds coexist and a collection is a contiguous key range. Bodies are JSON.
// Array primitives run as serializable read-modify-write transactions and are
// retried when badger reports a conflict.
package badgerstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"

	"github.com/matzehuels/blueprints/pkg/docstore"
)

const (
	kindNative = 'n'
	kindString = 's'
)

// Options configures a BadgerDB store.
type Options struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's internal log output. Nil silences it.
	Logger *log.Logger
}

// Store is a docstore.Store backed by BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the database described by opts.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("badger: path is required unless in_memory is set")
	}

	bopts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(newLogger(opts.Logger))
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}
	return &Store{db: db}, nil
}

// Name returns "badger".
func (s *Store) Name() string { return "badger" }

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) docstore.Collection {
	return &collection{db: s.db, name: name, prefix: append([]byte(name), 0)}
}

// NewNativeKey mints a random UUID key.
func (s *Store) NewNativeKey() docstore.Key { return docstore.NewUUIDKey() }

// ParseNativeKey accepts canonical UUID strings.
func (s *Store) ParseNativeKey(v string) (docstore.Key, bool) { return docstore.ParseUUIDKey(v) }

// Close closes the database.
func (s *Store) Close(ctx context.Context) error { return s.db.Close() }

type collection struct {
	db     *badger.DB
	name   string
	prefix []byte
}

func (c *collection) Name() string { return c.name }

func (c *collection) encodeKey(k docstore.Key) []byte {
	kind := byte(kindString)
	if k.Kind == docstore.NativeKey {
		kind = kindNative
	}
	buf := make([]byte, 0, len(c.prefix)+1+len(k.Value))
	buf = append(buf, c.prefix...)
	buf = append(buf, kind)
	return append(buf, k.Value...)
}

func (c *collection) decodeKey(raw []byte) (docstore.Key, error) {
	rest, ok := bytes.CutPrefix(raw, c.prefix)
	if !ok || len(rest) == 0 {
		return docstore.Key{}, fmt.Errorf("%w: %q", docstore.ErrInvalidKey, raw)
	}
	switch rest[0] {
	case kindNative:
		return docstore.Native(string(rest[1:])), nil
	case kindString:
		return docstore.Str(string(rest[1:])), nil
	}
	return docstore.Key{}, fmt.Errorf("%w: unknown kind %q", docstore.ErrInvalidKey, rest[0])
}

// get reads and decodes the document under key inside txn. Returns nil, nil
// if absent.
func (c *collection) get(txn *badger.Txn, key docstore.Key) (docstore.Document, error) {
	item, err := txn.Get(c.encodeKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeBody(key, data)
}

func (c *collection) put(txn *badger.Txn, key docstore.Key, doc docstore.Document) error {
	data, err := docstore.EncodeBody(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	return txn.Set(c.encodeKey(key), data)
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (c *collection) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	err := docstore.RetryConflicts(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			return docstore.Retryable(err)
		}
		return err
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%s: %w", c.name, docstore.ErrConflict)
	}
	return err
}

func (c *collection) FindOne(ctx context.Context, key docstore.Key) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc docstore.Document
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.get(txn, key)
		return err
	})
	return doc, err
}

func (c *collection) Insert(ctx context.Context, doc docstore.Document) (docstore.Key, error) {
	key, ok := doc.Key()
	if !ok || key.IsZero() {
		key = docstore.NewUUIDKey()
	}
	err := c.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(c.encodeKey(key))
		if err == nil {
			return docstore.ErrDuplicateKey
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return c.put(txn, key, doc)
	})
	if err != nil {
		return docstore.Key{}, err
	}
	return key, nil
}

func (c *collection) Replace(ctx context.Context, key docstore.Key, doc docstore.Document) error {
	return c.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(c.encodeKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return docstore.ErrNotFound
		}
		if err != nil {
			return err
		}
		return c.put(txn, key, doc)
	})
}

func (c *collection) Remove(ctx context.Context, key docstore.Key) (bool, error) {
	var existed bool
	err := c.update(ctx, func(txn *badger.Txn) error {
		existed = false
		k := c.encodeKey(key)
		_, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	return existed, err
}

func (c *collection) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.DropPrefix(c.prefix)
}

func (c *collection) Scan(ctx context.Context, fn func(docstore.Document) error) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = c.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key, err := c.decodeKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := docstore.DecodeBody(key, data)
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *collection) AppendIfAbsent(ctx context.Context, key docstore.Key, field, matchKey string, entry, seed docstore.Document) (docstore.Document, bool, error) {
	var (
		elem     docstore.Document
		appended bool
	)
	err := c.update(ctx, func(txn *badger.Txn) error {
		doc, err := c.get(txn, key)
		if err != nil {
			return err
		}
		doc, elem, appended = docstore.ApplyAppend(doc, field, matchKey, entry, seed)
		if !appended {
			return nil
		}
		return c.put(txn, key, doc)
	})
	if err != nil {
		return nil, false, err
	}
	return roundTrip(elem), appended, nil
}

func (c *collection) UpdateElement(ctx context.Context, key docstore.Key, field, matchKey string, match any, set docstore.Document, unset []string) (bool, error) {
	var found bool
	err := c.update(ctx, func(txn *badger.Txn) error {
		doc, err := c.get(txn, key)
		if err != nil {
			return err
		}
		if found = docstore.ApplyUpdate(doc, field, matchKey, match, set, unset); !found {
			return nil
		}
		return c.put(txn, key, doc)
	})
	return found, err
}

func (c *collection) PullElement(ctx context.Context, key docstore.Key, field, matchKey string, match any) (bool, error) {
	var removed bool
	err := c.update(ctx, func(txn *badger.Txn) error {
		doc, err := c.get(txn, key)
		if err != nil {
			return err
		}
		if removed = docstore.ApplyPull(doc, field, matchKey, match); !removed {
			return nil
		}
		return c.put(txn, key, doc)
	})
	return removed, err
}

// roundTrip passes a freshly appended element through the JSON codec so it
// has the same value types a later read would return.
func roundTrip(elem docstore.Document) docstore.Document {
	data, err := docstore.EncodeBody(elem)
	if err != nil {
		return elem
	}
	doc, err := docstore.DecodeBody(docstore.Key{}, data)
	if err != nil {
		return elem
	}
	delete(doc, docstore.KeyField)
	return doc
}

// Ensure Store implements docstore.Store.
var _ docstore.Store = (*Store)(nil)
