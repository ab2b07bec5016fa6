package docstore

import (
	"context"
	"time"

	"github.com/matzehuels/blueprints/pkg/observability"
)

// Instrument wraps s so that every collection operation is reported to
// [observability.Store] with its duration and error.
func Instrument(s Store) Store {
	if _, ok := s.(*instrumentedStore); ok {
		return s
	}
	return &instrumentedStore{Store: s}
}

type instrumentedStore struct {
	Store
}

func (s *instrumentedStore) Collection(name string) Collection {
	return &instrumentedCollection{Collection: s.Store.Collection(name)}
}

type instrumentedCollection struct {
	Collection
}

func (c *instrumentedCollection) record(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnOperation(ctx, c.Name(), op, time.Since(start), err)
}

func (c *instrumentedCollection) FindOne(ctx context.Context, key Key) (Document, error) {
	start := time.Now()
	doc, err := c.Collection.FindOne(ctx, key)
	c.record(ctx, "find", start, err)
	return doc, err
}

func (c *instrumentedCollection) Insert(ctx context.Context, doc Document) (Key, error) {
	start := time.Now()
	key, err := c.Collection.Insert(ctx, doc)
	c.record(ctx, "insert", start, err)
	return key, err
}

func (c *instrumentedCollection) Replace(ctx context.Context, key Key, doc Document) error {
	start := time.Now()
	err := c.Collection.Replace(ctx, key, doc)
	c.record(ctx, "replace", start, err)
	return err
}

func (c *instrumentedCollection) Remove(ctx context.Context, key Key) (bool, error) {
	start := time.Now()
	ok, err := c.Collection.Remove(ctx, key)
	c.record(ctx, "remove", start, err)
	return ok, err
}

func (c *instrumentedCollection) Truncate(ctx context.Context) error {
	start := time.Now()
	err := c.Collection.Truncate(ctx)
	c.record(ctx, "truncate", start, err)
	return err
}

func (c *instrumentedCollection) Scan(ctx context.Context, fn func(Document) error) error {
	start := time.Now()
	err := c.Collection.Scan(ctx, fn)
	c.record(ctx, "scan", start, err)
	return err
}

func (c *instrumentedCollection) AppendIfAbsent(ctx context.Context, key Key, field, matchKey string, entry, seed Document) (Document, bool, error) {
	start := time.Now()
	elem, appended, err := c.Collection.AppendIfAbsent(ctx, key, field, matchKey, entry, seed)
	c.record(ctx, "append", start, err)
	return elem, appended, err
}

func (c *instrumentedCollection) UpdateElement(ctx context.Context, key Key, field, matchKey string, match any, set Document, unset []string) (bool, error) {
	start := time.Now()
	ok, err := c.Collection.UpdateElement(ctx, key, field, matchKey, match, set, unset)
	c.record(ctx, "update", start, err)
	return ok, err
}

func (c *instrumentedCollection) PullElement(ctx context.Context, key Key, field, matchKey string, match any) (bool, error) {
	start := time.Now()
	ok, err := c.Collection.PullElement(ctx, key, field, matchKey, match)
	c.record(ctx, "pull", start, err)
	return ok, err
}
