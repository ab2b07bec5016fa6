package docstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps every collection in process memory. Native keys are
// random UUIDs. A single mutex serializes all writes, which makes every
// array primitive trivially atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[Key]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[Key]Document)}
}

// Name returns "memory".
func (s *MemoryStore) Name() string { return "memory" }

// Collection returns a handle to the named collection.
func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

// NewNativeKey mints a random UUID key.
func (s *MemoryStore) NewNativeKey() Key { return Native(uuid.NewString()) }

// ParseNativeKey accepts canonical UUID strings.
func (s *MemoryStore) ParseNativeKey(v string) (Key, bool) {
	return parseUUIDKey(v)
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// parseUUIDKey is shared by every backend whose native keys are UUIDs.
func parseUUIDKey(v string) (Key, bool) {
	u, err := uuid.Parse(v)
	if err != nil || u.String() != v {
		return Key{}, false
	}
	return Native(v), true
}

// ParseUUIDKey reports whether v is a canonical UUID native key.
func ParseUUIDKey(v string) (Key, bool) { return parseUUIDKey(v) }

// NewUUIDKey mints a random UUID native key.
func NewUUIDKey() Key { return Native(uuid.NewString()) }

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Name() string { return c.name }

// docs returns the collection map, creating it when create is set.
// Callers must hold the store lock.
func (c *memoryCollection) docs(create bool) map[Key]Document {
	m, ok := c.store.collections[c.name]
	if !ok && create {
		m = make(map[Key]Document)
		c.store.collections[c.name] = m
	}
	return m
}

func withKey(key Key, body Document) Document {
	doc := body.Clone()
	doc[KeyField] = key
	return doc
}

func (c *memoryCollection) FindOne(ctx context.Context, key Key) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	body, ok := c.docs(false)[key]
	if !ok {
		return nil, nil
	}
	return withKey(key, body), nil
}

func (c *memoryCollection) Insert(ctx context.Context, doc Document) (Key, error) {
	if err := ctx.Err(); err != nil {
		return Key{}, err
	}
	key, ok := doc.Key()
	if !ok || key.IsZero() {
		key = c.store.NewNativeKey()
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs(true)
	if _, exists := docs[key]; exists {
		return Key{}, ErrDuplicateKey
	}
	docs[key] = normalize(doc.Body())
	return key, nil
}

func (c *memoryCollection) Replace(ctx context.Context, key Key, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs(false)
	if _, exists := docs[key]; !exists {
		return ErrNotFound
	}
	docs[key] = normalize(doc.Body())
	return nil
}

func (c *memoryCollection) Remove(ctx context.Context, key Key) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs(false)
	if _, exists := docs[key]; !exists {
		return false, nil
	}
	delete(docs, key)
	return true, nil
}

func (c *memoryCollection) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	delete(c.store.collections, c.name)
	return nil
}

// Scan visits documents in key order. It works on a snapshot so fn may
// safely call back into the store.
func (c *memoryCollection) Scan(ctx context.Context, fn func(Document) error) error {
	c.store.mu.RLock()
	docs := c.docs(false)
	snapshot := make([]Document, 0, len(docs))
	for k, body := range docs {
		snapshot = append(snapshot, withKey(k, body))
	}
	c.store.mu.RUnlock()

	slices.SortFunc(snapshot, func(a, b Document) int {
		ka, _ := a.Key()
		kb, _ := b.Key()
		if c := cmp.Compare(ka.Value, kb.Value); c != 0 {
			return c
		}
		return cmp.Compare(ka.Kind, kb.Kind)
	})

	for _, doc := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *memoryCollection) AppendIfAbsent(ctx context.Context, key Key, field, matchKey string, entry, seed Document) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.docs(true)
	doc, elem, appended := ApplyAppend(docs[key], field, matchKey, normalize(entry), seed)
	docs[key] = normalize(doc)
	return elem, appended, nil
}

func (c *memoryCollection) UpdateElement(ctx context.Context, key Key, field, matchKey string, match any, set Document, unset []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return ApplyUpdate(c.docs(false)[key], field, matchKey, match, normalize(set), unset), nil
}

func (c *memoryCollection) PullElement(ctx context.Context, key Key, field, matchKey string, match any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return ApplyPull(c.docs(false)[key], field, matchKey, match), nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
