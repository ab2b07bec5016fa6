package docstore

import (
	"context"
	"errors"
)

// Sentinel errors for document operations.
var (
	// ErrNotFound is returned by Replace when the target document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is returned by Insert when a document with the same key exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when an optimistic write lost a race and every
	// retry was exhausted.
	ErrConflict = errors.New("write conflict")

	// ErrInvalidKey is returned when a native key is not in the store's format.
	ErrInvalidKey = errors.New("invalid key")
)

// KeyField is the reserved document field holding the document's [Key].
const KeyField = "_id"

// Logical collection names used by the graph engine.
const (
	CollectionNodes   = "nodes"
	CollectionEdges   = "edges"
	CollectionIndexes = "indexes"
	CollectionLinks   = "links"
)

// Collections lists every logical collection a graph owns, in truncation order.
var Collections = []string{CollectionNodes, CollectionEdges, CollectionIndexes, CollectionLinks}

// KeyKind distinguishes store-minted keys from caller strings.
type KeyKind int

const (
	// StringKey is an arbitrary caller-supplied string.
	StringKey KeyKind = iota
	// NativeKey is an identifier in the store's own format.
	NativeKey
)

// String returns "string" or "native".
func (k KeyKind) String() string {
	if k == NativeKey {
		return "native"
	}
	return "string"
}

// Key addresses one document. The zero value is the empty string key and is
// never stored.
type Key struct {
	Kind  KeyKind
	Value string
}

// Str builds a string key.
func Str(s string) Key { return Key{Kind: StringKey, Value: s} }

// Native builds a native key without validating its format.
func Native(s string) Key { return Key{Kind: NativeKey, Value: s} }

// String returns the raw key value.
func (k Key) String() string { return k.Value }

// IsZero reports whether k is the empty key.
func (k Key) IsZero() bool { return k.Value == "" }

// Store is a connection to a document database.
// Implementations must be safe for concurrent use.
type Store interface {
	// Name identifies the backend ("memory", "badger", "mongo", "redis").
	Name() string

	// Collection returns a handle to the named collection. Collections are
	// created implicitly on first write.
	Collection(name string) Collection

	// NewNativeKey mints a fresh native key.
	NewNativeKey() Key

	// ParseNativeKey reports whether s is a valid native key for this store.
	ParseNativeKey(s string) (Key, bool)

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Collection is a set of documents sharing a key space.
// Returned documents always carry their key under [KeyField].
type Collection interface {
	// Name returns the collection name.
	Name() string

	// FindOne returns the document stored under key, or nil, nil if absent.
	FindOne(ctx context.Context, key Key) (Document, error)

	// Insert stores doc. If doc has no [KeyField] the store mints a native
	// key. Returns ErrDuplicateKey if the key is taken.
	Insert(ctx context.Context, doc Document) (Key, error)

	// Replace overwrites the whole body of the document under key.
	// Returns ErrNotFound if it does not exist.
	Replace(ctx context.Context, key Key, doc Document) error

	// Remove deletes the document under key and reports whether it existed.
	Remove(ctx context.Context, key Key) (bool, error)

	// Truncate removes every document in the collection.
	Truncate(ctx context.Context) error

	// Scan calls fn for each document. Returning a non-nil error from fn
	// stops the scan and Scan returns that error.
	Scan(ctx context.Context, fn func(Document) error) error

	// AppendIfAbsent atomically creates the document under key (with the
	// fields of seed and an empty array) if it does not exist, then appends
	// entry to the array under field unless an element whose matchKey equals
	// entry[matchKey] is already present. It returns the element now stored
	// and whether it was appended by this call.
	AppendIfAbsent(ctx context.Context, key Key, field, matchKey string, entry, seed Document) (Document, bool, error)

	// UpdateElement atomically sets the fields in set and removes the fields
	// in unset on the first element of the array under field whose matchKey
	// equals match. It reports false if the document or element is missing.
	UpdateElement(ctx context.Context, key Key, field, matchKey string, match any, set Document, unset []string) (bool, error)

	// PullElement atomically removes every element of the array under field
	// whose matchKey equals match and reports whether anything was removed.
	PullElement(ctx context.Context, key Key, field, matchKey string, match any) (bool, error)
}
