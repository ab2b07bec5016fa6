package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Document is a schemaless record. Nested documents may appear either as
// Document or as map[string]any depending on the backend codec; use [AsMap]
// to read them uniformly.
type Document map[string]any

// Key returns the key stored under [KeyField], if any.
func (d Document) Key() (Key, bool) {
	k, ok := d[KeyField].(Key)
	return k, ok
}

// Body returns a deep copy of d without the key field.
func (d Document) Body() Document {
	out := d.Clone()
	delete(out, KeyField)
	return out
}

// Clone returns a deep copy of d. Nested maps and slices are copied; other
// values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return Document(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Document:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e.Clone()
		}
		return out
	default:
		return v
	}
}

// AsMap returns v as a Document if it is any kind of string-keyed map.
func AsMap(v any) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case map[string]any:
		return Document(t), true
	}
	return nil, false
}

// Elements returns the map elements of the array under field. Non-map
// elements are skipped. The returned documents alias d's storage.
func (d Document) Elements(field string) []Document {
	var arr []any
	switch t := d[field].(type) {
	case []any:
		arr = t
	case []Document:
		out := make([]Document, len(t))
		copy(out, t)
		return out
	default:
		return nil
	}
	out := make([]Document, 0, len(arr))
	for _, e := range arr {
		if m, ok := AsMap(e); ok {
			out = append(out, m)
		}
	}
	return out
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// =============================================================================
// In-process array operations
// =============================================================================
//
// Backends without server-side array operators (memory, badger, redis) run
// these inside their own atomic read-modify-write section.

// appendElement appends entry to doc[field] unless an element with the same
// matchKey value exists. It returns the element now stored and whether it
// was appended.
func appendElement(doc Document, field, matchKey string, entry Document) (Document, bool) {
	match := entry[matchKey]
	for _, e := range doc.Elements(field) {
		if sameValue(e[matchKey], match) {
			return e.Clone(), false
		}
	}
	arr, _ := doc[field].([]any)
	doc[field] = append(arr, map[string]any(entry.Clone()))
	return entry.Clone(), true
}

// updateElement applies set/unset to the first element of doc[field] whose
// matchKey equals match.
func updateElement(doc Document, field, matchKey string, match any, set Document, unset []string) bool {
	for _, e := range doc.Elements(field) {
		if !sameValue(e[matchKey], match) {
			continue
		}
		for k, v := range set {
			e[k] = cloneValue(v)
		}
		for _, k := range unset {
			delete(e, k)
		}
		return true
	}
	return false
}

// pullElement removes every element of doc[field] whose matchKey equals match.
func pullElement(doc Document, field, matchKey string, match any) bool {
	arr, ok := doc[field].([]any)
	if !ok {
		return false
	}
	kept := arr[:0]
	removed := false
	for _, e := range arr {
		if m, ok := AsMap(e); ok && sameValue(m[matchKey], match) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	doc[field] = kept
	return removed
}

// seedDocument builds the body stored when AppendIfAbsent creates a document.
func seedDocument(seed Document, field string) Document {
	doc := seed.Body()
	if doc == nil {
		doc = Document{}
	}
	doc[field] = []any{}
	return doc
}

// normalize rewrites an in-process document so that arrays are []any and
// nested documents are map[string]any, matching what the JSON codec returns.
func normalize(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case Document:
		return map[string]any(normalize(t))
	case map[string]any:
		return map[string]any(normalize(t))
	case []Document:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = map[string]any(normalize(e))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// =============================================================================
// Codec
// =============================================================================

// EncodeBody serializes a document body (without its key) for byte-oriented
// backends.
func EncodeBody(d Document) ([]byte, error) {
	return json.Marshal(d.Body())
}

// DecodeBody deserializes a body written by [EncodeBody] and attaches key.
func DecodeBody(key Key, data []byte) (Document, error) {
	doc := Document{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", key, err)
		}
	}
	doc[KeyField] = key
	return doc, nil
}

// ApplyAppend, ApplyUpdate and ApplyPull expose the in-process array
// operations to byte-oriented backends that run them inside their own
// transactions. doc may be nil if the document does not exist.

// ApplyAppend implements AppendIfAbsent on a decoded document. It returns the
// (possibly new) document to write back, the stored element and whether the
// element was appended.
func ApplyAppend(doc Document, field, matchKey string, entry, seed Document) (Document, Document, bool) {
	if doc == nil {
		doc = seedDocument(seed, field)
	}
	elem, appended := appendElement(doc, field, matchKey, entry)
	return doc, elem, appended
}

// ApplyUpdate implements UpdateElement on a decoded document.
func ApplyUpdate(doc Document, field, matchKey string, match any, set Document, unset []string) bool {
	if doc == nil {
		return false
	}
	return updateElement(doc, field, matchKey, match, set, unset)
}

// ApplyPull implements PullElement on a decoded document.
func ApplyPull(doc Document, field, matchKey string, match any) bool {
	if doc == nil {
		return false
	}
	return pullElement(doc, field, matchKey, match)
}
