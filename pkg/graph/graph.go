package graph

import (
	"iter"
	"strings"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
)

// =============================================================================
// Identifiers
// =============================================================================

// IDKind tags how an identifier was produced.
type IDKind uint8

const (
	// StringKind is a caller-supplied string.
	StringKind IDKind = iota
	// NativeKind is an identifier minted by the store.
	NativeKind
	// CompositeKind is a "source|label|target" edge id.
	CompositeKind
)

// String returns the kind name.
func (k IDKind) String() string {
	switch k {
	case NativeKind:
		return "native"
	case CompositeKind:
		return "composite"
	default:
		return "string"
	}
}

// ID is an element identifier.
type ID struct {
	Kind  IDKind
	Value string
}

// String returns the raw identifier.
func (id ID) String() string { return id.Value }

// EdgeID builds the composite id of the edge out -label-> in.
func EdgeID(out, label, in string) string {
	return out + bperrors.Separator + label + bperrors.Separator + in
}

// AdjacencyKey builds the key of the record holding every out -label-> edge.
func AdjacencyKey(out, label string) string {
	return out + bperrors.Separator + label
}

// ParseEdgeID splits a composite edge id. It fails with
// MALFORMED_IDENTIFIER unless id has exactly three parts.
func ParseEdgeID(id string) (out, label, in string, err error) {
	parts := strings.Split(id, bperrors.Separator)
	if len(parts) != 3 {
		return "", "", "", bperrors.New(bperrors.ErrCodeMalformedID,
			"edge id %q must have the form source|label|target", id)
	}
	return parts[0], parts[1], parts[2], nil
}

// =============================================================================
// Helpers
// =============================================================================

// Collect drains seq into a slice, stopping at the first error.
func Collect[E any](seq iter.Seq2[E, error]) ([]E, error) {
	var out []E
	for e, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Properties copies every property of e into a map.
func Properties(e Element) map[string]any {
	keys := e.PropertyKeys()
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k], _ = e.Property(k)
	}
	return props
}
