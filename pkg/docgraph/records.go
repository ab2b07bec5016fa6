package docgraph

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/blueprints/pkg/docstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// Document fields of adjacency records and link documents.
const (
	fieldTargets = "targets"
	fieldID      = "id"
	fieldOut     = "out"
	fieldLabel   = "label"
	fieldVertex  = "vertex"
	fieldLabels  = "labels"
	fieldSources = "sources"
)

const (
	outLinkPrefix = "out" + bperrors.Separator
	inLinkPrefix  = "in" + bperrors.Separator
)

func recordKey(out, label string) docstore.Key {
	return docstore.Str(graph.AdjacencyKey(out, label))
}

func outLinkKey(vertexID string) docstore.Key { return docstore.Str(outLinkPrefix + vertexID) }
func inLinkKey(vertexID string) docstore.Key  { return docstore.Str(inLinkPrefix + vertexID) }

// recordEndpoints returns the source and label of an adjacency record. The
// seeded fields are preferred; the key is split as a fallback.
func recordEndpoints(doc docstore.Document) (out, label string, ok bool) {
	out, _ = doc[fieldOut].(string)
	label, _ = doc[fieldLabel].(string)
	if out != "" && label != "" {
		return out, label, true
	}
	key, hasKey := doc.Key()
	if !hasKey {
		return "", "", false
	}
	out, label, ok = strings.Cut(key.Value, bperrors.Separator)
	return out, label, ok && out != "" && label != ""
}

// entryTarget returns the target id of an adjacency entry.
func entryTarget(entry docstore.Document) (string, bool) {
	id, ok := entry[fieldID].(string)
	return id, ok && id != ""
}

// findTarget returns the entry of record whose id is target.
func findTarget(record docstore.Document, target string) (docstore.Document, bool) {
	for _, e := range record.Elements(fieldTargets) {
		if id, ok := entryTarget(e); ok && id == target {
			return e, true
		}
	}
	return nil, false
}

// entryProperties strips the target id from an adjacency entry.
func entryProperties(entry docstore.Document) docstore.Document {
	props := entry.Clone()
	if props == nil {
		props = docstore.Document{}
	}
	delete(props, fieldID)
	return props
}

// stringField collects the string values of field across the elements of arr.
func stringField(doc docstore.Document, arr, field string) []string {
	var out []string
	for _, e := range doc.Elements(arr) {
		if s, ok := e[field].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(props docstore.Document) []string {
	return slices.Sorted(maps.Keys(props))
}

func labelSet(labels []string) map[string]bool {
	if len(labels) == 0 {
		return nil
	}
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}

func validateLabels(labels []string) error {
	for _, l := range labels {
		if err := bperrors.ValidateLabel(l); err != nil {
			return err
		}
	}
	return nil
}
