package docgraph

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/matzehuels/blueprints/pkg/docstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// vertex is a handle on one document of the nodes collection. props is a
// snapshot taken when the handle was built.
type vertex struct {
	g     *Graph
	key   docstore.Key
	props docstore.Document
}

func (g *Graph) newVertex(key docstore.Key, doc docstore.Document) *vertex {
	return &vertex{g: g, key: key, props: doc.Body()}
}

func (v *vertex) ID() graph.ID {
	kind := graph.StringKind
	if v.key.Kind == docstore.NativeKey {
		kind = graph.NativeKind
	}
	return graph.ID{Kind: kind, Value: v.key.Value}
}

func (v *vertex) String() string { return "v[" + v.key.Value + "]" }

func (v *vertex) Property(key string) (any, bool) {
	val, ok := v.props[key]
	return val, ok
}

func (v *vertex) PropertyKeys() []string { return sortedKeys(v.props) }

// SetProperty replaces the whole vertex document with the snapshot plus
// key=value. Concurrent writers are not detected; the last replace wins.
func (v *vertex) SetProperty(ctx context.Context, key string, value any) error {
	if err := bperrors.ValidatePropertyKey(key, docstore.KeyField); err != nil {
		return err
	}
	next := v.props.Clone()
	if next == nil {
		next = docstore.Document{}
	}
	next[key] = value
	if err := v.replace(ctx, next); err != nil {
		return err
	}
	v.props = next
	return nil
}

// RemoveProperty replaces the whole vertex document with the snapshot minus
// key. Removing an unset key still persists the snapshot.
func (v *vertex) RemoveProperty(ctx context.Context, key string) error {
	if err := bperrors.ValidatePropertyKey(key, docstore.KeyField); err != nil {
		return err
	}
	next := v.props.Clone()
	delete(next, key)
	if err := v.replace(ctx, next); err != nil {
		return err
	}
	v.props = next
	return nil
}

func (v *vertex) replace(ctx context.Context, body docstore.Document) error {
	err := v.g.nodes.Replace(ctx, v.key, body)
	if errors.Is(err, docstore.ErrNotFound) {
		return bperrors.Wrap(bperrors.ErrCodeNotFound, err, "vertex %q not found", v.key.Value)
	}
	if err != nil {
		return fmt.Errorf("replace vertex %s: %w", v.key.Value, err)
	}
	v.g.logger.Debug("replaced vertex", "id", v.key.Value, "properties", len(body))
	return nil
}

// =============================================================================
// Traversal
// =============================================================================

// OutEdges reads the adjacency record of each label when the iteration
// reaches it. With no labels, the label index of the vertex is used.
func (v *vertex) OutEdges(ctx context.Context, labels ...string) iter.Seq2[graph.Edge, error] {
	return func(yield func(graph.Edge, error) bool) {
		v.yieldOut(ctx, labels, yield)
	}
}

func (v *vertex) yieldOut(ctx context.Context, labels []string, yield func(graph.Edge, error) bool) bool {
	if err := validateLabels(labels); err != nil {
		yield(nil, err)
		return false
	}
	id := v.key.Value
	if len(labels) == 0 {
		link, err := v.g.links.FindOne(ctx, outLinkKey(id))
		if err != nil {
			yield(nil, fmt.Errorf("find out labels of %s: %w", id, err))
			return false
		}
		labels = stringField(link, fieldLabels, fieldID)
	}

	for _, label := range labels {
		rk := recordKey(id, label)
		record, err := v.g.edges.FindOne(ctx, rk)
		if err != nil {
			yield(nil, fmt.Errorf("find adjacency %s: %w", rk, err))
			return false
		}
		for _, entry := range record.Elements(fieldTargets) {
			in, ok := entryTarget(entry)
			if !ok {
				continue
			}
			if !yield(v.g.newEdge(id, label, in, entry), nil) {
				return false
			}
		}
	}
	return true
}

// InEdges walks the reverse index of the vertex and reads each source
// record for the current edge properties. Reverse entries whose forward
// target is gone are skipped.
func (v *vertex) InEdges(ctx context.Context, labels ...string) iter.Seq2[graph.Edge, error] {
	return func(yield func(graph.Edge, error) bool) {
		v.yieldIn(ctx, labels, yield)
	}
}

func (v *vertex) yieldIn(ctx context.Context, labels []string, yield func(graph.Edge, error) bool) bool {
	if err := validateLabels(labels); err != nil {
		yield(nil, err)
		return false
	}
	id := v.key.Value
	link, err := v.g.links.FindOne(ctx, inLinkKey(id))
	if err != nil {
		yield(nil, fmt.Errorf("find in sources of %s: %w", id, err))
		return false
	}

	want := labelSet(labels)
	for _, src := range link.Elements(fieldSources) {
		out, _ := src[fieldOut].(string)
		label, _ := src[fieldLabel].(string)
		if out == "" || label == "" || (want != nil && !want[label]) {
			continue
		}
		e, err := v.g.lookupEdge(ctx, out, label, id)
		if err != nil {
			yield(nil, err)
			return false
		}
		if e == nil {
			continue
		}
		if !yield(e, nil) {
			return false
		}
	}
	return true
}

// BothEdges yields the out edges followed by the in edges. A self loop
// appears in both halves.
func (v *vertex) BothEdges(ctx context.Context, labels ...string) iter.Seq2[graph.Edge, error] {
	return func(yield func(graph.Edge, error) bool) {
		if v.yieldOut(ctx, labels, yield) {
			v.yieldIn(ctx, labels, yield)
		}
	}
}
