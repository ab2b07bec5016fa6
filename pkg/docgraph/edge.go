package docgraph

import (
	"context"
	"fmt"

	"github.com/matzehuels/blueprints/pkg/docstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// edge is a handle on one target entry of an adjacency record. props is a
// snapshot of the entry taken when the handle was built.
type edge struct {
	g     *Graph
	out   string
	label string
	in    string
	props docstore.Document
}

func (g *Graph) newEdge(out, label, in string, entry docstore.Document) *edge {
	return &edge{g: g, out: out, label: label, in: in, props: entryProperties(entry)}
}

func (e *edge) ID() graph.ID {
	return graph.ID{Kind: graph.CompositeKind, Value: graph.EdgeID(e.out, e.label, e.in)}
}

func (e *edge) Label() string { return e.label }

func (e *edge) String() string {
	return fmt.Sprintf("e[%s][%s-%s->%s]", e.ID().Value, e.out, e.label, e.in)
}

func (e *edge) OutVertex(ctx context.Context) (graph.Vertex, error) {
	return e.g.GetVertex(ctx, e.out)
}

func (e *edge) InVertex(ctx context.Context) (graph.Vertex, error) {
	return e.g.GetVertex(ctx, e.in)
}

func (e *edge) Property(key string) (any, bool) {
	val, ok := e.props[key]
	return val, ok
}

func (e *edge) PropertyKeys() []string { return sortedKeys(e.props) }

// SetProperty sets key on the target entry in place. It fails with
// DANGLING_EDGE if the record or entry no longer exists.
func (e *edge) SetProperty(ctx context.Context, key string, value any) error {
	if err := bperrors.ValidatePropertyKey(key, fieldID); err != nil {
		return err
	}
	if err := e.update(ctx, docstore.Document{key: value}, nil); err != nil {
		return err
	}
	e.props[key] = value
	return nil
}

// RemoveProperty unsets key on the target entry in place. It fails with
// DANGLING_EDGE if the record or entry no longer exists.
func (e *edge) RemoveProperty(ctx context.Context, key string) error {
	if err := bperrors.ValidatePropertyKey(key, fieldID); err != nil {
		return err
	}
	if err := e.update(ctx, nil, []string{key}); err != nil {
		return err
	}
	delete(e.props, key)
	return nil
}

func (e *edge) update(ctx context.Context, set docstore.Document, unset []string) error {
	rk := recordKey(e.out, e.label)
	found, err := e.g.edges.UpdateElement(ctx, rk, fieldTargets, fieldID, e.in, set, unset)
	if err != nil {
		return fmt.Errorf("update %s in %s: %w", e.in, rk, err)
	}
	if !found {
		return bperrors.New(bperrors.ErrCodeDanglingEdge, "edge %q no longer exists", e.ID().Value)
	}
	e.g.logger.Debug("updated edge", "id", e.ID().Value, "set", len(set), "unset", len(unset))
	return nil
}
