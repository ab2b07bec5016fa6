package graphio

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/blueprints/pkg/graph"
)

// Snapshot is the serialization format of a whole graph.
type Snapshot struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

// Vertex is one serialized vertex.
type Vertex struct {
	ID         string         `json:"id"`
	Native     bool           `json:"native,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is one serialized edge.
type Edge struct {
	ID         string         `json:"id"`
	Out        string         `json:"out"`
	Label      string         `json:"label"`
	In         string         `json:"in"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Collect reads every vertex and edge of g into a snapshot.
func Collect(ctx context.Context, g graph.Graph) (Snapshot, error) {
	var snap Snapshot
	for v, err := range g.Vertices(ctx) {
		if err != nil {
			return Snapshot{}, err
		}
		snap.Vertices = append(snap.Vertices, VertexOf(v))
	}
	for e, err := range g.Edges(ctx) {
		if err != nil {
			return Snapshot{}, err
		}
		se, err := EdgeOf(e)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Edges = append(snap.Edges, se)
	}

	slices.SortFunc(snap.Vertices, func(a, b Vertex) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(snap.Edges, func(a, b Edge) int { return cmp.Compare(a.ID, b.ID) })
	return snap, nil
}

// VertexOf converts a live vertex to its serialized form.
func VertexOf(v graph.Vertex) Vertex {
	return Vertex{
		ID:         v.ID().Value,
		Native:     v.ID().Kind == graph.NativeKind,
		Properties: nonEmpty(graph.Properties(v)),
	}
}

// EdgeOf converts a live edge to its serialized form.
func EdgeOf(e graph.Edge) (Edge, error) {
	out, label, in, err := graph.ParseEdgeID(e.ID().Value)
	if err != nil {
		return Edge{}, err
	}
	return Edge{
		ID:         e.ID().Value,
		Out:        out,
		Label:      label,
		In:         in,
		Properties: nonEmpty(graph.Properties(e)),
	}, nil
}

func nonEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// Ref names a snapshot vertex. A native and a string vertex may share the
// same ID text, so both fields are needed to tell them apart.
type Ref struct {
	ID     string
	Native bool
}

// Import adds every vertex and edge of snap to g. Native vertices get fresh
// ids from g's store; the returned map sends each snapshot vertex to the id
// it received in g.
//
// Edge endpoints carry no kind, so they resolve to the native vertex first
// and the string vertex second, the same order GetVertex uses.
//
// Import is not atomic. A failure leaves everything added before it in g and
// returns the mapping built so far alongside the error.
func Import(ctx context.Context, g graph.Graph, snap Snapshot) (map[Ref]string, error) {
	ids := make(map[Ref]string, len(snap.Vertices))
	vertices := make(map[Ref]graph.Vertex, len(snap.Vertices))

	for _, sv := range snap.Vertices {
		ref := Ref{ID: sv.ID, Native: sv.Native}
		id := sv.ID
		if sv.Native {
			id = ""
		}
		v, err := g.AddVertex(ctx, id)
		if err != nil {
			return ids, fmt.Errorf("vertex %s: %w", sv.ID, err)
		}
		ids[ref] = v.ID().Value
		vertices[ref] = v
		for _, k := range slices.Sorted(maps.Keys(sv.Properties)) {
			if err := v.SetProperty(ctx, k, sv.Properties[k]); err != nil {
				return ids, fmt.Errorf("vertex %s property %s: %w", sv.ID, k, err)
			}
		}
	}

	endpoint := func(id string) graph.Vertex {
		if v, ok := vertices[Ref{ID: id, Native: true}]; ok {
			return v
		}
		return vertices[Ref{ID: id}]
	}
	for _, se := range snap.Edges {
		out, in := endpoint(se.Out), endpoint(se.In)
		if out == nil || in == nil {
			return ids, fmt.Errorf("edge %s: unknown endpoint", se.ID)
		}
		e, err := g.AddEdge(ctx, out, in, se.Label)
		if err != nil {
			return ids, fmt.Errorf("edge %s: %w", se.ID, err)
		}
		for _, k := range slices.Sorted(maps.Keys(se.Properties)) {
			if err := e.SetProperty(ctx, k, se.Properties[k]); err != nil {
				return ids, fmt.Errorf("edge %s property %s: %w", se.ID, k, err)
			}
		}
	}
	return ids, nil
}

// =============================================================================
// JSON
// =============================================================================

// WriteJSON writes snap as indented JSON to w.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a snapshot from r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	return snap, nil
}

// ReadJSONFile decodes a snapshot from the file at path.
func ReadJSONFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
