package docgraph

import (
	"context"
	"fmt"
	"testing"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

func TestAddEdgeIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		a := mustVertex(t, g, "a")
		b := mustVertex(t, g, "b")

		e1 := mustEdge(t, g, a, b, "knows")
		e2 := mustEdge(t, g, a, b, "knows")

		if got := targets(t, g, a, "knows"); fmt.Sprint(got) != "[b]" {
			t.Errorf("targets = %v, want [b]", got)
		}
		for _, e := range []graph.Edge{e1, e2} {
			if e.ID().Value != "a|knows|b" || e.Label() != "knows" {
				t.Errorf("edge = %v, want a|knows|b", e)
			}
		}
		if e1 == e2 {
			t.Error("AddEdge should return a fresh handle on every call")
		}
	})
}

func TestAddEdgeReturnsStoredProperties(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "a")
		b := mustVertex(t, g, "b")

		e := mustEdge(t, g, a, b, "knows")
		if err := e.SetProperty(ctx, "since", "2009"); err != nil {
			t.Fatal(err)
		}
		again := mustEdge(t, g, a, b, "knows")
		if got, _ := again.Property("since"); got != "2009" {
			t.Errorf("repeated AddEdge Property(since) = %v, want 2009", got)
		}
	})
}

func TestAddEdgeValidation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "a")

		tests := []struct {
			name  string
			out   graph.Vertex
			in    graph.Vertex
			label string
		}{
			{"empty label", a, a, ""},
			{"separator in label", a, a, "x|y"},
			{"nil out", nil, a, "knows"},
			{"nil in", a, nil, "knows"},
		}
		for _, tt := range tests {
			if _, err := g.AddEdge(ctx, tt.out, tt.in, tt.label); !bperrors.Is(err, bperrors.ErrCodeInvalidInput) {
				t.Errorf("%s: AddEdge error = %v, want INVALID_INPUT", tt.name, err)
			}
		}
	})
}

func TestGetEdge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "")
		b := mustVertex(t, g, "t:1")
		mustEdge(t, g, a, b, "son")

		e, err := g.GetEdge(ctx, graph.EdgeID(a.ID().Value, "son", b.ID().Value))
		if err != nil || e == nil {
			t.Fatalf("GetEdge = %v, %v", e, err)
		}
		out, err := e.OutVertex(ctx)
		if err != nil || out == nil || out.ID() != a.ID() {
			t.Errorf("OutVertex() = %v, %v; want %v", out, err, a)
		}
		in, err := e.InVertex(ctx)
		if err != nil || in == nil || in.ID() != b.ID() {
			t.Errorf("InVertex() = %v, %v; want %v", in, err, b)
		}

		for _, id := range []string{
			graph.EdgeID(a.ID().Value, "son", "nobody"),
			graph.EdgeID(a.ID().Value, "daughter", b.ID().Value),
			graph.EdgeID("nobody", "son", b.ID().Value),
		} {
			got, err := g.GetEdge(ctx, id)
			if err != nil || got != nil {
				t.Errorf("GetEdge(%q) = %v, %v; want nil, nil", id, got, err)
			}
		}

		for _, id := range []string{"a|son", "a|son|b|c", ""} {
			if _, err := g.GetEdge(ctx, id); !bperrors.Is(err, bperrors.ErrCodeMalformedID) {
				t.Errorf("GetEdge(%q) error = %v, want MALFORMED_IDENTIFIER", id, err)
			}
		}
	})
}

func TestEdgePropertyIsolation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "a")
		b := mustVertex(t, g, "b")
		c := mustVertex(t, g, "c")
		ab := mustEdge(t, g, a, b, "knows")
		mustEdge(t, g, a, c, "knows")

		if err := ab.SetProperty(ctx, "note", "this is an edge"); err != nil {
			t.Fatalf("SetProperty: %v", err)
		}
		if got, _ := ab.Property("note"); got != "this is an edge" {
			t.Errorf("snapshot Property(note) = %v", got)
		}

		freshAB, _ := g.GetEdge(ctx, "a|knows|b")
		freshAC, _ := g.GetEdge(ctx, "a|knows|c")
		if got, _ := freshAB.Property("note"); got != "this is an edge" {
			t.Errorf("a->b Property(note) = %v, want %q", got, "this is an edge")
		}
		if _, ok := freshAC.Property("note"); ok {
			t.Error("a->c picked up a property set on a->b")
		}
		if keys := freshAB.PropertyKeys(); len(keys) != 1 || keys[0] != "note" {
			t.Errorf("PropertyKeys() = %v, want [note]", keys)
		}

		if err := freshAB.RemoveProperty(ctx, "note"); err != nil {
			t.Fatalf("RemoveProperty: %v", err)
		}
		again, _ := g.GetEdge(ctx, "a|knows|b")
		if _, ok := again.Property("note"); ok {
			t.Error("RemoveProperty did not persist")
		}
		if got := targets(t, g, a, "knows"); fmt.Sprint(got) != "[b c]" {
			t.Errorf("targets = %v, want [b c]", got)
		}
	})
}

func TestEdgeReservedProperty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		a := mustVertex(t, g, "a")
		e := mustEdge(t, g, a, a, "self")
		if err := e.SetProperty(context.Background(), "id", "x"); !bperrors.Is(err, bperrors.ErrCodeInvalidInput) {
			t.Errorf("SetProperty(id) error = %v, want INVALID_INPUT", err)
		}
	})
}

func TestRemoveEdge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "a")
		b := mustVertex(t, g, "b")
		c := mustVertex(t, g, "c")
		ab := mustEdge(t, g, a, b, "knows")
		mustEdge(t, g, a, c, "knows")

		if err := g.RemoveEdge(ctx, ab); err != nil {
			t.Fatalf("RemoveEdge: %v", err)
		}
		if got := targets(t, g, a, "knows"); fmt.Sprint(got) != "[c]" {
			t.Errorf("targets = %v, want [c]", got)
		}
		if e, _ := g.GetEdge(ctx, "a|knows|b"); e != nil {
			t.Errorf("GetEdge after RemoveEdge = %v, want nil", e)
		}
		if ins := edgeIDs(t, b.InEdges(ctx)); len(ins) != 0 {
			t.Errorf("b.InEdges() = %v, want none", ins)
		}

		if err := g.RemoveEdge(ctx, ab); !bperrors.Is(err, bperrors.ErrCodeNotFound) {
			t.Errorf("second RemoveEdge error = %v, want NOT_FOUND", err)
		}
		if err := ab.SetProperty(ctx, "w", "1"); !bperrors.Is(err, bperrors.ErrCodeDanglingEdge) {
			t.Errorf("SetProperty on removed edge error = %v, want DANGLING_EDGE", err)
		}
		if err := ab.RemoveProperty(ctx, "w"); !bperrors.Is(err, bperrors.ErrCodeDanglingEdge) {
			t.Errorf("RemoveProperty on removed edge error = %v, want DANGLING_EDGE", err)
		}
	})
}

func TestEdges(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		a := mustVertex(t, g, "a")
		b := mustVertex(t, g, "b")
		mustEdge(t, g, a, b, "knows")
		mustEdge(t, g, a, b, "likes")
		mustEdge(t, g, b, a, "knows")

		got := edgeIDs(t, g.Edges(ctx))
		want := []string{"a|knows|b", "a|likes|b", "b|knows|a"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("Edges() = %v, want %v", got, want)
		}
	})
}

func TestEdgeString(t *testing.T) {
	g := &Graph{}
	e := g.newEdge("a", "knows", "b", nil)
	if got, want := e.String(), "e[a|knows|b][a-knows->b]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
