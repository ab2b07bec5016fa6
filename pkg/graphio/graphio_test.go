package graphio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/docstore"
	"github.com/matzehuels/blueprints/pkg/graph"
)

func newGraph() *docgraph.Graph {
	return docgraph.New(docstore.NewMemoryStore(), docgraph.WithLogger(log.New(io.Discard)))
}

// buildFamily creates v1 (native) -son-> t:1 and v1 -older-> t:1.
func buildFamily(t *testing.T, g graph.Graph) graph.Vertex {
	t.Helper()
	ctx := context.Background()
	v1, _ := g.AddVertex(ctx, "")
	v2, _ := g.AddVertex(ctx, "t:1")
	v1.SetProperty(ctx, "name", "marko")
	son, err := g.AddEdge(ctx, v1, v2, "son")
	if err != nil {
		t.Fatal(err)
	}
	son.SetProperty(ctx, "note", "this is an edge")
	if _, err := g.AddEdge(ctx, v1, v2, "older"); err != nil {
		t.Fatal(err)
	}
	return v1
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	g := newGraph()
	v1 := buildFamily(t, g)

	snap, err := Collect(ctx, g)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(snap.Vertices) != 2 || len(snap.Edges) != 2 {
		t.Fatalf("snapshot has %d vertices, %d edges; want 2, 2", len(snap.Vertices), len(snap.Edges))
	}

	var native *Vertex
	for i := range snap.Vertices {
		if snap.Vertices[i].ID == v1.ID().Value {
			native = &snap.Vertices[i]
		}
	}
	if native == nil || !native.Native {
		t.Fatalf("vertex %s missing or not native: %+v", v1.ID(), snap.Vertices)
	}
	if native.Properties["name"] != "marko" {
		t.Errorf("native vertex properties = %v", native.Properties)
	}

	for _, e := range snap.Edges {
		if e.Out != v1.ID().Value || e.In != "t:1" {
			t.Errorf("edge %+v has wrong endpoints", e)
		}
		if e.Label == "son" && e.Properties["note"] != "this is an edge" {
			t.Errorf("son edge properties = %v", e.Properties)
		}
	}
	if snap.Edges[0].ID > snap.Edges[1].ID {
		t.Error("edges are not sorted by id")
	}
}

func TestJSONImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newGraph()
	buildFamily(t, src)
	snap, _ := Collect(ctx, src)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, snap); err != nil {
		t.Fatal(err)
	}
	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}

	dst := newGraph()
	ids, err := Import(ctx, dst, decoded)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := ids[Ref{ID: "t:1"}]; got != "t:1" {
		t.Errorf("string id remapped to %q, want t:1", got)
	}

	again, _ := Collect(ctx, dst)
	if len(again.Vertices) != 2 || len(again.Edges) != 2 {
		t.Fatalf("imported %d vertices, %d edges; want 2, 2", len(again.Vertices), len(again.Edges))
	}
	for _, e := range again.Edges {
		if e.Label == "son" && e.Properties["note"] != "this is an edge" {
			t.Errorf("imported son properties = %v", e.Properties)
		}
	}
}

func TestImportUnknownEndpoint(t *testing.T) {
	snap := Snapshot{
		Vertices: []Vertex{{ID: "a"}},
		Edges:    []Edge{{ID: "a|knows|b", Out: "a", Label: "knows", In: "b"}},
	}
	if _, err := Import(context.Background(), newGraph(), snap); err == nil {
		t.Error("Import should fail on an edge to an unknown vertex")
	}
}

func TestImportSharedIDText(t *testing.T) {
	ctx := context.Background()
	snap := Snapshot{
		Vertices: []Vertex{
			{ID: "x", Native: true, Properties: map[string]any{"kind": "native"}},
			{ID: "x", Properties: map[string]any{"kind": "string"}},
			{ID: "y"},
		},
		Edges: []Edge{{ID: "x|knows|y", Out: "x", Label: "knows", In: "y"}},
	}

	g := newGraph()
	ids, err := Import(ctx, g, snap)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3: %v", len(ids), ids)
	}
	if got := ids[Ref{ID: "x"}]; got != "x" {
		t.Errorf("string vertex id = %q, want x", got)
	}
	native := ids[Ref{ID: "x", Native: true}]
	if native == "" || native == "x" {
		t.Errorf("native vertex id = %q, want a fresh store id", native)
	}

	v, err := g.GetVertex(ctx, native)
	if err != nil || v == nil {
		t.Fatalf("GetVertex(%s) = %v, %v", native, v, err)
	}
	if got, _ := v.Property("kind"); got != "native" {
		t.Errorf("native kind = %v, want native", got)
	}
	var out int
	for e, err := range v.OutEdges(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		if e.Label() != "knows" {
			t.Errorf("label = %q, want knows", e.Label())
		}
		out++
	}
	if out != 1 {
		t.Errorf("native vertex has %d out edges, want 1", out)
	}
}

func TestImportPartialFailure(t *testing.T) {
	snap := Snapshot{
		Vertices: []Vertex{{ID: "a"}, {ID: "b"}},
		Edges:    []Edge{{ID: "a|knows|c", Out: "a", Label: "knows", In: "c"}},
	}
	g := newGraph()
	ids, err := Import(context.Background(), g, snap)
	if err == nil {
		t.Fatal("Import should fail on an edge to an unknown vertex")
	}
	if len(ids) != 2 {
		t.Errorf("len(ids) = %d, want 2", len(ids))
	}
	if v, _ := g.GetVertex(context.Background(), "a"); v == nil {
		t.Error("vertex a should remain after a failed import")
	}
}

func TestReadJSONInvalid(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{")); err == nil {
		t.Error("ReadJSON should fail on malformed input")
	}
	if _, err := ReadJSONFile("/nonexistent/graph.json"); err == nil {
		t.Error("ReadJSONFile should fail on a missing file")
	}
}

func TestToDOT(t *testing.T) {
	snap := Snapshot{
		Vertices: []Vertex{{ID: "a", Properties: map[string]any{"name": "marko"}}, {ID: "b"}},
		Edges:    []Edge{{ID: "a|knows|b", Out: "a", Label: "knows", In: "b", Properties: map[string]any{"w": 0.5}}},
	}

	dot := ToDOT(snap, Options{})
	for _, want := range []string{"digraph G", `"a" [label="a"]`, `"a" -> "b" [label="knows"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}

	detailed := ToDOT(snap, Options{Detailed: true})
	for _, want := range []string{`name: marko`, `w: 0.5`} {
		if !strings.Contains(detailed, want) {
			t.Errorf("detailed ToDOT() missing %q:\n%s", want, detailed)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "rewrites root",
			svg:  `<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.svg))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), `digraph G { a -> b [label="knows"]; }`)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
