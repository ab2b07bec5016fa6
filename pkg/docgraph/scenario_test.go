package docgraph

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/blueprints/pkg/graph"
	"github.com/matzehuels/blueprints/pkg/observability"
)

func TestSonOlderScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		v1 := mustVertex(t, g, "")
		v2 := mustVertex(t, g, "t:1")

		mustEdge(t, g, v1, v2, "son")
		mustEdge(t, g, v1, v2, "son")
		mustEdge(t, g, v1, v2, "older")

		for _, label := range []string{"son", "older"} {
			if got := targets(t, g, v1, label); fmt.Sprint(got) != "[t:1]" {
				t.Errorf("record %s|%s targets = %v, want [t:1]", v1.ID(), label, got)
			}
		}
		sons, err := graph.Collect(v1.OutEdges(ctx, "son"))
		if err != nil {
			t.Fatal(err)
		}
		if len(sons) != 1 {
			t.Errorf("len(OutEdges(son)) = %d, want 1", len(sons))
		}
	})
}

func TestConcurrentAddEdgeKeepsEveryTarget(t *testing.T) {
	const n = 24
	forEachBackend(t, func(t *testing.T, g *Graph) {
		ctx := context.Background()
		hub := mustVertex(t, g, "hub")
		spokes := make([]graph.Vertex, n)
		for i := range spokes {
			spokes[i] = mustVertex(t, g, fmt.Sprintf("s%02d", i))
		}

		eg, ectx := errgroup.WithContext(ctx)
		for _, s := range spokes {
			eg.Go(func() error {
				_, err := g.AddEdge(ectx, hub, s, "links")
				return err
			})
			// Duplicate writes race with the originals.
			eg.Go(func() error {
				_, err := g.AddEdge(ectx, hub, s, "links")
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatalf("concurrent AddEdge: %v", err)
		}

		if got := len(targets(t, g, hub, "links")); got != n {
			t.Errorf("len(targets) = %d, want %d", got, n)
		}
		for _, s := range spokes {
			if got := edgeIDs(t, s.InEdges(ctx)); len(got) != 1 {
				t.Errorf("%s.InEdges() = %v, want one edge", s.ID(), got)
			}
		}
	})
}

type recordingGraphHooks struct {
	observability.NoopGraphHooks
	mu  sync.Mutex
	ops []string
}

func (h *recordingGraphHooks) OnMutation(_ context.Context, op, id string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, fmt.Sprintf("%s %s %v", op, id, err != nil))
}

func TestMutationsReportToHooks(t *testing.T) {
	hooks := &recordingGraphHooks{}
	observability.SetGraphHooks(hooks)
	defer observability.Reset()

	forEachBackend(t, func(t *testing.T, g *Graph) {
		hooks.mu.Lock()
		hooks.ops = nil
		hooks.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		a := mustVertex(t, g, "a")
		e := mustEdge(t, g, a, a, "self")
		g.RemoveEdge(ctx, e)
		g.RemoveEdge(ctx, e)
		g.Clear(ctx)

		want := []string{
			"add_vertex a false",
			"add_edge a|self|a false",
			"remove_edge a|self|a false",
			"remove_edge a|self|a true",
			"clear  false",
		}
		if fmt.Sprint(hooks.ops) != fmt.Sprint(want) {
			t.Errorf("ops = %q, want %q", hooks.ops, want)
		}
	})
}
