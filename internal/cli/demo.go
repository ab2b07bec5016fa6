package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// demoCommand runs a short scripted session against the configured graph.
func (c *CLI) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted session: vertices, son/older edges, traversal",
		Long: `Run a scripted session against the configured graph. The graph is
cleared first, so point it at a scratch database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				return runDemo(ctx, g, cmd.OutOrStdout())
			})
		},
	}
}

// runDemo clears g, builds a small family graph and walks it, printing each
// step to w.
func runDemo(ctx context.Context, g graph.Graph, w io.Writer) error {
	if err := g.Clear(ctx); err != nil {
		return err
	}

	v1, err := g.AddVertex(ctx, "")
	if err != nil {
		return err
	}
	v2, err := g.AddVertex(ctx, "t:1")
	if err != nil {
		return err
	}
	v3, err := g.AddVertex(ctx, "t:2")
	if err != nil {
		return err
	}
	printSuccess(w, "Added vertices %s, %s, %s", v1.ID().Value, v2.ID().Value, v3.ID().Value)

	// Reload by id; v1 has a store-minted id, v2 a caller string.
	if v1, err = mustVertex(ctx, g, v1.ID().Value); err != nil {
		return err
	}
	if v2, err = mustVertex(ctx, g, v2.ID().Value); err != nil {
		return err
	}

	son, err := g.AddEdge(ctx, v1, v2, "son")
	if err != nil {
		return err
	}
	if _, err := g.AddEdge(ctx, v1, v2, "son"); err != nil {
		return err
	}
	if _, err := g.AddEdge(ctx, v1, v3, "son"); err != nil {
		return err
	}
	if _, err := g.AddEdge(ctx, v1, v2, "older"); err != nil {
		return err
	}
	printSuccess(w, "Added edges (the repeated son edge is stored once)")

	e, err := mustEdge(ctx, g, son.ID().Value)
	if err != nil {
		return err
	}
	out, err := e.OutVertex(ctx)
	if err != nil {
		return err
	}
	in, err := e.InVertex(ctx)
	if err != nil {
		return err
	}
	printInfo(w, "Edge %s", e.ID().Value)
	printDetail(w, "out %s, label %s, in %s", out.ID().Value, e.Label(), in.ID().Value)

	sons, err := graph.Collect(v1.OutEdges(ctx, "son"))
	if err != nil {
		return err
	}
	printInfo(w, "Out edges of %s labeled son: %d", v1.ID().Value, len(sons))
	for _, s := range sons {
		printDetail(w, "%s", s.ID().Value)
	}

	into, err := graph.Collect(v2.InEdges(ctx))
	if err != nil {
		return err
	}
	printInfo(w, "In edges of %s: %d", v2.ID().Value, len(into))
	for _, s := range into {
		printDetail(w, "%s", s.ID().Value)
	}

	if err := v2.SetProperty(ctx, "name", "first son"); err != nil {
		return err
	}
	if err := e.SetProperty(ctx, "since", 1999); err != nil {
		return err
	}
	printSuccess(w, "Set properties on %s and %s", v2.ID().Value, e.ID().Value)
	printVertex(w, v2)
	printEdge(w, e)

	printNextStep(w, "Render it", appName+" export -o family.svg")
	return nil
}
