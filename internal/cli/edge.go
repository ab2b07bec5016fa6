package cli

import (
	"context"
	"iter"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// edgeCommand creates the edge command group.
func (c *CLI) edgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edge",
		Aliases: []string{"e"},
		Short:   "Manage edges",
		Long: `Manage edges. Edges are addressed by their composite id
"source|label|target"; quote it in the shell.`,
	}

	cmd.AddCommand(c.edgeAddCommand())
	cmd.AddCommand(c.edgeGetCommand())
	cmd.AddCommand(c.edgeSetCommand())
	cmd.AddCommand(c.edgeUnsetCommand())
	cmd.AddCommand(c.edgeRemoveCommand())
	cmd.AddCommand(c.edgeListCommand("out", "List edges leaving a vertex", graph.Vertex.OutEdges))
	cmd.AddCommand(c.edgeListCommand("in", "List edges entering a vertex", graph.Vertex.InEdges))

	return cmd
}

func (c *CLI) edgeAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <out> <label> <in>",
		Short: "Add an edge; adding an existing edge is a no-op",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				out, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				in, err := mustVertex(ctx, g, args[2])
				if err != nil {
					return err
				}
				e, err := g.AddEdge(ctx, out, in, args[1])
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Added edge %s", StyleHighlight.Render(e.ID().Value))
				return nil
			})
		},
	}
}

func (c *CLI) edgeGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an edge and its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				e, err := mustEdge(ctx, g, args[0])
				if err != nil {
					return err
				}
				printEdge(cmd.OutOrStdout(), e)
				return nil
			})
		},
	}
}

func (c *CLI) edgeSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <key> <value>",
		Short: "Set an edge property (JSON values are decoded)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				e, err := mustEdge(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := e.SetProperty(ctx, args[1], parseValue(args[2])); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Set %s on edge %s", args[1], e.ID().Value)
				return nil
			})
		},
	}
}

func (c *CLI) edgeUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <id> <key>",
		Short: "Remove an edge property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				e, err := mustEdge(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := e.RemoveProperty(ctx, args[1]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Removed %s from edge %s", args[1], e.ID().Value)
				return nil
			})
		},
	}
}

func (c *CLI) edgeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an edge",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				e, err := mustEdge(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := g.RemoveEdge(ctx, e); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Removed edge %s", e.ID().Value)
				return nil
			})
		},
	}
}

type edgesFunc func(v graph.Vertex, ctx context.Context, labels ...string) iter.Seq2[graph.Edge, error]

// edgeListCommand builds "edge out" and "edge in".
func (c *CLI) edgeListCommand(use, short string, edges edgesFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <vertex> [label...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				n := 0
				for e, err := range edges(v, ctx, args[1:]...) {
					if err != nil {
						return err
					}
					printEdge(w, e)
					n++
				}
				if n == 0 {
					printInfo(w, "No edges")
				}
				return nil
			})
		},
	}
}
