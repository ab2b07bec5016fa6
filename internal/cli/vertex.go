package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// vertexCommand creates the vertex command group.
func (c *CLI) vertexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vertex",
		Aliases: []string{"v"},
		Short:   "Manage vertices",
	}

	cmd.AddCommand(c.vertexAddCommand())
	cmd.AddCommand(c.vertexGetCommand())
	cmd.AddCommand(c.vertexListCommand())
	cmd.AddCommand(c.vertexSetCommand())
	cmd.AddCommand(c.vertexUnsetCommand())
	cmd.AddCommand(c.vertexRemoveCommand())

	return cmd
}

func (c *CLI) vertexAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add [id]",
		Short: "Add a vertex; without an id the store mints one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := g.AddVertex(ctx, id)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printSuccess(w, "Added vertex %s", StyleHighlight.Render(v.ID().Value))
				printNextStep(w, "Set a property", appName+" vertex set "+v.ID().Value+" name value")
				return nil
			})
		},
	}
}

func (c *CLI) vertexGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a vertex and its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				printVertex(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

func (c *CLI) vertexListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every vertex",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				w := cmd.OutOrStdout()
				n := 0
				for v, err := range g.Vertices(ctx) {
					if err != nil {
						return err
					}
					printVertex(w, v)
					n++
				}
				if n == 0 {
					printInfo(w, "No vertices")
				}
				return nil
			})
		},
	}
}

func (c *CLI) vertexSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <key> <value>",
		Short: "Set a vertex property (JSON values are decoded)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := v.SetProperty(ctx, args[1], parseValue(args[2])); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Set %s on vertex %s", args[1], v.ID().Value)
				return nil
			})
		},
	}
}

func (c *CLI) vertexUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <id> <key>",
		Short: "Remove a vertex property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := v.RemoveProperty(ctx, args[1]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Removed %s from vertex %s", args[1], v.ID().Value)
				return nil
			})
		},
	}
}

func (c *CLI) vertexRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a vertex and its edges",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				v, err := mustVertex(ctx, g, args[0])
				if err != nil {
					return err
				}
				if err := g.RemoveVertex(ctx, v); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Removed vertex %s", v.ID().Value)
				return nil
			})
		},
	}
}

// mustVertex looks up id and turns an absent vertex into NOT_FOUND.
func mustVertex(ctx context.Context, g graph.Graph, id string) (graph.Vertex, error) {
	v, err := g.GetVertex(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, bperrors.New(bperrors.ErrCodeNotFound, "vertex %q not found", id)
	}
	return v, nil
}

// mustEdge looks up id and turns an absent edge into NOT_FOUND.
func mustEdge(ctx context.Context, g graph.Graph, id string) (graph.Edge, error) {
	e, err := g.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, bperrors.New(bperrors.ErrCodeNotFound, "edge %q not found", id)
	}
	return e, nil
}
