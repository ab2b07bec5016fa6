package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graphio"
)

// Export formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// clearCommand removes every vertex and edge.
func (c *CLI) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every vertex and edge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(fmt.Sprintf("Remove everything from the %s graph?", c.cfg.Backend),
					cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if !ok {
					printInfo(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				if err := g.Clear(ctx); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Cleared graph")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// exportCommand writes the graph as a JSON snapshot, DOT or SVG.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as JSON, DOT or SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && format == "" {
				format = formatFromPath(output)
			}
			if format == "" {
				format = formatJSON
			}
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				prog := newProgress(loggerFromContext(ctx))
				snap, err := graphio.Collect(ctx, g)
				if err != nil {
					return err
				}
				data, err := encodeSnapshot(ctx, snap, format, graphio.Options{Detailed: detailed})
				if err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				prog.done(fmt.Sprintf("Exported %d vertices and %d edges", len(snap.Vertices), len(snap.Edges)))
				w := cmd.OutOrStdout()
				printSuccess(w, "Exported graph")
				printStats(w, len(snap.Vertices), len(snap.Edges))
				printFile(w, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json, dot or svg (default from -o extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include properties in DOT and SVG labels")
	return cmd
}

func formatFromPath(path string) string {
	switch filepath.Ext(path) {
	case ".dot", ".gv":
		return formatDOT
	case ".svg":
		return formatSVG
	case ".json":
		return formatJSON
	}
	return ""
}

func encodeSnapshot(ctx context.Context, snap graphio.Snapshot, format string, opts graphio.Options) ([]byte, error) {
	switch format {
	case formatJSON:
		var buf bytes.Buffer
		if err := graphio.WriteJSON(&buf, snap); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatDOT:
		return []byte(graphio.ToDOT(snap, opts)), nil
	case formatSVG:
		spinner := startSpinner(ctx, "Rendering SVG...")
		svg, err := graphio.RenderSVG(ctx, graphio.ToDOT(snap, opts))
		spinner.Stop()
		return svg, err
	}
	return nil, bperrors.New(bperrors.ErrCodeInvalidInput, "unknown format %q (want json, dot or svg)", format)
}

// importCommand loads a JSON snapshot into the graph.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON snapshot written by export",
		Long: `Import a JSON snapshot written by export. Vertices with string ids keep
them; vertices with store-minted ids receive new ones and their edges are
remapped. A failed import is not rolled back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := graphio.ReadJSONFile(args[0])
			if err != nil {
				return err
			}
			c.warnEphemeral()
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				prog := newProgress(loggerFromContext(ctx))
				spinner := startSpinner(ctx, "Importing...")
				ids, err := graphio.Import(ctx, g, snap)
				spinner.Stop()
				if err != nil {
					if len(ids) > 0 {
						printWarning("Import stopped after %d vertices; the graph keeps what was added", len(ids))
					}
					return err
				}
				prog.done(fmt.Sprintf("Imported %d vertices", len(ids)))
				w := cmd.OutOrStdout()
				printSuccess(w, "Imported %s", args[0])
				printStats(w, len(snap.Vertices), len(snap.Edges))
				return nil
			})
		},
	}
}
