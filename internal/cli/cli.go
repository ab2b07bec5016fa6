package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/pkg/backend"
	"github.com/matzehuels/blueprints/pkg/buildinfo"
	"github.com/matzehuels/blueprints/pkg/config"
	"github.com/matzehuels/blueprints/pkg/docgraph"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "blueprints"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	buildinfo.Resolve()

	root := &cobra.Command{
		Use:          appName,
		Short:        "Blueprints property graphs on document stores",
		Long:         `Blueprints stores property graphs (vertices, labeled edges and their properties) in a document database such as MongoDB, Redis or an embedded BadgerDB.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a TOML config file")

	root.AddCommand(c.vertexCommand())
	root.AddCommand(c.edgeCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.demoCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration, applies the log level and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = LogInfo
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)

	c.Logger.Debug("loaded config", "path", c.configPath, "backend", cfg.Backend)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Graph Access
// =============================================================================

// withGraph opens the configured graph, runs fn and shuts the graph down.
func (c *CLI) withGraph(ctx context.Context, fn func(context.Context, *docgraph.Graph) error) error {
	g, err := backend.OpenGraph(ctx, c.cfg, loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Shutdown(context.WithoutCancel(ctx)); err != nil {
			loggerFromContext(ctx).Warn("shutdown failed", "err", err)
		}
	}()
	return fn(ctx, g)
}

// warnEphemeral tells the user that a one-shot command against the memory
// backend loses its changes.
func (c *CLI) warnEphemeral() {
	if c.cfg.Backend == config.BackendMemory {
		printWarning("memory backend: changes are discarded when %s exits", appName)
	}
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
