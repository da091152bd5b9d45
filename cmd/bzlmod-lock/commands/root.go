// Package commands implements the CLI commands for bzlmod-lock.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-bzlmod-lockcodec/internal/build"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/lockfile"
	"github.com/albertocavalcante/go-bzlmod-lockcodec/registry"
)

// CLI represents the command line interface for bzlmod-lock.
type CLI struct {
	rootCmd *cobra.Command
	factory registry.Factory
	logger  *slog.Logger
}

// Option configures a CLI.
type Option func(*CLI)

// WithFactory sets the registry factory used to decode registry URLs.
// By default a registry.DefaultFactory is created on first use.
func WithFactory(f registry.Factory) Option {
	return func(c *CLI) {
		c.factory = f
	}
}

// New creates a new CLI instance.
func New(opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "bzlmod-lock",
		Short:         "Inspect and maintain MODULE.bazel.lock files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output to stderr")

	c := &CLI{
		rootCmd: rootCmd,
		logger:  slog.New(discardHandler{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		if verbose {
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		if c.factory == nil {
			c.factory = registry.NewFactory(registry.WithFactoryLogger(c.logger))
		}
		return nil
	}

	rootCmd.AddCommand(c.newCheckCmd())
	rootCmd.AddCommand(c.newFmtCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newDiffCmd())
	rootCmd.AddCommand(c.newGenerateCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newWhyCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// lockfilePath returns the lockfile argument, defaulting to the file in the
// current directory.
func lockfilePath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return lockfile.DefaultFileName
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
