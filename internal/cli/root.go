package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/config"
	"github.com/roach88/storyreel/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string // empty means the default search
	DBPath     string // overrides store.path from config

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storyreel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storyreel",
		Short: "storyreel - branching story assembly and playback",
		Long: `Assemble persisted scenelets into a validated story tree, export
self-contained playback bundles, and play them shot by shot.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/storyreel/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "story database path (overrides config)")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDigestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBundleCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setup loads configuration and builds the logger once per invocation.
// Logs go to errOut so they never mix with command output.
func (o *RootOptions) setup(errOut io.Writer) error {
	if o.cfg != nil {
		return nil
	}

	cfg, path, exists, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DBPath != "" {
		dbPath, err := config.ExpandPath(o.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --db path", err)
		}
		cfg.Store.Path = dbPath
	}

	o.cfg = cfg
	o.logger = newLogger(errOut, cfg, o.Verbose)
	o.logger.Debug("config loaded", "path", path, "exists", exists, "store", cfg.Store.Path)
	return nil
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// openStore opens the configured story database, creating its directory.
func (o *RootOptions) openStore() (*store.Store, error) {
	if err := o.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return store.Open(o.cfg.Store.Path)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
