package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/config"
)

// ConfigInitResult reports where a sample config was written.
type ConfigInitResult struct {
	Path string `json:"path"`
}

func (r ConfigInitResult) String() string {
	return fmt.Sprintf("✓ Wrote sample config to %s", r.Path)
}

// ConfigShowResult is the effective configuration.
type ConfigShowResult struct {
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
	Config *config.Config `json:"config"`
}

func (r ConfigShowResult) String() string {
	source := r.Path
	if !r.Exists {
		source = "defaults (no file at " + r.Path + ")"
	}
	c := r.Config
	return fmt.Sprintf(`source: %s
store.path: %s
player.ramp_up_ms: %d
player.ramp_down_ms: %d
player.audio_missing_hold_ms: %d
bundle.output: %s
logging.level: %s
logging.format: %s`,
		source, c.Store.Path,
		c.Player.RampUpMS, c.Player.RampDownMS, c.Player.AudioMissingHoldMS,
		c.Bundle.Output, c.Logging.Level, c.Logging.Format)
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:           "init [path]",
		Short:         "Write a sample configuration file",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			path := rootOpts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			var err error
			if path == "" {
				path, err = config.DefaultConfigPath()
			} else {
				path, err = config.ExpandPath(path)
			}
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "invalid config path", err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return f.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
			}
			if err := config.CreateSample(path); err != nil {
				return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write config", err)
			}
			return f.Success(ConfigInitResult{Path: path})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			cfg, path, exists, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
			}
			return f.Success(ConfigShowResult{Path: path, Exists: exists, Config: cfg})
		},
	}
}
