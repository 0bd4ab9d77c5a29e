package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/bundle"
	"github.com/roach88/storyreel/internal/config"
	"github.com/roach88/storyreel/internal/story"
)

// BundleOptions holds flags for the bundle command.
type BundleOptions struct {
	*RootOptions
	Output string // bundle file path; empty means bundle.output from config
}

// BundleResult summarizes a written bundle.
type BundleResult struct {
	StoryID     string   `json:"story_id"`
	Path        string   `json:"path"`
	Fingerprint string   `json:"fingerprint"`
	Nodes       int      `json:"nodes"`
	Cues        int      `json:"cues"`
	Excluded    []string `json:"excluded,omitempty"`
}

func (r BundleResult) String() string {
	return fmt.Sprintf("✓ Wrote bundle for %s to %s (%d nodes, %d music cues)", r.StoryID, r.Path, r.Nodes, r.Cues)
}

// NewBundleCommand creates the bundle command.
func NewBundleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BundleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bundle <story-id>",
		Short: "Export a story as a playback bundle",
		Long: `Assemble a stored story into a self-contained playback bundle and
write it as JSON.

Only scenelets reachable from the root through playable children are
included. Unreachable scenelets that do have assets are reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBundle(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (default from config bundle.output)")
	return cmd
}

func runBundle(opts *BundleOptions, storyID string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	out := opts.cfg.Bundle.Output
	if opts.Output != "" {
		expanded, err := config.ExpandPath(opts.Output)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "invalid --out path", err)
		}
		out = expanded
	}

	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open store", err)
	}
	defer st.Close()

	result, err := bundle.NewAssembler(st, bundle.WithLogger(opts.logger)).Assemble(cmd.Context(), storyID)
	if err != nil {
		if bundle.HasCode(err, bundle.ErrStoryNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("story %q not found", storyID), nil)
		}
		var ie *bundle.IntegrityError
		if errors.As(err, &ie) {
			return f.Fail(ExitFailure, ie.Code, "story failed integrity checks", err)
		}
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load story", err)
	}

	if err := writeBundleFile(out, result.Bundle); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write bundle", err)
	}
	opts.logger.Info("bundle written",
		"story", storyID,
		"path", out,
		"nodes", len(result.Bundle.Nodes),
		"fingerprint", result.Bundle.Metadata.Fingerprint,
	)
	for _, id := range result.Excluded {
		f.VerboseLog("Excluded unreachable scenelet with assets: %s", id)
	}

	return f.Success(BundleResult{
		StoryID:     storyID,
		Path:        out,
		Fingerprint: result.Bundle.Metadata.Fingerprint,
		Nodes:       len(result.Bundle.Nodes),
		Cues:        len(result.Bundle.Music.Cues),
		Excluded:    result.Excluded,
	})
}

// writeBundleFile writes b to path via a temporary file in the same
// directory, so readers never see a partial bundle.
func writeBundleFile(path string, b *story.Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := story.WriteBundle(tmp, b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readBundleFile(path string) (*story.Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return story.ReadBundle(file)
}
