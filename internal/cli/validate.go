package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/bundle"
	"github.com/roach88/storyreel/internal/player"
	"github.com/roach88/storyreel/internal/story"
	"github.com/roach88/storyreel/internal/tree"
)

// ValidationResult holds the outcome of validating one story.
type ValidationResult struct {
	StoryID   string   `json:"story_id"`
	Valid     bool     `json:"valid"`
	Scenelets int      `json:"scenelets"`
	Nodes     int      `json:"playable_nodes"`
	Excluded  []string `json:"excluded,omitempty"`
}

func (r ValidationResult) String() string {
	s := fmt.Sprintf("✓ Story %s is valid: %d scenelets, %d playable nodes", r.StoryID, r.Scenelets, r.Nodes)
	if len(r.Excluded) > 0 {
		s += fmt.Sprintf(" (%d unreachable with assets: %v)", len(r.Excluded), r.Excluded)
	}
	return s
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <story-id>",
		Short: "Check that a story assembles and bundles cleanly",
		Long: `Validate a stored story without writing anything.

Runs tree assembly over the scenelets, then bundle assembly over the
scenelets, shots and audio design, and finally the player's own bundle
checks.

Exit codes:
  0 - Story is valid
  1 - Story failed a structural or integrity check
  2 - Command error (store not readable, story missing, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, storyID string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open store", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := st.GetStory(ctx, storyID); err != nil {
		if errors.Is(err, story.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("story %q not found", storyID), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load story", err)
	}
	records, err := st.ListScenelets(ctx, storyID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to load scenelets", err)
	}

	digest, err := tree.Assemble(records)
	if err != nil {
		return f.Fail(ExitFailure, ErrorCode(err), "story tree is invalid", err)
	}
	f.VerboseLog("Tree digest: %d entries", len(digest.Entries))

	result, err := bundle.NewAssembler(st, bundle.WithLogger(opts.logger)).Assemble(ctx, storyID)
	if err != nil {
		var ie *bundle.IntegrityError
		if !errors.As(err, &ie) {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to load story", err)
		}
		return f.Fail(ExitFailure, ie.Code, "story failed integrity checks", err)
	}

	if err := player.Validate(result.Bundle); err != nil {
		return f.Fail(ExitFailure, ErrorCode(err), "bundle is not playable", err)
	}

	return f.Success(ValidationResult{
		StoryID:   storyID,
		Valid:     true,
		Scenelets: digest.SceneletCount(),
		Nodes:     len(result.Bundle.Nodes),
		Excluded:  result.Excluded,
	})
}
