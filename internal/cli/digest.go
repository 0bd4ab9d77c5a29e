package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/story"
	"github.com/roach88/storyreel/internal/tree"
)

// DigestResult is the digest command's JSON payload.
type DigestResult struct {
	StoryID     string              `json:"story_id"`
	Entries     []story.DigestEntry `json:"entries"`
	AssignedIDs map[string]string   `json:"assigned_ids"`
	rendered    string
}

func (r DigestResult) String() string {
	return strings.TrimRight(r.rendered, "\n")
}

// NewDigestCommand creates the digest command.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <story-id>",
		Short: "Print the validated tree digest of a story",
		Long: `Assemble a stored story's scenelets into a tree and print its digest.

Text output is the YAML digest. JSON output carries the entries and the
record id to scenelet-N id assignment.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(rootOpts, args[0], cmd)
		},
	}
}

func runDigest(opts *RootOptions, storyID string, cmd *cobra.Command) error {
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

	f.VerboseLog("Assembled %d scenelet(s) into %d digest entries", digest.SceneletCount(), len(digest.Entries))
	return f.Success(DigestResult{
		StoryID:     storyID,
		Entries:     digest.Entries,
		AssignedIDs: digest.AssignedIDs,
		rendered:    digest.Rendered,
	})
}
