package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ImportResult summarizes an import.
type ImportResult struct {
	StoryID        string `json:"story_id"`
	Scenelets      int    `json:"scenelets"`
	Shots          int    `json:"shots"`
	HasAudioDesign bool   `json:"has_audio_design"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("✓ Imported story %s (%d scenelets, %d shots)", r.StoryID, r.Scenelets, r.Shots)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Import a story fixture into the store",
		Long: `Import a story (metadata, scenelets, shots and audio design) from a
YAML fixture. Anything already stored for the story id is replaced.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	fx, err := LoadStoryFixture(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, "invalid fixture", err)
	}
	imp, err := fx.Import()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, "invalid fixture", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open store", err)
	}
	defer st.Close()

	if err := st.ImportStory(cmd.Context(), imp); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "import failed", err)
	}

	opts.logger.Info("story imported", "story", imp.Story.ID, "scenelets", len(imp.Scenelets), "shots", len(imp.Shots))
	return f.Success(ImportResult{
		StoryID:        imp.Story.ID,
		Scenelets:      len(imp.Scenelets),
		Shots:          len(imp.Shots),
		HasAudioDesign: imp.AudioDesign != nil,
	})
}
