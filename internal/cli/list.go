package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/story"
)

// StoryList is the list command's payload.
type StoryList struct {
	Stories []story.Metadata `json:"stories"`
}

func (l StoryList) String() string {
	if len(l.Stories) == 0 {
		return "No stories found."
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, s := range l.Stories {
		fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Title)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored stories",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open store", err)
	}
	defer st.Close()

	stories, err := st.ListStories(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list stories", err)
	}
	if stories == nil {
		stories = []story.Metadata{}
	}
	return f.Success(StoryList{Stories: stories})
}
