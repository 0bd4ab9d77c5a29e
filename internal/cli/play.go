package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/storyreel/internal/player"
	"github.com/roach88/storyreel/internal/story"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Audio   time.Duration // simulated length of every voiced shot
	Choices []string      // choice targets or labels, consumed in order
	Timeout time.Duration
}

// PlaybackResult summarizes a finished playback.
type PlaybackResult struct {
	SessionID  string         `json:"session_id"`
	FinalStage player.Stage   `json:"final_stage"`
	FinalNode  string         `json:"final_node"`
	Path       []string       `json:"path"`
	Events     []player.Event `json:"events"`
}

func (r PlaybackResult) String() string {
	return fmt.Sprintf("■ Playback ended at %s (%s) after %d events: %s",
		r.FinalNode, r.FinalStage, len(r.Events), strings.Join(r.Path, " → "))
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <bundle.json>",
		Short: "Play a bundle headlessly and print its events",
		Long: `Drive the playback controller over a bundle in real time, simulating
audio playback, and print every event it raises.

At each branch the next --choose value is taken (a target node id or a
choice label); once they run out the first choice is taken. Playback ends
at a terminal or incomplete node.

Examples:
  storyreel play bundle.json
  storyreel play bundle.json --audio 500ms --choose scenelet-3
  storyreel play bundle.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Audio, "audio", 2*time.Second, "simulated audio length per voiced shot")
	cmd.Flags().StringSliceVar(&opts.Choices, "choose", nil, "choices to take at branches, in order")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "give up if playback has not ended")
	return cmd
}

// playback is the play command's listener state. It only runs on the loop
// goroutine.
type playback struct {
	ctrl    *player.Controller
	loop    *player.Loop
	audio   time.Duration
	choices []string
	stream  io.Writer // nil in JSON mode

	events []player.Event
	path   []string
	final  player.State
	ended  bool
	err    error
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd.ErrOrStderr()); err != nil {
		return err
	}
	f := opts.formatter(cmd)

	b, err := readBundleFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, "failed to read bundle", err)
	}

	loop := player.NewLoop(opts.logger)
	ctrl, err := player.NewController(b, loop,
		player.WithTimings(opts.cfg.Timings()),
		player.WithLogger(opts.logger),
	)
	if err != nil {
		return f.Fail(ExitFailure, ErrorCode(err), "bundle is not playable", err)
	}

	p := &playback{
		ctrl:    ctrl,
		loop:    loop,
		audio:   opts.Audio,
		choices: append([]string(nil), opts.Choices...),
	}
	if opts.Format != "json" {
		p.stream = cmd.OutOrStdout()
	}
	if _, err := ctrl.SubscribeAll(p.onEvent); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	opts.logger.Debug("playback starting", "bundle", path, "story", b.Metadata.StoryID, "nodes", len(b.Nodes))
	loop.Post(ctrl.Start)
	runErr := loop.Run(ctx)

	if p.err != nil {
		return f.Fail(ExitFailure, ErrorCode(p.err), "playback failed", p.err)
	}
	if !p.ended {
		if runErr == nil || errors.Is(runErr, context.DeadlineExceeded) {
			return f.Fail(ExitFailure, ErrCodeTimeout, fmt.Sprintf("playback did not end within %s", opts.Timeout), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeGeneric, "playback interrupted", runErr)
	}

	return f.Success(PlaybackResult{
		SessionID:  p.final.SessionID,
		FinalStage: p.final.Stage,
		FinalNode:  p.final.NodeID,
		Path:       p.path,
		Events:     p.events,
	})
}

func (p *playback) onEvent(e player.Event) {
	p.events = append(p.events, e)
	if p.stream != nil {
		fmt.Fprintf(p.stream, "%4d  %s\n", e.Seq, e)
	}

	switch e.Type {
	case player.EventShotEnter:
		if len(p.path) == 0 || p.path[len(p.path)-1] != e.NodeID {
			p.path = append(p.path, e.NodeID)
		}
	case player.EventAudioStart:
		p.loop.Schedule(p.audio, p.ctrl.NotifyShotAudioComplete)
	case player.EventBranch:
		target := p.pick(e.Choices)
		p.loop.Post(func() {
			if err := p.ctrl.ChooseBranch(target); err != nil {
				p.err = err
				p.loop.Close()
			}
		})
	case player.EventStageChange:
		if e.Stage == player.StageTerminal || e.Stage == player.StageIncomplete {
			p.final = p.ctrl.State()
			p.ended = true
			p.loop.Close()
		}
	}
}

// pick takes the next requested choice, matching a target id or a label,
// or the first offered choice when none are left.
func (p *playback) pick(offered []story.Choice) string {
	if len(p.choices) == 0 {
		if len(offered) == 0 {
			return ""
		}
		return offered[0].Target
	}
	want := p.choices[0]
	p.choices = p.choices[1:]
	for _, c := range offered {
		if c.Target == want || strings.EqualFold(c.Label, want) {
			return c.Target
		}
	}
	return want
}
