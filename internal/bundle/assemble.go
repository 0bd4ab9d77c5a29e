package bundle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/roach88/storyreel/internal/story"
)

// Source is the read side of story persistence.
type Source interface {
	// GetStory returns story metadata, or an error wrapping story.ErrNotFound.
	GetStory(ctx context.Context, storyID string) (story.Metadata, error)
	ListScenelets(ctx context.Context, storyID string) ([]story.SceneletRecord, error)
	ListShots(ctx context.Context, storyID string) ([]story.ShotRecord, error)
	// GetAudioDesign returns the raw audio-design document, or nil if none.
	GetAudioDesign(ctx context.Context, storyID string) ([]byte, error)
}

// Input is everything Build needs, as plain data.
type Input struct {
	Story     story.Metadata
	Scenelets []story.SceneletRecord
	Shots     []story.ShotRecord

	// Manifest, when non-nil, is used instead of deriving one from Shots.
	Manifest story.AssetManifest

	// AudioDesign is the raw audio-design document (may be nil).
	AudioDesign []byte

	// Aliases adds alias → scenelet id entries on top of those carried by Shots.
	Aliases map[string]string
}

// Result is the outcome of a successful assembly.
type Result struct {
	Bundle *story.Bundle

	// Manifest is the asset manifest trimmed to the bundle's nodes.
	Manifest story.AssetManifest

	// Excluded lists assetful scenelets left out because they are unreachable.
	Excluded []string
}

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures assembly.
type Option func(*options)

// WithLogger sets the logger used for policy-level omissions.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock sets the export timestamp source. Used by tests for stable output.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Assembler loads a story from a Source and builds its bundle.
type Assembler struct {
	src  Source
	opts []Option
}

// NewAssembler creates an Assembler reading from src.
func NewAssembler(src Source, opts ...Option) *Assembler {
	return &Assembler{src: src, opts: opts}
}

// Assemble loads storyID and builds its bundle.
func (a *Assembler) Assemble(ctx context.Context, storyID string) (*Result, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, integrityError(ErrEmptyStoryID, "", "story id is required")
	}

	meta, err := a.src.GetStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, story.ErrNotFound) {
			return nil, &IntegrityError{Code: ErrStoryNotFound, Message: fmt.Sprintf("story %q not found", storyID), Err: err}
		}
		return nil, fmt.Errorf("load story %s: %w", storyID, err)
	}

	scenelets, err := a.src.ListScenelets(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("load scenelets for %s: %w", storyID, err)
	}

	shots, err := a.src.ListShots(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("load shots for %s: %w", storyID, err)
	}

	design, err := a.src.GetAudioDesign(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("load audio design for %s: %w", storyID, err)
	}

	return Build(Input{
		Story:       meta,
		Scenelets:   scenelets,
		Shots:       shots,
		AudioDesign: design,
	}, a.opts...)
}

// Build assembles a bundle from plain data. It performs no I/O.
func Build(in Input, opts ...Option) (*Result, error) {
	o := buildOptions(opts)

	if strings.TrimSpace(in.Story.ID) == "" {
		return nil, integrityError(ErrEmptyStoryID, "", "story id is required")
	}

	idx, err := buildIndex(in.Scenelets)
	if err != nil {
		return nil, err
	}

	var manifest story.AssetManifest
	if in.Manifest != nil {
		manifest = playableManifest(in.Manifest)
	} else {
		manifest = BuildManifest(in.Shots)
	}
	if !manifest.Has(idx.rootID) {
		return nil, integrityError(ErrRootUnplayable, idx.rootID, "root scenelet has no playable shots")
	}

	order := idx.reachable(manifest)
	inBundle := make(map[string]bool, len(order))
	for _, id := range order {
		inBundle[id] = true
	}

	nodes := make([]story.Node, 0, len(order))
	for _, id := range order {
		r := idx.byID[id]
		next, err := nextTransition(r, idx.children[id], idx.playableChildren(id, manifest), idx.byID)
		if err != nil {
			return nil, err
		}
		node := story.Node{
			ID:          id,
			Description: story.NormalizeText(r.Content.Description),
			Shots:       shotNodes(id, manifest),
			Next:        next,
		}
		if _, isBranch := next.(story.BranchTransition); isBranch && story.HasRealAudio(r.BranchAudioPath) {
			node.BranchAudioPath = BranchAudioPath(id, r.BranchAudioPath)
		}
		nodes = append(nodes, node)
	}

	excluded := excludedIDs(manifest, inBundle)
	for _, id := range excluded {
		o.logger.Debug("excluding unreachable scenelet", "story", in.Story.ID, "scenelet", id)
	}

	cues, err := ParseAudioDesign(in.AudioDesign)
	if err != nil {
		return nil, err
	}
	music := buildMusicManifest(cues, buildAliases(in.Shots, in.Aliases), inBundle, o.logger)

	b := &story.Bundle{
		Metadata: story.BundleMetadata{
			StoryID:    in.Story.ID,
			Title:      in.Story.Title,
			ExportedAt: o.now(),
		},
		RootID: idx.rootID,
		Nodes:  nodes,
		Music:  music,
	}
	fp, err := story.Fingerprint(b)
	if err != nil {
		return nil, err
	}
	b.Metadata.Fingerprint = fp

	o.logger.Info("bundle assembled",
		"story", in.Story.ID,
		"nodes", len(nodes),
		"excluded", len(excluded),
		"cues", len(music.Cues),
	)

	return &Result{
		Bundle:   b,
		Manifest: manifest.Restrict(order),
		Excluded: excluded,
	}, nil
}

// shotNodes lists a node's shots by ascending index with bundle-relative paths.
func shotNodes(id string, m story.AssetManifest) []story.ShotNode {
	indexes := m.ShotIndexes(id)
	out := make([]story.ShotNode, 0, len(indexes))
	for _, i := range indexes {
		ref := m[id][i]
		shot := story.ShotNode{ShotIndex: i}
		if ref.ImagePath != "" {
			shot.ImagePath = ShotImagePath(id, i, ref.ImagePath)
		}
		if story.HasRealAudio(ref.AudioPath) {
			shot.AudioPath = ShotAudioPath(id, i, ref.AudioPath)
		}
		if shot.ImagePath == "" && shot.AudioPath == "" {
			continue
		}
		out = append(out, shot)
	}
	return out
}

func excludedIDs(m story.AssetManifest, inBundle map[string]bool) []string {
	var out []string
	for id := range m {
		if !inBundle[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
