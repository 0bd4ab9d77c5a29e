package bundle

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/storyreel/internal/story"
)

//go:embed audio_design.cue
var audioDesignSchema string

// envelopeKey optionally wraps the audio-design document.
const envelopeKey = "audio_design_document"

// CueEntry is one music cue as declared in the audio-design document.
type CueEntry struct {
	Name        string   `json:"cue_name"`
	SceneletIDs []string `json:"associated_scenelet_ids"`
}

type audioDesign struct {
	Cues []CueEntry `json:"music_and_ambience_cues"`
}

// ParseAudioDesign extracts cue entries from an audio-design JSON document.
//
// The document may be wrapped under "audio_design_document". It is unified
// with the embedded #AudioDesign CUE schema before decoding, so type errors
// (e.g. a non-string scenelet id) are reported as ErrAudioDesignInvalid.
// Empty input yields no cues.
func ParseAudioDesign(data []byte) ([]CueEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(audioDesignSchema, cue.Filename("audio_design.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile audio design schema: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename("audio_design.json"))
	if err := doc.Err(); err != nil {
		return nil, &IntegrityError{Code: ErrAudioDesignInvalid, Message: "audio design is not valid JSON", Err: err}
	}
	if env := doc.LookupPath(cue.ParsePath(envelopeKey)); env.Exists() {
		doc = env
	}

	v := schema.LookupPath(cue.ParsePath("#AudioDesign")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &IntegrityError{Code: ErrAudioDesignInvalid, Message: "audio design does not match schema", Err: err}
	}

	var out audioDesign
	if err := v.Decode(&out); err != nil {
		return nil, &IntegrityError{Code: ErrAudioDesignInvalid, Message: "decode audio design", Err: err}
	}
	return out.Cues, nil
}

// buildMusicManifest assigns bundle nodes to cues.
//
// References are resolved through the alias table and filtered to nodes in
// the bundle. A node belongs to at most one cue: the first cue (in document
// order) to claim it keeps it, and later claims are dropped with a warning.
// Cues sharing a name are merged. Cues with a blank name or no surviving
// nodes are dropped.
func buildMusicManifest(entries []CueEntry, aliases aliasTable, inBundle map[string]bool, logger *slog.Logger) story.MusicManifest {
	m := story.MusicManifest{
		Cues:           []story.MusicCue{},
		SceneletCueMap: make(map[string]string),
	}
	position := make(map[string]int)

	for i, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			logger.Warn("dropping music cue without a name", "cue_index", i)
			continue
		}

		var nodes []string
		for _, ref := range entry.SceneletIDs {
			id := aliases.resolve(ref)
			if !inBundle[id] {
				logger.Debug("music cue references scenelet outside bundle", "cue", name, "ref", ref)
				continue
			}
			if owner, claimed := m.SceneletCueMap[id]; claimed {
				if owner != name {
					logger.Warn("scenelet already claimed by earlier music cue",
						"cue", name,
						"scenelet", id,
						"claimed_by", owner,
					)
				}
				continue
			}
			m.SceneletCueMap[id] = name
			nodes = append(nodes, id)
		}

		if len(nodes) == 0 {
			if _, exists := position[name]; !exists {
				logger.Warn("dropping music cue with no playable scenelets", "cue", name)
			}
			continue
		}

		if at, exists := position[name]; exists {
			m.Cues[at].NodeIDs = append(m.Cues[at].NodeIDs, nodes...)
			continue
		}
		position[name] = len(m.Cues)
		m.Cues = append(m.Cues, story.MusicCue{
			Name:      name,
			NodeIDs:   nodes,
			AudioPath: MusicPath(name),
		})
	}

	return m
}
