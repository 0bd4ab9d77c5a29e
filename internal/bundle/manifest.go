package bundle

import (
	"strings"

	"github.com/roach88/storyreel/internal/story"
)

// BuildManifest groups shot records into an asset manifest.
//
// A shot counts when it has an image or real audio (the skipped-audio
// sentinel is not real). Scenelets left with no counting shot are omitted.
// When two records share a scenelet and shot index, the later one wins.
func BuildManifest(shots []story.ShotRecord) story.AssetManifest {
	m := make(story.AssetManifest)
	for _, s := range shots {
		addRef(m, s.SceneletID, s.ShotIndex, story.AssetRef{ImagePath: s.ImagePath, AudioPath: s.AudioPath})
	}
	return m
}

// playableManifest copies a caller-supplied manifest through the same
// filter BuildManifest applies.
func playableManifest(in story.AssetManifest) story.AssetManifest {
	m := make(story.AssetManifest, len(in))
	for id, shots := range in {
		for i, ref := range shots {
			addRef(m, id, i, ref)
		}
	}
	return m
}

func addRef(m story.AssetManifest, sceneletID string, shotIndex int, ref story.AssetRef) {
	ref = story.AssetRef{
		ImagePath: strings.TrimSpace(ref.ImagePath),
		AudioPath: story.RealAudio(ref.AudioPath),
	}
	if ref.ImagePath == "" && ref.AudioPath == "" {
		return
	}
	if m[sceneletID] == nil {
		m[sceneletID] = make(map[int]story.AssetRef)
	}
	m[sceneletID][shotIndex] = ref
}

// aliasTable maps pipeline aliases to scenelet ids.
type aliasTable map[string]string

// buildAliases collects alias → id pairs from shot records, then overlays
// explicit entries.
func buildAliases(shots []story.ShotRecord, explicit map[string]string) aliasTable {
	t := make(aliasTable)
	for _, s := range shots {
		alias := strings.TrimSpace(s.SceneletAlias)
		if alias == "" || alias == s.SceneletID {
			continue
		}
		t[alias] = s.SceneletID
	}
	for alias, id := range explicit {
		t[alias] = id
	}
	return t
}

// resolve returns the scenelet id for ref; unknown refs are taken as ids.
func (t aliasTable) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if id, ok := t[ref]; ok {
		return id
	}
	return ref
}
