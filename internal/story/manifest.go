package story

import "sort"

// AssetRef points at the source media of one shot. Empty paths mean "absent".
type AssetRef struct {
	ImagePath string `json:"image_path,omitempty"`
	AudioPath string `json:"audio_path,omitempty"`
}

// AssetManifest maps scenelet id → shot index → source media.
//
// A scenelet appears in the manifest only if at least one of its shots has an
// image or real audio.
type AssetManifest map[string]map[int]AssetRef

// Has reports whether the scenelet has any playable shot.
func (m AssetManifest) Has(sceneletID string) bool {
	return len(m[sceneletID]) > 0
}

// ShotIndexes returns the scenelet's shot indexes in ascending order.
func (m AssetManifest) ShotIndexes(sceneletID string) []int {
	shots := m[sceneletID]
	out := make([]int, 0, len(shots))
	for idx := range shots {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Restrict returns a copy containing only the given scenelet ids.
func (m AssetManifest) Restrict(ids []string) AssetManifest {
	out := make(AssetManifest, len(ids))
	for _, id := range ids {
		shots, ok := m[id]
		if !ok {
			continue
		}
		cp := make(map[int]AssetRef, len(shots))
		for idx, ref := range shots {
			cp[idx] = ref
		}
		out[id] = cp
	}
	return out
}
