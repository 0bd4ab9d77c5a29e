package bundle

import "github.com/roach88/storyreel/internal/story"

// index is the arena view of a story's scenelet records.
type index struct {
	byID     map[string]story.SceneletRecord
	children map[string][]string // declared children in input order
	rootID   string
}

func buildIndex(records []story.SceneletRecord) (*index, error) {
	if len(records) == 0 {
		return nil, integrityError(ErrNoScenelets, "", "story has no scenelets")
	}

	idx := &index{
		byID:     make(map[string]story.SceneletRecord, len(records)),
		children: make(map[string][]string),
	}
	var roots []string
	for _, r := range records {
		if _, dup := idx.byID[r.ID]; dup {
			return nil, integrityError(ErrDuplicateScenelet, r.ID, "duplicate scenelet id")
		}
		idx.byID[r.ID] = r
		if r.IsRoot() {
			roots = append(roots, r.ID)
		}
	}
	for _, r := range records {
		if !r.IsRoot() {
			idx.children[r.ParentID] = append(idx.children[r.ParentID], r.ID)
		}
	}

	switch len(roots) {
	case 0:
		return nil, integrityError(ErrNoRoot, "", "story has no root scenelet")
	case 1:
		idx.rootID = roots[0]
	default:
		return nil, integrityError(ErrMultipleRoots, roots[1], "story has %d root scenelets", len(roots))
	}
	return idx, nil
}

// playableChildren returns the declared children present in the manifest,
// preserving declared order.
func (idx *index) playableChildren(id string, m story.AssetManifest) []string {
	var out []string
	for _, child := range idx.children[id] {
		if m.Has(child) {
			out = append(out, child)
		}
	}
	return out
}

// reachable walks breadth-first from the root through playable children only.
// The returned order is the bundle's node order.
func (idx *index) reachable(m story.AssetManifest) []string {
	order := []string{idx.rootID}
	seen := map[string]bool{idx.rootID: true}
	for i := 0; i < len(order); i++ {
		for _, child := range idx.playableChildren(order[i], m) {
			if seen[child] {
				continue
			}
			seen[child] = true
			order = append(order, child)
		}
	}
	return order
}
