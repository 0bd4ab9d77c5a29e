package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/storyreel/internal/story"
)

// Digest is the canonical, validated view of a story tree.
type Digest struct {
	// Entries in pre-order, newest-sibling-first.
	Entries []story.DigestEntry

	// AssignedIDs maps record id → assigned "scenelet-N" id.
	AssignedIDs map[string]string

	// Rendered is the YAML rendering of Entries.
	Rendered string
}

// SceneletCount returns the number of scenelet digest entries.
func (d *Digest) SceneletCount() int {
	n := 0
	for _, e := range d.Entries {
		if _, ok := e.(story.SceneletDigest); ok {
			n++
		}
	}
	return n
}

// graph is the arena view of the records: a flat id-indexed table plus
// children lists in traversal order.
type graph struct {
	byID     map[string]story.SceneletRecord
	children map[string][]string
	rootID   string
	order    []string // input order, for stable error reporting
}

// Assemble validates records and builds the tree digest.
//
// The algorithm:
//  1. Index records by id (reject missing and duplicate ids)
//  2. Partition into the root and children-by-parent (reject 0 or >1 roots, dangling parents)
//  3. Sort siblings by descending creation time, then ascending id
//  4. Depth-first assign scenelet-N ids, failing on a revisited in-progress node
//  5. Reject records never visited (cycles first, then orphans)
//  6. Emit digest entries, validating branch points along the way
//  7. Render the entries as YAML
func Assemble(records []story.SceneletRecord) (*Digest, error) {
	g, err := buildGraph(records)
	if err != nil {
		return nil, err
	}

	assigned, err := assignIDs(g)
	if err != nil {
		return nil, err
	}

	entries, err := emitEntries(g, assigned)
	if err != nil {
		return nil, err
	}

	rendered, err := Render(entries)
	if err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}

	return &Digest{
		Entries:     entries,
		AssignedIDs: assigned,
		Rendered:    rendered,
	}, nil
}

func buildGraph(records []story.SceneletRecord) (*graph, error) {
	g := &graph{
		byID:     make(map[string]story.SceneletRecord, len(records)),
		children: make(map[string][]string),
	}

	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return nil, newError(ErrMissingID, fmt.Sprintf("record at position %d has no id", i))
		}
		if _, dup := g.byID[r.ID]; dup {
			return nil, newError(ErrDuplicateID, "duplicate scenelet id", r.ID)
		}
		g.byID[r.ID] = r
		g.order = append(g.order, r.ID)
	}

	var roots, dangling []string
	for _, id := range g.order {
		r := g.byID[id]
		if r.IsRoot() {
			roots = append(roots, id)
			continue
		}
		if _, ok := g.byID[r.ParentID]; !ok {
			dangling = append(dangling, id)
			continue
		}
		g.children[r.ParentID] = append(g.children[r.ParentID], id)
	}

	switch {
	case len(roots) == 0:
		return nil, newError(ErrNoRoot, "no root scenelet (every record has a parent)")
	case len(roots) > 1:
		return nil, newError(ErrMultipleRoots, "multiple root scenelets", roots...)
	}
	if len(dangling) > 0 {
		return nil, newError(ErrDanglingParent, "parent id not found", dangling...)
	}
	g.rootID = roots[0]

	for parent, kids := range g.children {
		sortSiblings(kids, g.byID)
		g.children[parent] = kids
	}

	return g, nil
}

// sortSiblings orders newest-created first, ties broken by ascending id.
func sortSiblings(ids []string, byID map[string]story.SceneletRecord) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := byID[ids[i]], byID[ids[j]]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// assignIDs walks the tree depth-first from the root and numbers scenelets in
// visit order. A node revisited while still in progress is a cycle.
func assignIDs(g *graph) (map[string]string, error) {
	assigned := make(map[string]string, len(g.byID))
	inProgress := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if inProgress[id] {
			return newError(ErrCycle, "scenelet is its own ancestor", id)
		}
		if _, done := assigned[id]; done {
			return nil
		}
		inProgress[id] = true
		assigned[id] = fmt.Sprintf("scenelet-%d", len(assigned)+1)
		for _, child := range g.children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		delete(inProgress, id)
		return nil
	}

	if err := visit(g.rootID); err != nil {
		return nil, err
	}

	if len(assigned) == len(g.byID) {
		return assigned, nil
	}

	var unvisited []string
	for _, id := range g.order {
		if _, ok := assigned[id]; !ok {
			unvisited = append(unvisited, id)
		}
	}

	// With one parent per record, anything unreachable from the root either
	// sits on a parent cycle or descends from one.
	if cycle := findParentCycle(g, unvisited); len(cycle) > 0 {
		return nil, newError(ErrCycle, "scenelets form a cycle", cycle...)
	}
	return nil, newError(ErrOrphan, "scenelets unreachable from root", unvisited...)
}

// findParentCycle follows parent pointers from each candidate and returns the
// first cycle found, in walk order.
func findParentCycle(g *graph, candidates []string) []string {
	for _, start := range candidates {
		pos := make(map[string]int)
		var path []string
		for id := start; id != ""; id = g.byID[id].ParentID {
			if at, seen := pos[id]; seen {
				return path[at:]
			}
			pos[id] = len(path)
			path = append(path, id)
		}
	}
	return nil
}

func emitEntries(g *graph, assigned map[string]string) ([]story.DigestEntry, error) {
	var entries []story.DigestEntry
	branchSeq := 0

	var walk func(id string) error
	walk = func(id string) error {
		r := g.byID[id]
		parentAssigned := ""
		if !r.IsRoot() {
			parentAssigned = assigned[r.ParentID]
		}

		entries = append(entries, story.SceneletDigest{
			ID:              assigned[id],
			ParentID:        parentAssigned,
			Role:            roleOf(r, g),
			ChoiceLabel:     strings.TrimSpace(r.ChoiceLabel),
			Description:     story.NormalizeText(r.Content.Description),
			Dialogue:        dialogueOf(r.Content.Dialogue),
			ShotSuggestions: suggestionsOf(r.Content.ShotSuggestions),
		})

		kids := g.children[id]
		if r.IsBranchPoint {
			bp, err := branchingPoint(r, kids, g, assigned, branchSeq+1)
			if err != nil {
				return err
			}
			branchSeq++
			entries = append(entries, bp)
		}

		for _, child := range kids {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(g.rootID); err != nil {
		return nil, err
	}
	return entries, nil
}

func branchingPoint(r story.SceneletRecord, kids []string, g *graph, assigned map[string]string, seq int) (story.BranchingPointDigest, error) {
	prompt := strings.TrimSpace(r.ChoicePrompt)
	if prompt == "" {
		return story.BranchingPointDigest{}, newError(ErrBranchPromptEmpty, "branch point has no choice prompt", r.ID)
	}
	if len(kids) == 0 {
		return story.BranchingPointDigest{}, newError(ErrBranchNoChildren, "branch point has no children", r.ID)
	}

	choices := make([]story.BranchChoice, 0, len(kids))
	for _, child := range kids {
		label := strings.TrimSpace(g.byID[child].ChoiceLabel)
		if label == "" {
			return story.BranchingPointDigest{}, newError(ErrChoiceLabelMissing, "child of branch point has no choice label", child)
		}
		choices = append(choices, story.BranchChoice{Label: label, Target: assigned[child]})
	}

	return story.BranchingPointDigest{
		ID:         fmt.Sprintf("branching-point-%d", seq),
		SceneletID: assigned[r.ID],
		Prompt:     prompt,
		Choices:    choices,
	}, nil
}

// roleOf tags a scenelet: root wins, then the node's own terminal flag, then
// branch (the node branches or its parent does), otherwise linear.
func roleOf(r story.SceneletRecord, g *graph) story.Role {
	switch {
	case r.IsRoot():
		return story.RoleRoot
	case r.IsTerminal:
		return story.RoleTerminal
	case r.IsBranchPoint, g.byID[r.ParentID].IsBranchPoint:
		return story.RoleBranch
	default:
		return story.RoleLinear
	}
}

func dialogueOf(lines []story.DialogueLine) []story.DialogueLine {
	out := make([]story.DialogueLine, 0, len(lines))
	for _, l := range lines {
		line := strings.TrimSpace(l.Line)
		if line == "" {
			continue
		}
		out = append(out, story.DialogueLine{Character: strings.TrimSpace(l.Character), Line: line})
	}
	return out
}

func suggestionsOf(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
