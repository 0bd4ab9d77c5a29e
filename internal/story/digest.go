package story

// Role classifies a scenelet's position in the tree digest.
type Role string

const (
	RoleRoot     Role = "root"
	RoleBranch   Role = "branch"
	RoleTerminal Role = "terminal"
	RoleLinear   Role = "linear"
)

// DigestEntry is one entry of a tree digest: either a SceneletDigest or a
// BranchingPointDigest.
type DigestEntry interface {
	// EntryID returns the assigned identifier ("scenelet-N" or "branching-point-N").
	EntryID() string
	isDigestEntry()
}

// SceneletDigest summarizes one scenelet under its assigned id.
type SceneletDigest struct {
	ID              string         `json:"id"`
	ParentID        string         `json:"parent_id,omitempty"`
	Role            Role           `json:"role"`
	ChoiceLabel     string         `json:"choice_label,omitempty"`
	Description     string         `json:"description"`
	Dialogue        []DialogueLine `json:"dialogue"`
	ShotSuggestions []string       `json:"shot_suggestions"`
}

// BranchingPointDigest lists the choices offered by a branch-point scenelet.
type BranchingPointDigest struct {
	ID         string         `json:"id"`
	SceneletID string         `json:"scenelet_id"`
	Prompt     string         `json:"prompt"`
	Choices    []BranchChoice `json:"choices"`
}

// BranchChoice is one labeled continuation of a branching point.
type BranchChoice struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

func (d SceneletDigest) EntryID() string       { return d.ID }
func (d BranchingPointDigest) EntryID() string { return d.ID }

func (SceneletDigest) isDigestEntry()       {}
func (BranchingPointDigest) isDigestEntry() {}
