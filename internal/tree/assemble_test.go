package tree

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storyreel/internal/story"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// rec creates a record created `minute` minutes after base.
func rec(id, parent string, minute int) story.SceneletRecord {
	return story.SceneletRecord{
		ID:        id,
		ParentID:  parent,
		Content:   story.SceneletContent{Description: "Scene " + id},
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func branch(r story.SceneletRecord, prompt string) story.SceneletRecord {
	r.IsBranchPoint = true
	r.ChoicePrompt = prompt
	return r
}

func labeled(r story.SceneletRecord, label string) story.SceneletRecord {
	r.ChoiceLabel = label
	return r
}

func terminal(r story.SceneletRecord) story.SceneletRecord {
	r.IsTerminal = true
	return r
}

func scenelets(d *Digest) []story.SceneletDigest {
	var out []story.SceneletDigest
	for _, e := range d.Entries {
		if s, ok := e.(story.SceneletDigest); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestAssemble_LinearChain(t *testing.T) {
	d, err := Assemble([]story.SceneletRecord{
		rec("c", "b", 2),
		rec("a", "", 0),
		terminal(rec("b", "a", 1)),
	})
	require.NoError(t, err)

	got := scenelets(d)
	require.Len(t, got, 3)
	assert.Equal(t, "scenelet-1", got[0].ID)
	assert.Equal(t, "", got[0].ParentID)
	assert.Equal(t, story.RoleRoot, got[0].Role)
	assert.Equal(t, "scenelet-2", got[1].ID)
	assert.Equal(t, "scenelet-1", got[1].ParentID)
	assert.Equal(t, story.RoleTerminal, got[1].Role)
	assert.Equal(t, story.RoleLinear, got[2].Role)

	assert.Equal(t, map[string]string{"a": "scenelet-1", "b": "scenelet-2", "c": "scenelet-3"}, d.AssignedIDs)
	assert.Equal(t, 3, d.SceneletCount())
}

func TestAssemble_RootMarkedTerminalKeepsRootRole(t *testing.T) {
	d, err := Assemble([]story.SceneletRecord{
		terminal(rec("a", "", 0)),
		rec("b", "a", 1),
		terminal(rec("c", "b", 2)),
	})
	require.NoError(t, err)

	got := scenelets(d)
	assert.Equal(t, story.RoleRoot, got[0].Role)
	assert.Equal(t, story.RoleLinear, got[1].Role)
	assert.Equal(t, story.RoleTerminal, got[2].Role)
}

func TestAssemble_SiblingsNewestFirstThenID(t *testing.T) {
	d, err := Assemble([]story.SceneletRecord{
		branch(rec("root", "", 0), "Pick one"),
		labeled(rec("old", "root", 1), "Old"),
		labeled(rec("new-b", "root", 5), "B"),
		labeled(rec("new-a", "root", 5), "A"),
	})
	require.NoError(t, err)

	assert.Equal(t, "scenelet-2", d.AssignedIDs["new-a"])
	assert.Equal(t, "scenelet-3", d.AssignedIDs["new-b"])
	assert.Equal(t, "scenelet-4", d.AssignedIDs["old"])
}

func TestAssemble_BranchingPointDigest(t *testing.T) {
	d, err := Assemble([]story.SceneletRecord{
		branch(rec("root", "", 0), "  Which door?  "),
		labeled(rec("left", "root", 2), "Left"),
		labeled(terminal(rec("right", "root", 1)), "Right"),
		rec("after-left", "left", 3),
	})
	require.NoError(t, err)
	require.Len(t, d.Entries, 5)

	// Pre-order: root, its branching point, then children newest-first.
	assert.Equal(t, "scenelet-1", d.Entries[0].EntryID())
	bp, ok := d.Entries[1].(story.BranchingPointDigest)
	require.True(t, ok)
	assert.Equal(t, "branching-point-1", bp.ID)
	assert.Equal(t, "scenelet-1", bp.SceneletID)
	assert.Equal(t, "Which door?", bp.Prompt)
	assert.Equal(t, []story.BranchChoice{
		{Label: "Left", Target: "scenelet-2"},
		{Label: "Right", Target: "scenelet-4"},
	}, bp.Choices)

	left := d.Entries[2].(story.SceneletDigest)
	assert.Equal(t, story.RoleBranch, left.Role)
	assert.Equal(t, "Left", left.ChoiceLabel)

	afterLeft := d.Entries[3].(story.SceneletDigest)
	assert.Equal(t, story.RoleLinear, afterLeft.Role, "branch role is not inherited by grandchildren")

	right := d.Entries[4].(story.SceneletDigest)
	assert.Equal(t, story.RoleTerminal, right.Role, "terminal wins over inherited branch role")
}

func TestAssemble_NestedBranchPointsNumberedInOrder(t *testing.T) {
	d, err := Assemble([]story.SceneletRecord{
		branch(rec("r", "", 0), "First?"),
		labeled(branch(rec("x", "r", 2), "Second?"), "X"),
		labeled(rec("y", "r", 1), "Y"),
		labeled(rec("x1", "x", 3), "X1"),
		labeled(rec("x2", "x", 4), "X2"),
	})
	require.NoError(t, err)

	var ids []string
	for _, e := range d.Entries {
		ids = append(ids, e.EntryID())
	}
	assert.Equal(t, []string{
		"scenelet-1", "branching-point-1",
		"scenelet-2", "branching-point-2",
		"scenelet-3", "scenelet-4",
		"scenelet-5",
	}, ids)
}

func TestAssemble_Failures(t *testing.T) {
	tests := []struct {
		name    string
		records []story.SceneletRecord
		code    string
		ids     []string
	}{
		{
			name:    "missing id",
			records: []story.SceneletRecord{rec("a", "", 0), rec(" ", "a", 1)},
			code:    ErrMissingID,
		},
		{
			name:    "duplicate id",
			records: []story.SceneletRecord{rec("a", "", 0), rec("a", "", 1)},
			code:    ErrDuplicateID,
			ids:     []string{"a"},
		},
		{
			name:    "empty set",
			records: nil,
			code:    ErrNoRoot,
		},
		{
			name:    "no root",
			records: []story.SceneletRecord{rec("a", "b", 0), rec("b", "a", 1)},
			code:    ErrNoRoot,
		},
		{
			name:    "multiple roots",
			records: []story.SceneletRecord{rec("a", "", 0), rec("b", "", 1)},
			code:    ErrMultipleRoots,
			ids:     []string{"a", "b"},
		},
		{
			name:    "dangling parent",
			records: []story.SceneletRecord{rec("a", "", 0), rec("b", "ghost", 1)},
			code:    ErrDanglingParent,
			ids:     []string{"b"},
		},
		{
			name:    "cycle off the root",
			records: []story.SceneletRecord{rec("r", "", 0), rec("a", "b", 1), rec("b", "a", 2), rec("c", "a", 3)},
			code:    ErrCycle,
			ids:     []string{"a", "b"},
		},
		{
			name:    "self parent",
			records: []story.SceneletRecord{rec("r", "", 0), rec("s", "s", 1)},
			code:    ErrCycle,
			ids:     []string{"s"},
		},
		{
			name:    "branch prompt missing",
			records: []story.SceneletRecord{branch(rec("r", "", 0), " "), labeled(rec("a", "r", 1), "A")},
			code:    ErrBranchPromptEmpty,
			ids:     []string{"r"},
		},
		{
			name:    "branch without children",
			records: []story.SceneletRecord{rec("r", "", 0), branch(rec("a", "r", 1), "Go?")},
			code:    ErrBranchNoChildren,
			ids:     []string{"a"},
		},
		{
			name: "choice label missing",
			records: []story.SceneletRecord{
				branch(rec("r", "", 0), "Go?"),
				labeled(rec("a", "r", 1), "A"),
				rec("b", "r", 2),
			},
			code: ErrChoiceLabelMissing,
			ids:  []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Assemble(tt.records)
			require.Error(t, err)
			assert.Nil(t, d, "no partial digest on failure")
			assert.True(t, HasCode(err, tt.code), "want %s, got %v", tt.code, err)

			var ae *AssemblyError
			require.ErrorAs(t, err, &ae)
			if tt.ids != nil {
				assert.Equal(t, tt.ids, ae.IDs)
			}
		})
	}
}

func TestAssemble_NormalizesContent(t *testing.T) {
	r := rec("a", "", 0)
	r.Content = story.SceneletContent{
		Description:     "  Rain\n falls   softly ",
		Dialogue:        []story.DialogueLine{{Character: " Ana ", Line: " Hello "}, {Character: "Ben", Line: "  "}},
		ShotSuggestions: []string{" wide shot ", ""},
	}

	d, err := Assemble([]story.SceneletRecord{r})
	require.NoError(t, err)

	s := scenelets(d)[0]
	assert.Equal(t, "Rain falls softly", s.Description)
	assert.Equal(t, []story.DialogueLine{{Character: "Ana", Line: "Hello"}}, s.Dialogue)
	assert.Equal(t, []string{"wide shot"}, s.ShotSuggestions)
}

// TestAssemble_RandomTreesProduceOneEntryPerRecord builds random valid trees
// and checks every record receives exactly one scenelet entry and one id.
func TestAssemble_RandomTreesProduceOneEntryPerRecord(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		records := []story.SceneletRecord{rec("n0", "", 0)}
		for i := 1; i < n; i++ {
			parent := fmt.Sprintf("n%d", rng.Intn(i))
			records = append(records, rec(fmt.Sprintf("n%d", i), parent, rng.Intn(5)))
		}
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

		d, err := Assemble(records)
		require.NoError(t, err, "trial %d", trial)
		assert.Equal(t, n, d.SceneletCount())
		assert.Len(t, d.AssignedIDs, n)

		seen := make(map[string]bool)
		for _, id := range d.AssignedIDs {
			assert.False(t, seen[id], "id %s assigned twice", id)
			seen[id] = true
		}
	}
}
