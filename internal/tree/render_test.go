package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/storyreel/internal/story"
)

func TestRender_RoundTripsEntries(t *testing.T) {
	root := branch(rec("r", "", 0), "Stay or go?")
	root.Content.Dialogue = []story.DialogueLine{{Character: "Mara", Line: "First line\nsecond line"}}
	d, err := Assemble([]story.SceneletRecord{
		root,
		labeled(rec("stay", "r", 1), "Stay"),
		labeled(rec("go", "r", 2), "Go"),
	})
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(d.Rendered), &parsed))
	require.Len(t, parsed, 4)

	assert.Equal(t, "scenelet", parsed[0]["kind"])
	assert.Equal(t, "scenelet-1", parsed[0]["id"])
	assert.Nil(t, parsed[0]["parent_id"])
	assert.Equal(t, "root", parsed[0]["role"])

	dialogue := parsed[0]["dialogue"].([]any)
	require.Len(t, dialogue, 1)
	assert.Equal(t, "First line\nsecond line", dialogue[0].(map[string]any)["line"])

	assert.Equal(t, "branching-point", parsed[1]["kind"])
	assert.Equal(t, "Stay or go?", parsed[1]["prompt"])
	choices := parsed[1]["choices"].([]any)
	assert.Equal(t, "Go", choices[0].(map[string]any)["label"])
	assert.Equal(t, "scenelet-2", choices[0].(map[string]any)["target"])
}

func TestRender_MultilineUsesBlockScalar(t *testing.T) {
	out, err := Render([]story.DigestEntry{story.SceneletDigest{
		ID:              "scenelet-1",
		Role:            story.RoleRoot,
		Description:     "one line",
		ShotSuggestions: []string{"close up\non hands"},
	}})
	require.NoError(t, err)
	assert.Contains(t, out, "|-")
	assert.Contains(t, out, "id: scenelet-1")
	assert.Contains(t, out, "parent_id: null")
}

func TestRender_QuotesAmbiguousScalars(t *testing.T) {
	out, err := Render([]story.DigestEntry{story.SceneletDigest{
		ID:          "scenelet-1",
		Role:        story.RoleRoot,
		Description: "true",
	}})
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "true", parsed[0]["description"], "strings stay strings")
}
