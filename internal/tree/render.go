package tree

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storyreel/internal/story"
)

// Render serializes digest entries as a YAML sequence, one mapping per entry.
// Multi-line strings are emitted as literal block scalars.
func Render(entries []story.DigestEntry) (string, error) {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range entries {
		switch entry := e.(type) {
		case story.SceneletDigest:
			doc.Content = append(doc.Content, sceneletNode(entry))
		case story.BranchingPointDigest:
			doc.Content = append(doc.Content, branchingPointNode(entry))
		default:
			return "", fmt.Errorf("unsupported digest entry %T", e)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sceneletNode(d story.SceneletDigest) *yaml.Node {
	m := mapping()
	put(m, "kind", scalar("scenelet"))
	put(m, "id", scalar(d.ID))
	if d.ParentID == "" {
		put(m, "parent_id", null())
	} else {
		put(m, "parent_id", scalar(d.ParentID))
	}
	put(m, "role", scalar(string(d.Role)))
	if d.ChoiceLabel != "" {
		put(m, "choice_label", scalar(d.ChoiceLabel))
	}
	put(m, "description", scalar(d.Description))

	dialogue := &yaml.Node{Kind: yaml.SequenceNode}
	for _, l := range d.Dialogue {
		line := mapping()
		put(line, "character", scalar(l.Character))
		put(line, "line", scalar(l.Line))
		dialogue.Content = append(dialogue.Content, line)
	}
	put(m, "dialogue", dialogue)

	shots := &yaml.Node{Kind: yaml.SequenceNode}
	for _, s := range d.ShotSuggestions {
		shots.Content = append(shots.Content, scalar(s))
	}
	put(m, "shot_suggestions", shots)
	return m
}

func branchingPointNode(d story.BranchingPointDigest) *yaml.Node {
	m := mapping()
	put(m, "kind", scalar("branching-point"))
	put(m, "id", scalar(d.ID))
	put(m, "scenelet_id", scalar(d.SceneletID))
	put(m, "prompt", scalar(d.Prompt))

	choices := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range d.Choices {
		choice := mapping()
		put(choice, "label", scalar(c.Label))
		put(choice, "target", scalar(c.Target))
		choices.Content = append(choices.Content, choice)
	}
	put(m, "choices", choices)
	return m
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func put(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}

func scalar(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
