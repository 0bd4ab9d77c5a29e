package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storyreel/internal/store"
	"github.com/roach88/storyreel/internal/story"
)

// StoryFixture is the YAML shape accepted by the import command.
//
// AudioDesign may be written as a JSON string or as a YAML mapping; either
// way it is stored as JSON.
type StoryFixture struct {
	Story       story.Metadata         `yaml:"story"`
	AudioDesign yaml.Node              `yaml:"audio_design,omitempty"`
	Scenelets   []story.SceneletRecord `yaml:"scenelets"`
	Shots       []story.ShotRecord     `yaml:"shots,omitempty"`
}

// LoadStoryFixture reads and parses a story fixture file.
func LoadStoryFixture(path string) (*StoryFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fx StoryFixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if fx.Story.ID == "" {
		return nil, fmt.Errorf("failed to parse fixture: story.id is required")
	}
	return &fx, nil
}

// Import converts the fixture into a store import.
func (fx *StoryFixture) Import() (store.Import, error) {
	design, err := fx.audioDesignJSON()
	if err != nil {
		return store.Import{}, err
	}
	return store.Import{
		Story:       fx.Story,
		Scenelets:   fx.Scenelets,
		Shots:       fx.Shots,
		AudioDesign: design,
	}, nil
}

func (fx *StoryFixture) audioDesignJSON() ([]byte, error) {
	switch fx.AudioDesign.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if fx.AudioDesign.Tag == "!!null" || fx.AudioDesign.Value == "" {
			return nil, nil
		}
		return []byte(fx.AudioDesign.Value), nil
	default:
		var raw any
		if err := fx.AudioDesign.Decode(&raw); err != nil {
			return nil, fmt.Errorf("audio_design: %w", err)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("audio_design: %w", err)
		}
		return data, nil
	}
}
