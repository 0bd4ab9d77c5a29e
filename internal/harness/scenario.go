package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storyreel/internal/player"
	"github.com/roach88/storyreel/internal/story"
)

// Scenario describes one deterministic playback run.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Bundle is the bundle under test, written inline in the bundle JSON
	// shape.
	Bundle InlineBundle `yaml:"bundle"`

	// Steps run in order against a fresh controller.
	Steps []Step `yaml:"steps"`

	// Expect holds the checks applied after the last step.
	Expect Expect `yaml:"expect"`
}

// Step operations.
const (
	OpStart         = "start"
	OpRestart       = "restart"
	OpPause         = "pause"
	OpResume        = "resume"
	OpAudioComplete = "audio_complete"
	OpAudioError    = "audio_error"
	OpChoose        = "choose"
	OpAdvance       = "advance"
	OpSettle        = "settle"
)

// Step is one scenario step. In YAML it is either a bare operation name
// ("start") or a single-key mapping carrying an argument ("choose: scenelet-2",
// "advance: 400ms").
type Step struct {
	Op  string
	Arg string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s.Op = value.Value
		s.Arg = ""
		return nil
	case yaml.MappingNode:
		if len(value.Content) != 2 {
			return fmt.Errorf("line %d: step mapping must have exactly one key", value.Line)
		}
		s.Op = value.Content[0].Value
		s.Arg = value.Content[1].Value
		return nil
	default:
		return fmt.Errorf("line %d: step must be a name or a single-key mapping", value.Line)
	}
}

// Duration parses the argument of an advance step.
func (s Step) Duration() (time.Duration, error) {
	return time.ParseDuration(s.Arg)
}

func (s Step) String() string {
	if s.Arg == "" {
		return s.Op
	}
	return s.Op + ": " + s.Arg
}

// Expect lists the checks run after the steps.
type Expect struct {
	// Events must appear in the trace in this order. Other events may occur
	// between them.
	Events []player.EventType `yaml:"events"`

	// FinalStage, when set, must equal the controller's stage at the end.
	FinalStage player.Stage `yaml:"final_stage,omitempty"`
}

// InlineBundle decodes a YAML mapping through the bundle's JSON codec, so
// scenarios use the same shape as exported bundle files.
type InlineBundle struct {
	Bundle *story.Bundle
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *InlineBundle) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("line %d: bundle: %w", value.Line, err)
	}
	var decoded story.Bundle
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("line %d: bundle: %w", value.Line, err)
	}
	b.Bundle = &decoded
	return nil
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Bundle.Bundle == nil {
		return fmt.Errorf("bundle is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, t := range s.Expect.Events {
		if !knownEventType(t) {
			return fmt.Errorf("expect.events[%d]: unknown event type %q", i, t)
		}
	}
	if s.Expect.FinalStage != "" && !knownStage(s.Expect.FinalStage) {
		return fmt.Errorf("expect.final_stage: unknown stage %q", s.Expect.FinalStage)
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpStart, OpRestart, OpPause, OpResume, OpAudioComplete, OpAudioError, OpSettle:
		if step.Arg != "" {
			return fmt.Errorf("%s takes no argument", step.Op)
		}
	case OpChoose:
		if step.Arg == "" {
			return fmt.Errorf("choose requires a target node id")
		}
	case OpAdvance:
		d, err := step.Duration()
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("advance: duration must be non-negative")
		}
	default:
		return fmt.Errorf("unknown step %q", step.Op)
	}
	return nil
}

func knownEventType(t player.EventType) bool {
	for _, known := range player.EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

func knownStage(s player.Stage) bool {
	switch s {
	case player.StageIdle, player.StageRampUp, player.StageAudio, player.StageRampDown,
		player.StageChoice, player.StageTerminal, player.StageIncomplete:
		return true
	default:
		return false
	}
}
