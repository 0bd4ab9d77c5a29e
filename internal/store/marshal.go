package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/storyreel/internal/story"
)

// marshalContent converts scenelet content to JSON TEXT for storage.
// HTML escaping is disabled so stored dialogue stays readable.
func marshalContent(c story.SceneletContent) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalContent parses JSON TEXT from the database.
func unmarshalContent(s string) (story.SceneletContent, error) {
	var c story.SceneletContent
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return story.SceneletContent{}, fmt.Errorf("unmarshal content: %w", err)
	}
	return c, nil
}

// Timestamps are stored as Unix nanoseconds; sibling ordering needs more
// than second precision.
func encodeTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func decodeTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
