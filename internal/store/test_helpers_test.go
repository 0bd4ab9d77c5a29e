package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/storyreel/internal/story"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestScenelet creates a scenelet with minimal required fields.
func createTestScenelet(id, parent string, minute int) story.SceneletRecord {
	return story.SceneletRecord{
		ID:        id,
		ParentID:  parent,
		Content:   story.SceneletContent{Description: "About " + id},
		CreatedAt: baseTime.Add(time.Duration(minute) * time.Minute),
	}
}
