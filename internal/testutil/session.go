package testutil

import (
	"fmt"
	"sync"
)

// SequentialSessions issues "<prefix>-1", "<prefix>-2", ... as session ids.
//
// Unlike player.FixedGenerator it never runs out, which suits scenarios
// that restart an unknown number of times.
type SequentialSessions struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialSessions creates a generator. An empty prefix means "session".
func NewSequentialSessions(prefix string) *SequentialSessions {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialSessions{prefix: prefix}
}

// Generate implements player.SessionIDGenerator.
func (g *SequentialSessions) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
