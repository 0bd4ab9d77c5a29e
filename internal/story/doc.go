// Package story provides the shared data model for branching narratives.
//
// This package contains type definitions and small pure helpers only. All other
// internal packages import story; story imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Scenelet records are an immutable input snapshot; assemblers never mutate them
//   - Transition is a closed sum type (see transition.go); consumers switch exhaustively
//   - All JSON tags use snake_case
//   - Paths inside a Bundle are bundle-relative strings, never absolute
package story
