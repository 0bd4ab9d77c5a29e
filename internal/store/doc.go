// Package store persists stories for the assemblers in SQLite.
//
// A story is a row in stories (title plus the raw audio-design document), its
// scenelets and its shots. Store implements bundle.Source, so a bundle can be
// assembled straight from a database file.
//
// # Ordering
//
//   - Scenelets are listed in insertion order (position ASC, id ASC). The
//     bundle assembler treats that as the declared child order.
//   - Shots are listed by scenelet id, then shot index.
//
// Parent links are not foreign keys: dangling parents, cycles and duplicate
// roots are the tree assembler's to report, with proper error codes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Scenelets and shots belong to an existing story
package store
