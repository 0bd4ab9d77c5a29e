// Package tree turns a flat set of scenelet records into a validated, rooted
// tree digest.
//
// Assemble is a pure function: it indexes the records, checks the single-root
// and parent-reference invariants, orders siblings newest-first, assigns
// sequential "scenelet-N" ids depth-first while watching for cycles, and
// finally emits digest entries plus a YAML rendering of them.
//
// Every integrity violation is fatal. There is no partial digest.
package tree
