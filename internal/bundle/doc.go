// Package bundle assembles the playable subset of a story tree into a
// self-contained Bundle.
//
// Assembly works on raw scenelet records plus per-shot media records:
//
//  1. Build the asset manifest (scenelets with at least one image or real audio)
//  2. Require the root to be playable
//  3. Breadth-first from the root, following only edges into playable children
//  4. Build each reachable node's shot list and its next transition
//  5. Attach the music manifest derived from the audio-design document
//
// # Failure Policy
//
// Authoring-integrity violations (missing prompt, too few branch children,
// ambiguous linear fan-out, missing choice label, non-terminal leaf) abort the
// whole assembly with an *IntegrityError. Two things are policy, not
// integrity, and are handled by logged omission instead:
//   - assetful scenelets unreachable through playable nodes
//   - music cues that conflict, reference unknown scenelets, or end up empty
package bundle
