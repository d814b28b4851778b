// Package harness runs mirroring scenarios end to end.
//
// A scenario builds a source deck and a destination deck, declares a
// pairing between traversals over them, applies a list of edits to either
// side, drains the dispatcher and evaluates assertions against the
// destination. The destination's final state is captured as a canonical
// JSON snapshot for golden comparison.
//
// # Scenario Format
//
//	name: intro_ink
//	description: "A stroke drawn on the source reaches the destination"
//	source:
//	  origin: remote
//	  slides:
//	    - title: Intro
//	      sheets:
//	        - { name: ink, kind: ink }
//	destination:
//	  slides:
//	    - title: Intro
//	steps:
//	  - { action: add_stroke, slide: Intro, sheet: ink, cid: X, dots: 4 }
//	assertions:
//	  - { type: stroke_count, slide: Intro, index: 0, count: 1 }
//
// Steps run in order without draining; the queue is drained by an
// explicit drain step and always once after the last step. Slides get one
// table of contents entry each, nested under the entry of their parent
// when parent is set.
//
// # Assertion Types
//
//   - entry_mapped: the source entry for slide maps (or not) to a destination entry
//   - slide_matched: the source slide has (or has not) a SlideMatch
//   - stroke_count: destination sheet index of slide holds count strokes
//   - sheet_count: destination slide holds count annotation sheets
//   - current_entry: destination traversal shows the entry for title
//   - image_present: destination image store holds (or lacks) data
//   - live_strokes: destination real-time sheet has count strokes in flight
//
// # Golden Files
//
// Snapshots are compared with goldie against testdata/golden/<name>.golden.
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
