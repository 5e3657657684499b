// Package visibility computes per-slide visibility snapshots from
// classified animation output. A snapshot maps shape id -> visible;
// shape ids absent from a snapshot default to visible downstream.
package visibility

import (
	"github.com/FocuswithJustin/Slidecast/core/timing"
)

// Snapshot is a complete visible/hidden assignment for a slide's shapes
// at one moment.
type Snapshot map[int]bool

// Visible reports the state of a shape id, defaulting to visible for
// ids the snapshot does not track.
func (s Snapshot) Visible(id int) bool {
	v, ok := s[id]
	if !ok {
		return true
	}
	return v
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Timeline replays the event sequence and returns one snapshot per
// logical instant: snapshot 0 is the inferred initial state, then one
// snapshot after each distinct step, N+1 snapshots for N steps.
//
// The initial state starts with every shape visible, except that a shape
// whose first event makes it visible must have been hidden before the
// show fired. That inference is the one fact no single event encodes:
// the timing grammar omits the implicit "before" state of an entrance
// animation.
//
// A slide with no events yields a single all-visible snapshot.
func Timeline(shapeIDs []int, events []timing.Event) []Snapshot {
	state := make(Snapshot, len(shapeIDs))
	for _, id := range shapeIDs {
		state[id] = true
	}

	firstSeen := make(map[int]bool, len(events))
	for _, ev := range events {
		if firstSeen[ev.ShapeID] {
			continue
		}
		firstSeen[ev.ShapeID] = true
		if ev.Visible {
			state[ev.ShapeID] = false
		}
	}

	snapshots := []Snapshot{state.clone()}
	if len(events) == 0 {
		return snapshots
	}

	currentStep := events[0].Step
	for _, ev := range events {
		if ev.Step != currentStep {
			snapshots = append(snapshots, state.clone())
			currentStep = ev.Step
		}
		state[ev.ShapeID] = ev.Visible
	}
	snapshots = append(snapshots, state.clone())
	return snapshots
}

// Split builds the Before/After pair: Before hides every shape
// classified entrance (it has not appeared yet), After hides every shape
// classified exit (it is gone by the end). A shape in both buckets is
// hidden in both snapshots; its only visible state is mid-animation,
// which neither boundary slide represents.
func Split(shapeIDs []int, b timing.Buckets) (before, after Snapshot) {
	before = make(Snapshot, len(shapeIDs))
	after = make(Snapshot, len(shapeIDs))
	for _, id := range shapeIDs {
		before[id] = !b.Entrance[id]
		after[id] = !b.Exit[id]
	}
	return before, after
}
