package checker

import (
	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
)

// state of the recognizer for the negation of an invariant.
type state uint8

const (
	// AFby: 0 no pending a, 1 an a is waiting for its b.
	// NFby: 0 no a yet, 1 seen a, 2 violated.
	// AP:   0 no a yet, 1 seen a (safe), 2 violated.
	start    state = 0
	armed    state = 1
	violated state = 2

	maxStates = 3
)

// recognizer reads partition labels along a path and reports when the prefix
// read so far proves the invariant false.
type recognizer struct {
	inv invariants.Invariant
}

func newRecognizer(inv invariants.Invariant) (recognizer, bool) {
	switch inv.Kind {
	case invariants.AlwaysFollowedBy, invariants.NeverFollowedBy, invariants.AlwaysPrecedes:
		return recognizer{inv: inv}, true
	}
	return recognizer{}, false
}

// step consumes one label.
func (r recognizer) step(s state, label EventType) state {
	a, b := r.inv.A, r.inv.B
	switch r.inv.Kind {
	case invariants.AlwaysFollowedBy:
		// b discharges an earlier a before a new a can arm
		if label == b {
			s = start
		}
		if label == a {
			s = armed
		}
		return s
	case invariants.NeverFollowedBy:
		if s == armed && label == b {
			return violated
		}
		if s == start && label == a {
			return armed
		}
		return s
	case invariants.AlwaysPrecedes:
		if s == start && label == b {
			return violated
		}
		if s == start && label == a {
			return armed
		}
		return s
	}
	return s
}

// accepting reports whether a path ending in a partition labelled label, read
// into state s, is a complete witness.
func (r recognizer) accepting(s state, label EventType) bool {
	if r.inv.Kind == invariants.AlwaysFollowedBy {
		return s == armed && label == event_trace.Terminal
	}
	return s == violated
}
