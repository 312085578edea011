package checker

import (
	"fmt"
	"slices"

	"github.com/jtomasevic/synoptic/pkg/invariants"
)

// Replay confirms that witness is a path of m starting at INITIAL along which
// inv is violated. AlwaysFollowedBy witnesses must also end at TERMINAL.
func Replay(m Model, inv invariants.Invariant, witness []PartitionID) error {
	r, ok := newRecognizer(inv)
	if !ok {
		return fmt.Errorf("%w: %s is not path checked", ErrInvalidWitness, inv)
	}
	if len(witness) == 0 {
		return fmt.Errorf("%w: %s: empty witness", ErrInvalidWitness, inv)
	}
	if witness[0] != m.Initial() {
		return fmt.Errorf("%w: %s: witness starts at %d, not INITIAL", ErrInvalidWitness, inv, witness[0])
	}

	s := r.step(start, m.Label(witness[0]))
	for i := 1; i < len(witness); i++ {
		if !slices.Contains(m.Successors(witness[i-1]), witness[i]) {
			return fmt.Errorf("%w: %s: no transition %d -> %d", ErrInvalidWitness, inv, witness[i-1], witness[i])
		}
		s = r.step(s, m.Label(witness[i]))
	}
	if !r.accepting(s, m.Label(witness[len(witness)-1])) {
		return fmt.Errorf("%w: %s: path does not violate the invariant", ErrInvalidWitness, inv)
	}
	return nil
}
