package bisimulation

import "errors"

// ErrUnrealizableSplit means a counterexample path is followed by a real trace,
// so no split can remove it. The mined invariant does not hold in the input.
var ErrUnrealizableSplit = errors.New("counterexample is realized by a trace")
