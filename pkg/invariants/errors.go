package invariants

import "errors"

// ErrContradiction signals that mutually exclusive invariants were mined together.
var ErrContradiction = errors.New("contradictory invariants mined")
