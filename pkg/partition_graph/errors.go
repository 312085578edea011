package partition_graph

import "errors"

var (
	// ErrPrecondition is returned when an operation is not applicable to the
	// graph. The graph is left untouched. Engines must never trigger it.
	ErrPrecondition = errors.New("operation precondition violated")

	// ErrCorrupted is returned by Validate when the graph structure no longer
	// matches the trace facts it was built from.
	ErrCorrupted = errors.New("partition graph corrupted")
)
