package checker

import (
	"fmt"

	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

type (
	PartitionID = partition_graph.PartitionID
	EventType   = partition_graph.EventType
)

// Model is the read-only view of a partition graph the checkers need.
// *partition_graph.Graph satisfies it.
type Model interface {
	Initial() PartitionID
	Terminal() PartitionID
	Successors(id PartitionID) []PartitionID
	Label(id PartitionID) EventType
	Size() int
}

var _ Model = (*partition_graph.Graph)(nil)

// Result is the outcome of checking one invariant. When Holds is false,
// Witness is a path starting at INITIAL along which the invariant fails.
type Result struct {
	Holds   bool
	Witness []PartitionID
}

// Checker decides whether every INITIAL-to-TERMINAL path of a model satisfies
// an invariant.
type Checker interface {
	Check(m Model, inv invariants.Invariant) (Result, error)
	Name() string
}

// witnessBound is the longest witness a product search over m can produce.
func witnessBound(m Model) int {
	return m.Size() * maxStates
}

func checkBound(m Model, inv invariants.Invariant, w []PartitionID) error {
	if bound := witnessBound(m); len(w) > bound {
		return fmt.Errorf("%w: %s: witness of length %d exceeds %d", ErrWitnessBound, inv, len(w), bound)
	}
	return nil
}

func unknownKind(inv invariants.Invariant) error {
	return fmt.Errorf("check %s: unsupported invariant kind %s", inv, inv.Kind)
}
