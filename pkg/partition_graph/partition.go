package partition_graph

import (
	"sort"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

type EventType = event_trace.EventType
type OccurrenceID = event_trace.OccurrenceID
type TraceID = event_trace.TraceID

// PartitionID is a stable handle of a partition. Zero is never a valid id.
type PartitionID int

// Partition is a node of the model: a non-empty set of occurrences that all
// share one event type.
type Partition struct {
	id          PartitionID
	typ         EventType
	occurrences map[OccurrenceID]struct{}
}

func newPartition(id PartitionID, typ EventType) *Partition {
	return &Partition{
		id:          id,
		typ:         typ,
		occurrences: make(map[OccurrenceID]struct{}),
	}
}

func (p *Partition) ID() PartitionID {
	return p.id
}

func (p *Partition) Type() EventType {
	return p.typ
}

func (p *Partition) Size() int {
	return len(p.occurrences)
}

func (p *Partition) Contains(o OccurrenceID) bool {
	_, ok := p.occurrences[o]
	return ok
}

// Occurrences returns the member occurrences in ascending id order.
func (p *Partition) Occurrences() []OccurrenceID {
	out := make([]OccurrenceID, 0, len(p.occurrences))
	for o := range p.occurrences {
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

// Transition is the weighted, trace-annotated edge between two partitions.
type Transition struct {
	From   PartitionID
	To     PartitionID
	Weight int
	// Traces realizing the transition, ascending.
	Traces []TraceID
}
