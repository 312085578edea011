package partition_graph

import (
	"fmt"
	"reflect"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

// Validate performs a full structural self-check:
//   - every occurrence belongs to exactly one non-empty, type-homogeneous partition
//   - INITIAL and TERMINAL sentinels each live in their single dedicated partition
//   - stored transitions equal the ones recomputed from trace adjacency
//
// It is expensive and meant for tests and the extra-checks mode.
func (g *Graph) Validate() error {
	total := 0
	for id, p := range g.partitions {
		if p.id != id {
			return fmt.Errorf("%w: partition %d stored under id %d", ErrCorrupted, p.id, id)
		}
		if p.Size() == 0 {
			return fmt.Errorf("%w: partition %d is empty", ErrCorrupted, id)
		}
		for o := range p.occurrences {
			if g.owner[o] != id {
				return fmt.Errorf("%w: occurrence %d in partition %d but owned by %d", ErrCorrupted, o, id, g.owner[o])
			}
			if typ := g.traces.Occurrence(o).Type; typ != p.typ {
				return fmt.Errorf("%w: occurrence %d of type %q in partition %d of type %q", ErrCorrupted, o, typ, id, p.typ)
			}
		}
		if event_trace.IsSentinel(p.typ) && !g.IsSentinel(id) {
			return fmt.Errorf("%w: extra sentinel partition %d of type %q", ErrCorrupted, id, p.typ)
		}
		total += p.Size()
	}
	if total != g.traces.Len() {
		return fmt.Errorf("%w: %d occurrences in partitions, %d in traces", ErrCorrupted, total, g.traces.Len())
	}

	for _, id := range []PartitionID{g.initial, g.terminal} {
		p, ok := g.partitions[id]
		if !ok {
			return fmt.Errorf("%w: sentinel partition %d missing", ErrCorrupted, id)
		}
		if p.Size() != len(g.traces.Traces()) {
			return fmt.Errorf("%w: sentinel partition %q holds %d of %d occurrences", ErrCorrupted, p.typ, p.Size(), len(g.traces.Traces()))
		}
	}

	return g.validateTransitions()
}

func (g *Graph) validateTransitions() error {
	stored := make(map[PartitionID]map[PartitionID]Transition)
	for from, targets := range g.out {
		if _, ok := g.partitions[from]; !ok {
			return fmt.Errorf("%w: transitions from retired partition %d", ErrCorrupted, from)
		}
		stored[from] = make(map[PartitionID]Transition)
		for to, tr := range targets {
			if _, ok := g.in[to][from]; !ok {
				return fmt.Errorf("%w: transition %d -> %d missing from incoming index", ErrCorrupted, from, to)
			}
			stored[from][to] = copyTransition(tr)
		}
	}
	for to, sources := range g.in {
		for from := range sources {
			if _, ok := g.out[from][to]; !ok {
				return fmt.Errorf("%w: incoming index has %d -> %d without a transition", ErrCorrupted, from, to)
			}
		}
	}

	scratch := &Graph{
		traces:     g.traces,
		partitions: g.partitions,
		owner:      g.owner,
		out:        make(map[PartitionID]map[PartitionID]*Transition),
		in:         make(map[PartitionID]map[PartitionID]struct{}),
	}
	for id := range g.partitions {
		scratch.recomputeOut(id)
	}
	expected := make(map[PartitionID]map[PartitionID]Transition)
	for from, targets := range scratch.out {
		expected[from] = make(map[PartitionID]Transition)
		for to, tr := range targets {
			expected[from][to] = copyTransition(tr)
		}
	}
	for id := range g.partitions {
		if len(stored[id]) == 0 && len(expected[id]) == 0 {
			continue
		}
		if !reflect.DeepEqual(stored[id], expected[id]) {
			return fmt.Errorf("%w: transitions of partition %d are stale", ErrCorrupted, id)
		}
	}
	return nil
}
