package partition_graph

import (
	"fmt"
	"sort"
)

// Snapshot is an id-independent description of a graph. Partitions are keyed
// by their smallest occurrence, which is unique because partitions are
// disjoint. Two graphs are structurally equal iff their snapshots are equal.
type Snapshot struct {
	Partitions  []PartitionSnapshot
	Transitions []TransitionSnapshot
}

type PartitionSnapshot struct {
	Type        EventType
	Occurrences []OccurrenceID
}

type TransitionSnapshot struct {
	From   OccurrenceID
	To     OccurrenceID
	Weight int
	Traces []TraceID
}

func (g *Graph) Snapshot() Snapshot {
	key := make(map[PartitionID]OccurrenceID, len(g.partitions))
	var snap Snapshot
	for id, p := range g.partitions {
		occs := p.Occurrences()
		if len(occs) > 0 {
			key[id] = occs[0]
		}
		snap.Partitions = append(snap.Partitions, PartitionSnapshot{Type: p.typ, Occurrences: occs})
	}
	sort.Slice(snap.Partitions, func(i, j int) bool {
		return snapshotKey(snap.Partitions[i]) < snapshotKey(snap.Partitions[j])
	})

	for from, targets := range g.out {
		for to, tr := range targets {
			snap.Transitions = append(snap.Transitions, TransitionSnapshot{
				From:   key[from],
				To:     key[to],
				Weight: tr.Weight,
				Traces: append([]TraceID(nil), tr.Traces...),
			})
		}
	}
	sort.Slice(snap.Transitions, func(i, j int) bool {
		a, b := snap.Transitions[i], snap.Transitions[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return snap
}

func snapshotKey(p PartitionSnapshot) OccurrenceID {
	if len(p.Occurrences) == 0 {
		return -1
	}
	return p.Occurrences[0]
}

// Fingerprint is a short human readable summary used in logs.
func (s Snapshot) Fingerprint() string {
	return fmt.Sprintf("partitions=%d transitions=%d hash=%016x", len(s.Partitions), len(s.Transitions), s.Hash())
}
