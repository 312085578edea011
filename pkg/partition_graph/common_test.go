package partition_graph

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

func buildGraph(t *testing.T, traces ...[]EventType) *Graph {
	t.Helper()
	b := event_trace.NewBuilder()
	for _, tr := range traces {
		b.AddSequence(tr...)
	}
	set, err := b.Build()
	require.NoError(t, err)
	g := New(set)
	require.NoError(t, g.Validate())
	return g
}

// twoOrders builds T0 = [a b c] and T1 = [a c b]. Occurrence ids:
// T0: 0 INITIAL, 1 a, 2 b, 3 c, 4 TERMINAL; T1: 5 INITIAL, 6 a, 7 c, 8 b, 9 TERMINAL.
// Partition ids: 1 INITIAL, 2 TERMINAL, 3 a, 4 b, 5 c.
func twoOrders(t *testing.T) *Graph {
	return buildGraph(t,
		[]EventType{"a", "b", "c"},
		[]EventType{"a", "c", "b"},
	)
}

func occurrenceCount(g *Graph) int {
	n := 0
	for _, id := range g.Partitions() {
		p, _ := g.Partition(id)
		n += p.Size()
	}
	return n
}

// randomOperation returns a valid split or merge, or nil when none exists.
func randomOperation(g *Graph, rng *rand.Rand) Operation {
	var splittable []PartitionID
	mergeable := make(map[EventType][]PartitionID)
	for _, id := range g.Partitions() {
		if g.IsSentinel(id) {
			continue
		}
		p, _ := g.Partition(id)
		if p.Size() > 1 {
			splittable = append(splittable, id)
		}
		mergeable[p.Type()] = append(mergeable[p.Type()], id)
	}

	var pairs [][2]PartitionID
	for _, ids := range mergeable {
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				pairs = append(pairs, [2]PartitionID{ids[i], ids[j]})
			}
		}
	}

	if len(pairs) > 0 && (len(splittable) == 0 || rng.IntN(2) == 0) {
		// map iteration is random, so pick from a sorted view
		sortPairs(pairs)
		pick := pairs[rng.IntN(len(pairs))]
		return &Merge{Into: pick[0], From: pick[1]}
	}
	if len(splittable) == 0 {
		return nil
	}

	id := splittable[rng.IntN(len(splittable))]
	p, _ := g.Partition(id)
	occs := p.Occurrences()
	rng.Shuffle(len(occs), func(i, j int) { occs[i], occs[j] = occs[j], occs[i] })
	parts := 2 + rng.IntN(min(2, len(occs)-1))
	split := &Split{Partition: id}
	for i := 0; i < parts; i++ {
		split.Parts = append(split.Parts, SplitPart{})
	}
	for i, o := range occs {
		k := i % parts
		split.Parts[k].Occurrences = append(split.Parts[k].Occurrences, o)
	}
	return split
}

func sortPairs(pairs [][2]PartitionID) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && lessPair(pairs[j], pairs[j-1]); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}

func lessPair(a, b [2]PartitionID) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}
