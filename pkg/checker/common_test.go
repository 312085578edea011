package checker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

func buildGraph(t *testing.T, traces ...[]EventType) *partition_graph.Graph {
	t.Helper()
	b := event_trace.NewBuilder()
	for _, tr := range traces {
		b.AddSequence(tr...)
	}
	set, err := b.Build()
	require.NoError(t, err)
	return partition_graph.New(set)
}

// twoOrders: partitions 1 INITIAL, 2 TERMINAL, 3 a, 4 b, 5 c with
// 1->3, 3->4, 3->5, 4->2, 4->5, 5->2, 5->4.
func twoOrders(t *testing.T) *partition_graph.Graph {
	return buildGraph(t,
		[]EventType{"a", "b", "c"},
		[]EventType{"a", "c", "b"},
	)
}

func randomGraph(t *testing.T, rng *rand.Rand, alphabet []EventType) *partition_graph.Graph {
	t.Helper()
	var traces [][]EventType
	n := 1 + rng.IntN(4)
	for i := 0; i < n; i++ {
		length := rng.IntN(7)
		tr := make([]EventType, 0, length)
		for j := 0; j < length; j++ {
			tr = append(tr, alphabet[rng.IntN(len(alphabet))])
		}
		traces = append(traces, tr)
	}
	g := buildGraph(t, traces...)

	splits := rng.IntN(5)
	for i := 0; i < splits; i++ {
		var candidates []PartitionID
		for _, id := range g.Partitions() {
			p, _ := g.Partition(id)
			if !g.IsSentinel(id) && p.Size() > 1 {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			break
		}
		id := candidates[rng.IntN(len(candidates))]
		p, _ := g.Partition(id)
		occs := p.Occurrences()
		cut := 1 + rng.IntN(len(occs)-1)
		_, err := g.Apply(partition_graph.NewSplit(id, occs[:cut], occs[cut:]))
		require.NoError(t, err)
	}
	return g
}

// allInvariants enumerates every path checked invariant over alphabet.
func allInvariants(alphabet []EventType) []invariants.Invariant {
	var out []invariants.Invariant
	sources := append([]EventType{event_trace.Initial}, alphabet...)
	for _, a := range sources {
		for _, b := range alphabet {
			out = append(out, invariants.Invariant{Kind: invariants.AlwaysFollowedBy, A: a, B: b})
		}
	}
	for _, a := range alphabet {
		for _, b := range alphabet {
			out = append(out,
				invariants.Invariant{Kind: invariants.NeverFollowedBy, A: a, B: b},
				invariants.Invariant{Kind: invariants.AlwaysPrecedes, A: a, B: b},
			)
		}
	}
	return out
}

// shrunk reports a smaller size than the wrapped model really has.
type shrunk struct {
	Model
	size int
}

func (s shrunk) Size() int {
	return s.size
}

func afby(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.AlwaysFollowedBy, A: a, B: b}
}

func nfby(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.NeverFollowedBy, A: a, B: b}
}

func ap(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.AlwaysPrecedes, A: a, B: b}
}
