package bisimulation

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/checker"
	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

type EventType = event_trace.EventType

func buildTraces(t *testing.T, traces ...[]EventType) *event_trace.TraceSet {
	t.Helper()
	b := event_trace.NewBuilder()
	for _, tr := range traces {
		b.AddSequence(tr...)
	}
	set, err := b.Build()
	require.NoError(t, err)
	return set
}

func randomTraces(t *testing.T, rng *rand.Rand, alphabet []EventType) *event_trace.TraceSet {
	t.Helper()
	var traces [][]EventType
	n := 1 + rng.IntN(4)
	for i := 0; i < n; i++ {
		length := 1 + rng.IntN(6)
		tr := make([]EventType, 0, length)
		for j := 0; j < length; j++ {
			tr = append(tr, alphabet[rng.IntN(len(alphabet))])
		}
		traces = append(traces, tr)
	}
	return buildTraces(t, traces...)
}

func mine(t *testing.T, traces *event_trace.TraceSet) *invariants.Set {
	t.Helper()
	set, err := invariants.NewTransitiveClosureMiner(invariants.MinerOptions{}).Mine(context.Background(), traces)
	require.NoError(t, err)
	return set
}

func checkers() []checker.Checker {
	return []checker.Checker{checker.NewFSMChecker(), checker.NewLTLChecker()}
}

func requireAllHold(t *testing.T, g *partition_graph.Graph, set *invariants.Set) {
	t.Helper()
	for _, c := range checkers() {
		for _, inv := range set.PathInvariants() {
			res, err := c.Check(g, inv)
			require.NoError(t, err)
			require.True(t, res.Holds, "%s: %s violated by %v", c.Name(), inv, res.Witness)
		}
	}
}

// requireTracesAccepted checks that every input trace is still a path of g.
func requireTracesAccepted(t *testing.T, g *partition_graph.Graph) {
	t.Helper()
	traces := g.Traces()
	for _, tr := range traces.Traces() {
		for _, o := range tr.Occurrences {
			for _, s := range traces.Successors(o) {
				_, ok := g.Transition(g.PartitionOf(o), g.PartitionOf(s))
				require.True(t, ok, "trace %d: edge %d -> %d missing", tr.ID, o, s)
			}
		}
	}
}

func occurrenceCount(g *partition_graph.Graph) int {
	n := 0
	for _, id := range g.Partitions() {
		p, _ := g.Partition(id)
		n += p.Size()
	}
	return n
}

// recorder keeps the partition count seen at every stage.
type recorder struct {
	stages []Stage
	sizes  []int
	hook   func(stage Stage, g *partition_graph.Graph)
}

func (r *recorder) OnStage(stage Stage, _ int, g *partition_graph.Graph) {
	r.stages = append(r.stages, stage)
	r.sizes = append(r.sizes, g.Size())
	if r.hook != nil {
		r.hook(stage, g)
	}
}

func (r *recorder) count(stage Stage) int {
	n := 0
	for _, s := range r.stages {
		if s == stage {
			n++
		}
	}
	return n
}

func afby(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.AlwaysFollowedBy, A: a, B: b}
}

func ap(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.AlwaysPrecedes, A: a, B: b}
}

func nfby(a, b EventType) invariants.Invariant {
	return invariants.Invariant{Kind: invariants.NeverFollowedBy, A: a, B: b}
}
