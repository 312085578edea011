package bisimulation

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/checker"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

// splitToSingletons breaks every non-sentinel partition into one partition
// per occurrence.
func splitToSingletons(t *testing.T, g *partition_graph.Graph) {
	t.Helper()
	for _, id := range g.Partitions() {
		if g.IsSentinel(id) {
			continue
		}
		p, _ := g.Partition(id)
		occs := p.Occurrences()
		if len(occs) < 2 {
			continue
		}
		split := &partition_graph.Split{Partition: id}
		for _, o := range occs {
			split.Parts = append(split.Parts, partition_graph.SplitPart{Occurrences: []partition_graph.OccurrenceID{o}})
		}
		_, err := g.Apply(split)
		require.NoError(t, err)
	}
}

func TestCoarsen_MergesBackRepeatedType(t *testing.T) {
	traces := buildTraces(t, []EventType{"a", "a"})
	set := mine(t, traces)
	g := partition_graph.New(traces)
	coarse := g.Snapshot()

	splitToSingletons(t, g)
	require.Len(t, g.PartitionsOfType("a"), 2)

	rec := &recorder{}
	c := NewCoarsener(g, checker.NewFSMChecker(), set, 1, Options{Listener: rec})
	require.NoError(t, c.Coarsen(context.Background()))
	require.Equal(t, 1, c.Merges())
	require.Zero(t, c.Rollbacks())
	require.Equal(t, coarse, g.Snapshot())
	require.Equal(t, []Stage{StageMerge, StageCoarsened}, rec.stages)
}

func TestCoarsen_RollsBackViolatingMerge(t *testing.T) {
	traces := buildTraces(t,
		[]EventType{"a", "b", "x"},
		[]EventType{"c", "b", "y"},
	)
	g := partition_graph.New(traces)
	set := invariants.NewSet(nfby("a", "y"))

	r := NewRefiner(g, checker.NewFSMChecker(), set, Options{})
	require.NoError(t, r.Refine(context.Background()))
	refined := g.Snapshot()

	log := partition_graph.NewOperationLog()
	rec := &recorder{}
	c := NewCoarsener(g, checker.NewFSMChecker(), set, 7, Options{Listener: rec, Log: log})
	require.NoError(t, c.Coarsen(context.Background()))

	// the only candidate is the pair of b partitions, and merging it
	// brings back a->b->y
	require.Zero(t, c.Merges())
	require.Equal(t, 1, c.Rollbacks())
	require.Equal(t, []Stage{StageRollback, StageCoarsened}, rec.stages)
	require.Zero(t, log.Len())
	require.Equal(t, refined, g.Snapshot())
}

func TestCoarsen_KeepsInvariantsOnRandomTraces(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 19))
	alphabet := []EventType{"a", "b", "c"}

	for round := 0; round < 25; round++ {
		traces := randomTraces(t, rng, alphabet)
		set := mine(t, traces)

		for _, chk := range checkers() {
			g := partition_graph.New(traces)
			g.SetExtraChecks(true)
			require.NoError(t, NewRefiner(g, chk, set, Options{}).Refine(context.Background()))
			refined := g.Size()

			c := NewCoarsener(g, chk, set, uint64(round), Options{})
			require.NoError(t, c.Coarsen(context.Background()), "round %d", round)

			require.LessOrEqual(t, g.Size(), refined)
			require.Equal(t, refined-g.Size(), c.Merges())
			requireAllHold(t, g, set)
			requireTracesAccepted(t, g)
			require.Equal(t, traces.Len(), occurrenceCount(g))
		}
	}
}

func TestCoarsen_SameSeedSameGraph(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 29))
	alphabet := []EventType{"a", "b", "c", "d"}

	for round := 0; round < 10; round++ {
		traces := randomTraces(t, rng, alphabet)
		set := mine(t, traces)

		run := func() partition_graph.Snapshot {
			g := partition_graph.New(traces)
			splitToSingletons(t, g)
			c := NewCoarsener(g, checker.NewFSMChecker(), set, 42, Options{})
			require.NoError(t, c.Coarsen(context.Background()))
			return g.Snapshot()
		}
		require.Equal(t, run(), run(), "round %d", round)
	}
}

func TestCoarsen_Cancelled(t *testing.T) {
	traces := buildTraces(t, []EventType{"a", "a"})
	g := partition_graph.New(traces)
	splitToSingletons(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCoarsener(g, checker.NewFSMChecker(), mine(t, traces), 1, Options{})
	require.ErrorIs(t, c.Coarsen(ctx), context.Canceled)
}
