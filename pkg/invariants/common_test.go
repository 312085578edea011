package invariants

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

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

func randomTraces(t *testing.T, rng *rand.Rand, alphabet []EventType, count, maxLen int) *event_trace.TraceSet {
	t.Helper()
	traces := make([][]EventType, 0, count)
	for i := 0; i < count; i++ {
		n := 1 + rng.IntN(maxLen)
		tr := make([]EventType, 0, n)
		for j := 0; j < n; j++ {
			tr = append(tr, alphabet[rng.IntN(len(alphabet))])
		}
		traces = append(traces, tr)
	}
	return buildTraces(t, traces...)
}

func mineBoth(t *testing.T, set *event_trace.TraceSet, opts MinerOptions) (*Set, *Set) {
	t.Helper()
	closureSet, err := NewTransitiveClosureMiner(opts).Mine(context.Background(), set)
	require.NoError(t, err)
	walkSet, err := NewWalkMiner(opts).Mine(context.Background(), set)
	require.NoError(t, err)
	return closureSet, walkSet
}

func afby(a, b EventType) Invariant {
	return Invariant{Kind: AlwaysFollowedBy, A: a, B: b}
}

func nfby(a, b EventType) Invariant {
	return Invariant{Kind: NeverFollowedBy, A: a, B: b}
}

func ap(a, b EventType) Invariant {
	return Invariant{Kind: AlwaysPrecedes, A: a, B: b}
}

func ncwith(a, b EventType) Invariant {
	return Invariant{Kind: NeverConcurrentWith, A: a, B: b}
}
