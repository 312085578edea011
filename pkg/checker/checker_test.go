package checker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
)

func checkers() []Checker {
	return []Checker{NewFSMChecker(), NewLTLChecker()}
}

func TestCheck_TwoOrders(t *testing.T) {
	g := twoOrders(t)

	tests := []struct {
		inv   invariants.Invariant
		holds bool
	}{
		{inv: afby(event_trace.Initial, "a"), holds: true},
		{inv: afby(event_trace.Initial, "b"), holds: false},
		{inv: afby("a", "b"), holds: false},
		{inv: ap("a", "b"), holds: true},
		{inv: ap("a", "c"), holds: true},
		{inv: ap("b", "c"), holds: false},
		{inv: ap("a", "a"), holds: false},
		{inv: nfby("b", "a"), holds: true},
		{inv: nfby("b", "b"), holds: false},
		{inv: nfby("c", "a"), holds: true},
	}

	for _, c := range checkers() {
		for _, tt := range tests {
			t.Run(c.Name()+"/"+tt.inv.String(), func(t *testing.T) {
				res, err := c.Check(g, tt.inv)
				require.NoError(t, err)
				require.Equal(t, tt.holds, res.Holds)
				if tt.holds {
					require.Empty(t, res.Witness)
					return
				}
				require.NoError(t, Replay(g, tt.inv, res.Witness))
			})
		}
	}
}

func TestFSMChecker_ShortestLexicographicWitness(t *testing.T) {
	g := twoOrders(t)
	c := NewFSMChecker()

	res, err := c.Check(g, nfby("b", "b"))
	require.NoError(t, err)
	require.Equal(t, []PartitionID{1, 3, 4, 5, 4}, res.Witness)

	res, err = c.Check(g, afby("a", "b"))
	require.NoError(t, err)
	require.Equal(t, []PartitionID{1, 3, 5, 2}, res.Witness)

	res, err = c.Check(g, ap("b", "c"))
	require.NoError(t, err)
	require.Equal(t, []PartitionID{1, 3, 5}, res.Witness)
}

func TestLTLChecker_Witness(t *testing.T) {
	g := twoOrders(t)
	c := NewLTLChecker()

	res, err := c.Check(g, ap("b", "c"))
	require.NoError(t, err)
	require.Equal(t, []PartitionID{1, 3, 5}, res.Witness)

	res, err = c.Check(g, afby("a", "b"))
	require.NoError(t, err)
	require.Equal(t, PartitionID(2), res.Witness[len(res.Witness)-1])
}

func TestCheck_NeverConcurrentWithIsNotPathChecked(t *testing.T) {
	g := twoOrders(t)
	inv := invariants.Invariant{Kind: invariants.NeverConcurrentWith, A: "a", B: "b"}
	for _, c := range checkers() {
		res, err := c.Check(g, inv)
		require.NoError(t, err)
		require.True(t, res.Holds, c.Name())
	}
}

func TestCheck_UnknownKind(t *testing.T) {
	g := twoOrders(t)
	inv := invariants.Invariant{Kind: invariants.Kind(9), A: "a", B: "b"}
	for _, c := range checkers() {
		_, err := c.Check(g, inv)
		require.Error(t, err, c.Name())
	}
}

func TestCheck_WitnessBound(t *testing.T) {
	m := shrunk{Model: twoOrders(t), size: 1}
	for _, c := range checkers() {
		_, err := c.Check(m, afby("a", "b"))
		require.ErrorIs(t, err, ErrWitnessBound, c.Name())
	}
}

func TestCheckers_AgreeOnRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	alphabet := []EventType{"a", "b", "c"}
	fsm, ltl := NewFSMChecker(), NewLTLChecker()

	for round := 0; round < 40; round++ {
		g := randomGraph(t, rng, alphabet)
		for _, inv := range allInvariants(alphabet) {
			a, err := fsm.Check(g, inv)
			require.NoError(t, err)
			b, err := ltl.Check(g, inv)
			require.NoError(t, err)

			require.Equal(t, a.Holds, b.Holds, "round %d: %s", round, inv)
			if a.Holds {
				continue
			}
			require.NoError(t, Replay(g, inv, a.Witness), "round %d: %s", round, inv)
			require.NoError(t, Replay(g, inv, b.Witness), "round %d: %s", round, inv)
			require.LessOrEqual(t, len(a.Witness), len(b.Witness))
		}
	}
}

func TestReplay_Rejects(t *testing.T) {
	g := twoOrders(t)

	tests := map[string]struct {
		inv     invariants.Invariant
		witness []PartitionID
	}{
		"empty":          {inv: afby("a", "b")},
		"not at initial": {inv: ap("b", "c"), witness: []PartitionID{3, 5}},
		"no transition":  {inv: ap("b", "c"), witness: []PartitionID{1, 5}},
		"not violating":  {inv: afby("a", "b"), witness: []PartitionID{1, 3, 4, 2}},
		"not finished":   {inv: afby("a", "b"), witness: []PartitionID{1, 3, 5}},
		"ncwith": {
			inv:     invariants.Invariant{Kind: invariants.NeverConcurrentWith, A: "a", B: "b"},
			witness: []PartitionID{1, 3},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, Replay(g, tt.inv, tt.witness), ErrInvalidWitness)
		})
	}
}
