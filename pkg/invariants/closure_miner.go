package invariants

import (
	"context"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

// TransitiveClosureMiner materializes the reachability closure of every trace
// and reads the relations off it. Simple, but quadratic in trace length.
type TransitiveClosureMiner struct {
	opts MinerOptions
}

func NewTransitiveClosureMiner(opts MinerOptions) *TransitiveClosureMiner {
	return &TransitiveClosureMiner{opts: opts}
}

func (m *TransitiveClosureMiner) Name() string {
	return "transitive-closure"
}

func (m *TransitiveClosureMiner) Mine(ctx context.Context, traces *event_trace.TraceSet) (*Set, error) {
	return mine(ctx, m.Name(), traces, m.opts, closureRelations)
}

func closureRelations(set *event_trace.TraceSet, t event_trace.Trace, concurrency bool) traceRelations {
	reach := closure(set, t)
	n := len(t.Occurrences)

	before := make([]typeSet, n)
	after := make([]typeSet, n)
	for i := range t.Occurrences {
		before[i] = typeSet{}
		after[i] = typeSet{}
	}
	for i, from := range t.Occurrences {
		for j, to := range t.Occurrences {
			if !reach[i][j] {
				continue
			}
			if tt := set.Occurrence(to).Type; !event_trace.IsSentinel(tt) {
				after[i][tt] = true
			}
			if tf := set.Occurrence(from).Type; !event_trace.IsSentinel(tf) {
				before[j][tf] = true
			}
		}
	}

	rels := relationsFromSets(set, t, before, after)
	if concurrency {
		for i, a := range t.Occurrences {
			for j := i + 1; j < n; j++ {
				b := t.Occurrences[j]
				ta, tb := set.Occurrence(a).Type, set.Occurrence(b).Type
				if event_trace.IsSentinel(ta) || event_trace.IsSentinel(tb) {
					continue
				}
				if !reach[i][j] && !reach[j][i] {
					rels.concurrent[orderedPair(ta, tb)] = true
				}
			}
		}
	}
	return rels
}

// closure returns reach[i][j] == true when occurrence j is strictly after
// occurrence i, indexed by position in the trace.
func closure(set *event_trace.TraceSet, t event_trace.Trace) [][]bool {
	n := len(t.Occurrences)
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
	}

	// Positions are a linear extension, so walking backwards lets every node
	// union the already complete rows of its successors.
	for i := n - 1; i >= 0; i-- {
		for _, s := range set.Successors(t.Occurrences[i]) {
			j := set.Occurrence(s).Index
			reach[i][j] = true
			for k := 0; k < n; k++ {
				if reach[j][k] {
					reach[i][k] = true
				}
			}
		}
	}
	return reach
}
