package invariants

import (
	"context"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

type typeSet map[EventType]bool

func (s typeSet) union(o typeSet) {
	for t := range o {
		s[t] = true
	}
}

// WalkMiner traverses each trace DAG once in each direction, carrying the set
// of event types seen so far. It never materializes the occurrence closure.
type WalkMiner struct {
	opts MinerOptions
}

func NewWalkMiner(opts MinerOptions) *WalkMiner {
	return &WalkMiner{opts: opts}
}

func (m *WalkMiner) Name() string {
	return "dag-walk"
}

func (m *WalkMiner) Mine(ctx context.Context, traces *event_trace.TraceSet) (*Set, error) {
	return mine(ctx, m.Name(), traces, m.opts, walkRelations)
}

func walkRelations(set *event_trace.TraceSet, t event_trace.Trace, concurrency bool) traceRelations {
	n := len(t.Occurrences)
	before := make([]typeSet, n)
	after := make([]typeSet, n)

	// Positions are a linear extension of the trace order.
	for i, id := range t.Occurrences {
		before[i] = typeSet{}
		for _, p := range set.Predecessors(id) {
			po := set.Occurrence(p)
			before[i].union(before[po.Index])
			if !event_trace.IsSentinel(po.Type) {
				before[i][po.Type] = true
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		after[i] = typeSet{}
		for _, s := range set.Successors(t.Occurrences[i]) {
			so := set.Occurrence(s)
			after[i].union(after[so.Index])
			if !event_trace.IsSentinel(so.Type) {
				after[i][so.Type] = true
			}
		}
	}

	rels := relationsFromSets(set, t, before, after)
	if concurrency {
		inner := t.Occurrences[1 : n-1]
		for i, a := range inner {
			for _, b := range inner[i+1:] {
				oa, ob := set.Occurrence(a), set.Occurrence(b)
				if oa.Time.Concurrent(ob.Time) {
					rels.concurrent[orderedPair(oa.Type, ob.Type)] = true
				}
			}
		}
	}
	return rels
}

// relationsFromSets derives the per-trace relations from the types seen
// before and after every position.
func relationsFromSets(set *event_trace.TraceSet, t event_trace.Trace, before, after []typeSet) traceRelations {
	rels := newTraceRelations()
	afterByType := make(map[EventType]typeSet)
	beforeByType := make(map[EventType]typeSet)

	for i, id := range t.Occurrences {
		typ := set.Occurrence(id).Type
		if typ == event_trace.Terminal {
			continue
		}
		if typ != event_trace.Initial {
			rels.present[typ] = true
			for b := range after[i] {
				rels.followed[pair{typ, b}] = true
			}
			beforeByType[typ] = intersect(beforeByType[typ], before[i])
		}
		afterByType[typ] = intersect(afterByType[typ], after[i])
	}
	rels.present[event_trace.Initial] = true

	for a, bs := range afterByType {
		for b := range bs {
			rels.alwaysFollowed[pair{a, b}] = true
		}
	}
	for b, as := range beforeByType {
		for a := range as {
			rels.alwaysPreceded[pair{a, b}] = true
		}
	}
	return rels
}

// intersect treats a nil acc as "no occurrence seen yet".
func intersect(acc, s typeSet) typeSet {
	if acc == nil {
		out := make(typeSet, len(s))
		out.union(s)
		return out
	}
	for t := range acc {
		if !s[t] {
			delete(acc, t)
		}
	}
	return acc
}
