package partition_graph

import (
	"sort"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

// Graph is the mutable model under construction. It is the exclusive owner
// of partitions and transitions; both change only through Apply.
//
// Transitions are never stored independently of the occurrences: P -> Q exists
// iff some occurrence of P has an immediate trace successor in Q. After every
// mutation only the transitions around the touched partitions are rebuilt.
//
// Graph is not safe for concurrent use.
type Graph struct {
	traces     *event_trace.TraceSet
	partitions map[PartitionID]*Partition
	owner      []PartitionID

	out map[PartitionID]map[PartitionID]*Transition
	in  map[PartitionID]map[PartitionID]struct{}

	initial  PartitionID
	terminal PartitionID
	nextID   PartitionID

	extraChecks bool
}

// New builds the initial coarse partitioning: INITIAL, TERMINAL and one
// partition per distinct event type, in that id order.
func New(traces *event_trace.TraceSet) *Graph {
	g := &Graph{
		traces:     traces,
		partitions: make(map[PartitionID]*Partition),
		owner:      make([]PartitionID, traces.Len()),
		out:        make(map[PartitionID]map[PartitionID]*Transition),
		in:         make(map[PartitionID]map[PartitionID]struct{}),
		nextID:     1,
	}

	byType := make(map[EventType]PartitionID)
	g.initial = g.allocate(event_trace.Initial)
	g.terminal = g.allocate(event_trace.Terminal)
	byType[event_trace.Initial] = g.initial
	byType[event_trace.Terminal] = g.terminal
	for _, t := range traces.Types() {
		byType[t] = g.allocate(t)
	}

	for o := 0; o < traces.Len(); o++ {
		id := byType[traces.Occurrence(o).Type]
		g.partitions[id].occurrences[o] = struct{}{}
		g.owner[o] = id
	}
	for id := range g.partitions {
		g.recomputeOut(id)
	}
	return g
}

// SetExtraChecks enables full structural validation after every operation.
func (g *Graph) SetExtraChecks(enabled bool) {
	g.extraChecks = enabled
}

func (g *Graph) allocate(typ EventType) PartitionID {
	id := g.nextID
	g.nextID++
	g.partitions[id] = newPartition(id, typ)
	return id
}

func (g *Graph) Traces() *event_trace.TraceSet {
	return g.traces
}

func (g *Graph) Initial() PartitionID {
	return g.initial
}

func (g *Graph) Terminal() PartitionID {
	return g.terminal
}

// Size is the number of partitions, sentinels included.
func (g *Graph) Size() int {
	return len(g.partitions)
}

func (g *Graph) Partition(id PartitionID) (*Partition, bool) {
	p, ok := g.partitions[id]
	return p, ok
}

// Label returns the event type of a partition, or "" when it does not exist.
func (g *Graph) Label(id PartitionID) EventType {
	if p, ok := g.partitions[id]; ok {
		return p.typ
	}
	return ""
}

// PartitionOf returns the partition currently owning an occurrence.
func (g *Graph) PartitionOf(o OccurrenceID) PartitionID {
	return g.owner[o]
}

// IsSentinel reports whether id is the INITIAL or TERMINAL partition.
func (g *Graph) IsSentinel(id PartitionID) bool {
	return id == g.initial || id == g.terminal
}

// Partitions returns all partition ids, ascending.
func (g *Graph) Partitions() []PartitionID {
	out := make([]PartitionID, 0, len(g.partitions))
	for id := range g.partitions {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

// PartitionsOfType returns the ids of the partitions labelled t, ascending.
func (g *Graph) PartitionsOfType(t EventType) []PartitionID {
	var out []PartitionID
	for id, p := range g.partitions {
		if p.typ == t {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

// Successors returns the targets of the outgoing transitions, ascending.
func (g *Graph) Successors(id PartitionID) []PartitionID {
	out := make([]PartitionID, 0, len(g.out[id]))
	for to := range g.out[id] {
		out = append(out, to)
	}
	sortIDs(out)
	return out
}

// Predecessors returns the sources of the incoming transitions, ascending.
func (g *Graph) Predecessors(id PartitionID) []PartitionID {
	out := make([]PartitionID, 0, len(g.in[id]))
	for from := range g.in[id] {
		out = append(out, from)
	}
	sortIDs(out)
	return out
}

func (g *Graph) Transition(from, to PartitionID) (Transition, bool) {
	tr, ok := g.out[from][to]
	if !ok {
		return Transition{}, false
	}
	return copyTransition(tr), true
}

// Transitions returns the outgoing transitions of a partition ordered by target.
func (g *Graph) Transitions(from PartitionID) []Transition {
	out := make([]Transition, 0, len(g.out[from]))
	for _, to := range g.Successors(from) {
		out = append(out, copyTransition(g.out[from][to]))
	}
	return out
}

// AllTransitions returns every transition ordered by (From, To).
func (g *Graph) AllTransitions() []Transition {
	var out []Transition
	for _, from := range g.Partitions() {
		out = append(out, g.Transitions(from)...)
	}
	return out
}

func copyTransition(tr *Transition) Transition {
	c := *tr
	c.Traces = append([]TraceID(nil), tr.Traces...)
	return c
}

// recomputeOut rebuilds the outgoing transitions of one partition from the
// trace adjacency of its occurrences.
func (g *Graph) recomputeOut(id PartitionID) {
	for to := range g.out[id] {
		delete(g.in[to], id)
	}
	p, ok := g.partitions[id]
	if !ok {
		delete(g.out, id)
		return
	}

	fresh := make(map[PartitionID]*Transition)
	traceSeen := make(map[PartitionID]map[TraceID]struct{})
	for o := range p.occurrences {
		tid := g.traces.Occurrence(o).Trace
		for _, s := range g.traces.Successors(o) {
			to := g.owner[s]
			tr, ok := fresh[to]
			if !ok {
				tr = &Transition{From: id, To: to}
				fresh[to] = tr
				traceSeen[to] = make(map[TraceID]struct{})
			}
			tr.Weight++
			if _, seen := traceSeen[to][tid]; !seen {
				traceSeen[to][tid] = struct{}{}
				tr.Traces = append(tr.Traces, tid)
			}
		}
	}

	for to, tr := range fresh {
		sort.Ints(tr.Traces)
		if g.in[to] == nil {
			g.in[to] = make(map[PartitionID]struct{})
		}
		g.in[to][id] = struct{}{}
	}
	g.out[id] = fresh
}

// rebuild refreshes every transition that can involve the given partitions:
// their own outgoing edges and the outgoing edges of their trace predecessors.
func (g *Graph) rebuild(ids ...PartitionID) {
	touched := make(map[PartitionID]struct{})
	for _, id := range ids {
		p, ok := g.partitions[id]
		if !ok {
			continue
		}
		touched[id] = struct{}{}
		for o := range p.occurrences {
			for _, q := range g.traces.Predecessors(o) {
				touched[g.owner[q]] = struct{}{}
			}
		}
	}
	for id := range touched {
		g.recomputeOut(id)
	}
}

// detach removes a retired partition and all its edges.
func (g *Graph) detach(id PartitionID) {
	for to := range g.out[id] {
		delete(g.in[to], id)
	}
	delete(g.out, id)
	for from := range g.in[id] {
		delete(g.out[from], id)
	}
	delete(g.in, id)
	delete(g.partitions, id)
}

func sortIDs(ids []PartitionID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
