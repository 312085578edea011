package checker

import (
	"fmt"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
)

// formula is an existential branching-time formula over partition labels.
type formula interface {
	fmt.Stringer
}

type (
	top   struct{}
	atom  struct{ t EventType }
	not   struct{ f formula }
	and   struct{ l, r formula }
	ex    struct{ f formula }
	// eu is E[hold U goal].
	eu struct{ hold, goal formula }
)

func (top) String() string     { return "true" }
func (a atom) String() string  { return a.t }
func (n not) String() string   { return "!" + n.f.String() }
func (a and) String() string   { return "(" + a.l.String() + " & " + a.r.String() + ")" }
func (e ex) String() string    { return "EX " + e.f.String() }
func (e eu) String() string    { return "E[" + e.hold.String() + " U " + e.goal.String() + "]" }

// violation returns the formula that holds at INITIAL iff inv is violated
// on some path.
func violation(inv invariants.Invariant) (formula, bool) {
	a, b := atom{inv.A}, atom{inv.B}
	terminal := atom{event_trace.Terminal}
	switch inv.Kind {
	case invariants.AlwaysFollowedBy:
		// some a after which no b occurs up to TERMINAL
		return eu{top{}, and{a, ex{eu{not{b}, terminal}}}}, true
	case invariants.NeverFollowedBy:
		return eu{top{}, and{a, ex{eu{top{}, b}}}}, true
	case invariants.AlwaysPrecedes:
		// a b reached without an earlier a
		return eu{not{a}, b}, true
	}
	return nil, false
}

const unreachable = -1

// labelling evaluates formulas over the partitions reachable from INITIAL.
// Satisfaction sets are memoised per formula; eu formulas also keep the
// rank of every node, the distance to the nearest goal node.
type labelling struct {
	m     Model
	nodes []PartitionID
	index map[PartitionID]int
	succ  [][]int
	sat   map[formula][]bool
	ranks map[formula][]int
}

func newLabelling(m Model) *labelling {
	l := &labelling{
		m:     m,
		index: make(map[PartitionID]int),
		sat:   make(map[formula][]bool),
		ranks: make(map[formula][]int),
	}
	queue := []PartitionID{m.Initial()}
	l.index[m.Initial()] = 0
	l.nodes = append(l.nodes, m.Initial())
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range m.Successors(cur) {
			if _, ok := l.index[next]; ok {
				continue
			}
			l.index[next] = len(l.nodes)
			l.nodes = append(l.nodes, next)
			queue = append(queue, next)
		}
	}
	// succ keeps the ascending order of Model.Successors
	l.succ = make([][]int, len(l.nodes))
	for i, id := range l.nodes {
		for _, next := range m.Successors(id) {
			l.succ[i] = append(l.succ[i], l.index[next])
		}
	}
	return l
}

func (l *labelling) eval(f formula) []bool {
	if s, ok := l.sat[f]; ok {
		return s
	}
	out := make([]bool, len(l.nodes))
	switch g := f.(type) {
	case top:
		for i := range out {
			out[i] = true
		}
	case atom:
		for i, id := range l.nodes {
			out[i] = l.m.Label(id) == g.t
		}
	case not:
		inner := l.eval(g.f)
		for i := range out {
			out[i] = !inner[i]
		}
	case and:
		left, right := l.eval(g.l), l.eval(g.r)
		for i := range out {
			out[i] = left[i] && right[i]
		}
	case ex:
		inner := l.eval(g.f)
		for i := range out {
			for _, s := range l.succ[i] {
				if inner[s] {
					out[i] = true
					break
				}
			}
		}
	case eu:
		rank := l.rank(g)
		for i := range out {
			out[i] = rank[i] != unreachable
		}
	}
	l.sat[f] = out
	return out
}

// rank computes the least fixpoint of E[hold U goal] level by level.
func (l *labelling) rank(f eu) []int {
	if r, ok := l.ranks[f]; ok {
		return r
	}
	hold, goal := l.eval(f.hold), l.eval(f.goal)
	rank := make([]int, len(l.nodes))
	for i := range rank {
		rank[i] = unreachable
		if goal[i] {
			rank[i] = 0
		}
	}
	for level := 0; ; level++ {
		changed := false
		for i := range rank {
			if rank[i] != unreachable || !hold[i] {
				continue
			}
			for _, s := range l.succ[i] {
				if rank[s] == level {
					rank[i] = level + 1
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}
	l.ranks[f] = rank
	return rank
}

// path returns a path starting at node i that demonstrates f. f must hold at i.
func (l *labelling) path(f formula, i int) []int {
	switch g := f.(type) {
	case and:
		left, right := l.path(g.l, i), l.path(g.r, i)
		if len(right) > len(left) {
			return right
		}
		return left
	case ex:
		inner := l.eval(g.f)
		for _, s := range l.succ[i] {
			if inner[s] {
				return append([]int{i}, l.path(g.f, s)...)
			}
		}
	case eu:
		rank := l.rank(g)
		out := []int{i}
		// a node of rank k > 0 always has a successor of rank k-1
		for cur := i; rank[cur] > 0; {
			for _, s := range l.succ[cur] {
				if rank[s] == rank[cur]-1 {
					cur = s
					break
				}
			}
			out = append(out, cur)
		}
		goal := l.path(g.goal, out[len(out)-1])
		return append(out, goal[1:]...)
	}
	return []int{i}
}

func (l *labelling) ids(path []int) []PartitionID {
	out := make([]PartitionID, len(path))
	for k, i := range path {
		out[k] = l.nodes[i]
	}
	return out
}
