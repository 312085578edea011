package checker

import (
	"fmt"

	"github.com/jtomasevic/synoptic/pkg/invariants"
)

// FSMChecker runs a breadth-first search over the product of the model and a
// small recognizer for the negated invariant. Successors are visited in
// ascending id order, so the witness is the shortest one and, among those,
// the lexicographically first.
type FSMChecker struct{}

func NewFSMChecker() *FSMChecker {
	return &FSMChecker{}
}

func (*FSMChecker) Name() string {
	return "fsm"
}

type productNode struct {
	id PartitionID
	s  state
}

func (c *FSMChecker) Check(m Model, inv invariants.Invariant) (Result, error) {
	if !inv.Kind.PathChecked() {
		return Result{Holds: true}, nil
	}
	r, ok := newRecognizer(inv)
	if !ok {
		return Result{}, unknownKind(inv)
	}

	root := productNode{id: m.Initial(), s: r.step(start, m.Label(m.Initial()))}
	parent := map[productNode]productNode{root: root}
	queue := []productNode{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if r.accepting(cur.s, m.Label(cur.id)) {
			w := unwind(parent, root, cur)
			if err := checkBound(m, inv, w); err != nil {
				return Result{}, err
			}
			return Result{Holds: false, Witness: w}, nil
		}
		for _, next := range m.Successors(cur.id) {
			n := productNode{id: next, s: r.step(cur.s, m.Label(next))}
			if _, seen := parent[n]; seen {
				continue
			}
			parent[n] = cur
			queue = append(queue, n)
		}
		if len(parent) > witnessBound(m) {
			return Result{}, fmt.Errorf("%w: %s: product has more than %d nodes", ErrWitnessBound, inv, witnessBound(m))
		}
	}
	return Result{Holds: true}, nil
}

func unwind(parent map[productNode]productNode, root, end productNode) []PartitionID {
	var rev []PartitionID
	for n := end; ; n = parent[n] {
		rev = append(rev, n.id)
		if n == root {
			break
		}
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}
