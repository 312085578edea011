package checker

import (
	"github.com/jtomasevic/synoptic/pkg/invariants"
)

// LTLChecker encodes the negated invariant as an existential temporal formula
// and decides it by fixpoint labelling of the reachable partitions. The
// witness is read off the until-ranks, nearest goal first.
type LTLChecker struct{}

func NewLTLChecker() *LTLChecker {
	return &LTLChecker{}
}

func (*LTLChecker) Name() string {
	return "ltl"
}

func (c *LTLChecker) Check(m Model, inv invariants.Invariant) (Result, error) {
	if !inv.Kind.PathChecked() {
		return Result{Holds: true}, nil
	}
	f, ok := violation(inv)
	if !ok {
		return Result{}, unknownKind(inv)
	}

	l := newLabelling(m)
	root := l.index[m.Initial()]
	if !l.eval(f)[root] {
		return Result{Holds: true}, nil
	}
	w := l.ids(l.path(f, root))
	if err := checkBound(m, inv, w); err != nil {
		return Result{}, err
	}
	return Result{Holds: false, Witness: w}, nil
}
