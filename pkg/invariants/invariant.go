package invariants

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

type EventType = event_trace.EventType

// Kind is the temporal relation an Invariant asserts between two event types.
// The declaration order is the mining order.
type Kind int

const (
	// AlwaysFollowedBy: every A is eventually followed by some B.
	AlwaysFollowedBy Kind = iota
	// NeverFollowedBy: no A is ever followed by a B.
	NeverFollowedBy
	// AlwaysPrecedes: every B is preceded by some A.
	AlwaysPrecedes
	// NeverConcurrentWith: no A is concurrent with a B (partially ordered traces).
	NeverConcurrentWith
)

func (k Kind) String() string {
	switch k {
	case AlwaysFollowedBy:
		return "AlwaysFollowedBy"
	case NeverFollowedBy:
		return "NeverFollowedBy"
	case AlwaysPrecedes:
		return "AlwaysPrecedes"
	case NeverConcurrentWith:
		return "NeverConcurrentWith"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Short returns the abbreviated relation name used in dumps.
func (k Kind) Short() string {
	switch k {
	case AlwaysFollowedBy:
		return "AFby"
	case NeverFollowedBy:
		return "NFby"
	case AlwaysPrecedes:
		return "AP"
	case NeverConcurrentWith:
		return "NCwith"
	}
	return k.String()
}

// PathChecked reports whether the relation is a property of single paths and
// therefore checkable against a partition graph.
func (k Kind) PathChecked() bool {
	return k != NeverConcurrentWith
}

// ParseKind accepts both the long and the abbreviated relation names.
func ParseKind(s string) (Kind, error) {
	for k := AlwaysFollowedBy; k <= NeverConcurrentWith; k++ {
		if strings.EqualFold(s, k.String()) || strings.EqualFold(s, k.Short()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown invariant kind: %s", s)
}

// Invariant is an immutable binary temporal relation over event types.
type Invariant struct {
	Kind Kind
	A    EventType
	B    EventType
}

func (i Invariant) String() string {
	return fmt.Sprintf("%s %s %s", i.A, i.Kind.Short(), i.B)
}

func less(x, y Invariant) bool {
	if x.Kind != y.Kind {
		return x.Kind < y.Kind
	}
	if x.A != y.A {
		return x.A < y.A
	}
	return x.B < y.B
}

// Set is an immutable collection of invariants kept in mining order.
type Set struct {
	items []Invariant
	index map[Invariant]struct{}
}

func NewSet(invs ...Invariant) *Set {
	s := &Set{index: make(map[Invariant]struct{}, len(invs))}
	for _, inv := range invs {
		if _, ok := s.index[inv]; ok {
			continue
		}
		s.index[inv] = struct{}{}
		s.items = append(s.items, inv)
	}
	sort.Slice(s.items, func(i, j int) bool { return less(s.items[i], s.items[j]) })
	return s
}

// All returns the invariants in mining order.
func (s *Set) All() []Invariant {
	return append([]Invariant(nil), s.items...)
}

// PathInvariants returns the invariants a graph checker can decide, in mining order.
func (s *Set) PathInvariants() []Invariant {
	out := make([]Invariant, 0, len(s.items))
	for _, inv := range s.items {
		if inv.Kind.PathChecked() {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Set) Len() int {
	return len(s.items)
}

func (s *Set) Contains(inv Invariant) bool {
	_, ok := s.index[inv]
	return ok
}

// CountByKind returns how many invariants of each kind were mined.
func (s *Set) CountByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, inv := range s.items {
		out[inv.Kind]++
	}
	return out
}

func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Validate fails when two mutually exclusive invariants are both present.
// For observed types neither pair can hold together, so a hit is a miner defect.
func (s *Set) Validate() error {
	for _, inv := range s.items {
		if inv.Kind != NeverFollowedBy {
			continue
		}
		if s.Contains(Invariant{Kind: AlwaysFollowedBy, A: inv.A, B: inv.B}) {
			return fmt.Errorf("%w: %s contradicts %s", ErrContradiction,
				Invariant{Kind: AlwaysFollowedBy, A: inv.A, B: inv.B}, inv)
		}
		if s.Contains(Invariant{Kind: AlwaysPrecedes, A: inv.A, B: inv.B}) {
			return fmt.Errorf("%w: %s contradicts %s", ErrContradiction,
				Invariant{Kind: AlwaysPrecedes, A: inv.A, B: inv.B}, inv)
		}
	}
	return nil
}
