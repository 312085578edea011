package partition_graph

import (
	"fmt"
	"strings"
)

// Operation is a reversible graph mutation: *Split, *Merge or *Sequence.
// Applying an operation returns its exact inverse.
type Operation interface {
	fmt.Stringer
	isOperation()
}

// SplitPart is one resulting partition of a Split. A zero ID asks the graph
// to allocate a fresh one.
type SplitPart struct {
	ID          PartitionID
	Occurrences []OccurrenceID
}

// Split replaces Partition by one partition per part. The first part keeps
// the original id.
type Split struct {
	Partition PartitionID
	Parts     []SplitPart
}

// Merge moves every occurrence of From into Into and retires From.
type Merge struct {
	Into PartitionID
	From PartitionID
}

// Sequence applies Ops in order, rolling back the applied prefix on failure.
type Sequence struct {
	Ops []Operation
}

func (*Split) isOperation()    {}
func (*Merge) isOperation()    {}
func (*Sequence) isOperation() {}

func (s *Split) String() string {
	sizes := make([]string, 0, len(s.Parts))
	for _, p := range s.Parts {
		sizes = append(sizes, fmt.Sprintf("%d", len(p.Occurrences)))
	}
	return fmt.Sprintf("split(%d -> [%s])", s.Partition, strings.Join(sizes, ","))
}

func (m *Merge) String() string {
	return fmt.Sprintf("merge(%d <- %d)", m.Into, m.From)
}

func (s *Sequence) String() string {
	parts := make([]string, 0, len(s.Ops))
	for _, op := range s.Ops {
		parts = append(parts, op.String())
	}
	return "sequence[" + strings.Join(parts, "; ") + "]"
}

// NewSplit separates the given occurrences of a partition from the rest.
// The retained part comes first and keeps the partition id.
func NewSplit(id PartitionID, retained, carved []OccurrenceID) *Split {
	return &Split{
		Partition: id,
		Parts: []SplitPart{
			{ID: id, Occurrences: retained},
			{Occurrences: carved},
		},
	}
}

// Apply performs op and returns its inverse. On error the graph is unchanged.
func (g *Graph) Apply(op Operation) (Operation, error) {
	var (
		inverse Operation
		err     error
	)
	switch o := op.(type) {
	case *Split:
		inverse, err = g.applySplit(o)
	case *Merge:
		inverse, err = g.applyMerge(o)
	case *Sequence:
		inverse, err = g.applySequence(o)
	default:
		return nil, fmt.Errorf("%w: unknown operation %T", ErrPrecondition, op)
	}
	if err != nil {
		return nil, err
	}
	if g.extraChecks {
		if verr := g.Validate(); verr != nil {
			return nil, fmt.Errorf("after %s: %w", op, verr)
		}
	}
	return inverse, nil
}

func (g *Graph) applySplit(s *Split) (Operation, error) {
	if err := g.checkSplit(s); err != nil {
		return nil, err
	}

	// Fresh ids must not collide with ids requested by later parts.
	for _, part := range s.Parts {
		if part.ID >= g.nextID {
			g.nextID = part.ID + 1
		}
	}

	original := g.partitions[s.Partition]
	kept := newPartition(s.Partition, original.typ)
	g.partitions[s.Partition] = kept

	touched := []PartitionID{s.Partition}
	merges := make([]Operation, 0, len(s.Parts)-1)
	for i, part := range s.Parts {
		target := kept
		if i > 0 {
			id := part.ID
			if id == 0 {
				id = g.nextID
				g.nextID++
			}
			target = newPartition(id, original.typ)
			g.partitions[id] = target
			touched = append(touched, id)
			merges = append(merges, &Merge{Into: s.Partition, From: id})
		}
		for _, o := range part.Occurrences {
			target.occurrences[o] = struct{}{}
			g.owner[o] = target.id
		}
	}

	g.rebuild(touched...)
	if len(merges) == 1 {
		return merges[0], nil
	}
	return &Sequence{Ops: merges}, nil
}

func (g *Graph) checkSplit(s *Split) error {
	p, ok := g.partitions[s.Partition]
	if !ok {
		return fmt.Errorf("%w: %s: partition %d not found", ErrPrecondition, s, s.Partition)
	}
	if g.IsSentinel(s.Partition) {
		return fmt.Errorf("%w: %s: cannot split sentinel partition %q", ErrPrecondition, s, p.typ)
	}
	if len(s.Parts) < 2 {
		return fmt.Errorf("%w: %s: need at least two parts", ErrPrecondition, s)
	}

	seen := make(map[OccurrenceID]struct{}, p.Size())
	ids := make(map[PartitionID]struct{}, len(s.Parts))
	for i, part := range s.Parts {
		if len(part.Occurrences) == 0 {
			return fmt.Errorf("%w: %s: part %d is empty", ErrPrecondition, s, i)
		}
		if i == 0 && part.ID != 0 && part.ID != s.Partition {
			return fmt.Errorf("%w: %s: first part must keep id %d, got %d", ErrPrecondition, s, s.Partition, part.ID)
		}
		if i > 0 && part.ID != 0 {
			if _, exists := g.partitions[part.ID]; exists {
				return fmt.Errorf("%w: %s: partition id %d already in use", ErrPrecondition, s, part.ID)
			}
			if _, dup := ids[part.ID]; dup || part.ID < 0 {
				return fmt.Errorf("%w: %s: invalid part id %d", ErrPrecondition, s, part.ID)
			}
			ids[part.ID] = struct{}{}
		}
		for _, o := range part.Occurrences {
			if !p.Contains(o) {
				return fmt.Errorf("%w: %s: occurrence %d is not in partition %d", ErrPrecondition, s, o, s.Partition)
			}
			if _, dup := seen[o]; dup {
				return fmt.Errorf("%w: %s: occurrence %d assigned twice", ErrPrecondition, s, o)
			}
			seen[o] = struct{}{}
		}
	}
	if len(seen) != p.Size() {
		return fmt.Errorf("%w: %s: %d of %d occurrences assigned", ErrPrecondition, s, len(seen), p.Size())
	}
	return nil
}

func (g *Graph) applyMerge(m *Merge) (Operation, error) {
	if err := g.checkMerge(m); err != nil {
		return nil, err
	}

	into, from := g.partitions[m.Into], g.partitions[m.From]
	inverse := &Split{
		Partition: m.Into,
		Parts: []SplitPart{
			{ID: m.Into, Occurrences: into.Occurrences()},
			{ID: m.From, Occurrences: from.Occurrences()},
		},
	}

	g.detach(m.From)
	for o := range from.occurrences {
		into.occurrences[o] = struct{}{}
		g.owner[o] = m.Into
	}
	g.rebuild(m.Into)
	return inverse, nil
}

func (g *Graph) checkMerge(m *Merge) error {
	into, ok := g.partitions[m.Into]
	if !ok {
		return fmt.Errorf("%w: %s: partition %d not found", ErrPrecondition, m, m.Into)
	}
	from, ok := g.partitions[m.From]
	if !ok {
		return fmt.Errorf("%w: %s: partition %d not found", ErrPrecondition, m, m.From)
	}
	if m.Into == m.From {
		return fmt.Errorf("%w: %s: cannot merge a partition with itself", ErrPrecondition, m)
	}
	if g.IsSentinel(m.Into) || g.IsSentinel(m.From) {
		return fmt.Errorf("%w: %s: cannot merge sentinel partitions", ErrPrecondition, m)
	}
	if into.typ != from.typ {
		return fmt.Errorf("%w: %s: different event types %q and %q", ErrPrecondition, m, into.typ, from.typ)
	}
	return nil
}

func (g *Graph) applySequence(s *Sequence) (Operation, error) {
	inverses := make([]Operation, 0, len(s.Ops))
	for i, op := range s.Ops {
		inv, err := g.Apply(op)
		if err != nil {
			for j := len(inverses) - 1; j >= 0; j-- {
				if _, rerr := g.Apply(inverses[j]); rerr != nil {
					return nil, fmt.Errorf("%w: rollback of %s failed: %v (after step %d: %v)",
						ErrCorrupted, inverses[j], rerr, i, err)
				}
			}
			return nil, fmt.Errorf("%s step %d: %w", s, i, err)
		}
		inverses = append(inverses, inv)
	}

	rewind := make([]Operation, 0, len(inverses))
	for i := len(inverses) - 1; i >= 0; i-- {
		rewind = append(rewind, inverses[i])
	}
	return &Sequence{Ops: rewind}, nil
}
