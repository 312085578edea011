package partition_graph

import "fmt"

// LogEntry pairs an applied operation with the inverse it returned.
type LogEntry struct {
	Op      Operation
	Inverse Operation
}

// OperationLog records applied operations so they can be undone exactly.
type OperationLog struct {
	entries []LogEntry
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

// Apply applies op to g and records it on success.
func (l *OperationLog) Apply(g *Graph, op Operation) (Operation, error) {
	inverse, err := g.Apply(op)
	if err != nil {
		return nil, err
	}
	l.entries = append(l.entries, LogEntry{Op: op, Inverse: inverse})
	return inverse, nil
}

func (l *OperationLog) Len() int {
	return len(l.entries)
}

func (l *OperationLog) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

// Undo reverts the most recent operation.
func (l *OperationLog) Undo(g *Graph) error {
	if len(l.entries) == 0 {
		return fmt.Errorf("%w: operation log is empty", ErrPrecondition)
	}
	last := l.entries[len(l.entries)-1]
	if _, err := g.Apply(last.Inverse); err != nil {
		return fmt.Errorf("undo %s: %w", last.Op, err)
	}
	l.entries = l.entries[:len(l.entries)-1]
	return nil
}

// Rewind reverts every recorded operation, newest first.
func (l *OperationLog) Rewind(g *Graph) error {
	for len(l.entries) > 0 {
		if err := l.Undo(g); err != nil {
			return err
		}
	}
	return nil
}
