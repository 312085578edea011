package event_trace

import "fmt"

// TraceSet is the immutable arena of all parsed traces.
//
// Occurrence ids are dense, so per-occurrence facts are plain slices indexed by id.
// Immediate-successor facts are computed once at build time:
//   - totally ordered traces: consecutive indices
//   - partially ordered traces: the covering relation of the vector-time order,
//     INITIAL before every minimal occurrence and every maximal occurrence before TERMINAL
type TraceSet struct {
	traces      []Trace
	occurrences []Occurrence
	succ        [][]OccurrenceID
	pred        [][]OccurrenceID
	types       []EventType
	partial     bool
	byName      map[string]TraceID
}

func (s *TraceSet) Traces() []Trace {
	return s.traces
}

func (s *TraceSet) Trace(id TraceID) (Trace, error) {
	if id < 0 || id >= len(s.traces) {
		return Trace{}, fmt.Errorf("%w: trace not found: %d", ErrInputDefect, id)
	}
	return s.traces[id], nil
}

// TraceByName looks a trace up by the id it carried in the input document.
func (s *TraceSet) TraceByName(name string) (Trace, bool) {
	id, ok := s.byName[name]
	if !ok {
		return Trace{}, false
	}
	return s.traces[id], true
}

func (s *TraceSet) Occurrence(id OccurrenceID) Occurrence {
	return s.occurrences[id]
}

// Len is the total number of occurrences, sentinels included.
func (s *TraceSet) Len() int {
	return len(s.occurrences)
}

// Successors returns the immediate successors of an occurrence in its trace.
func (s *TraceSet) Successors(id OccurrenceID) []OccurrenceID {
	return s.succ[id]
}

// Predecessors returns the immediate predecessors of an occurrence in its trace.
func (s *TraceSet) Predecessors(id OccurrenceID) []OccurrenceID {
	return s.pred[id]
}

// Types returns the distinct non-sentinel event types, sorted.
func (s *TraceSet) Types() []EventType {
	return s.types
}

// PartiallyOrdered reports whether the traces carry vector timestamps.
func (s *TraceSet) PartiallyOrdered() bool {
	return s.partial
}

// Before reports whether occurrence a precedes b in their common trace.
// Occurrences of different traces are unordered.
func (s *TraceSet) Before(a, b OccurrenceID) bool {
	oa, ob := s.occurrences[a], s.occurrences[b]
	if oa.Trace != ob.Trace || a == b {
		return false
	}
	if oa.Type == Initial || ob.Type == Terminal {
		return true
	}
	if oa.Type == Terminal || ob.Type == Initial {
		return false
	}
	if !s.partial {
		return oa.Index < ob.Index
	}
	return oa.Time.Less(ob.Time)
}
