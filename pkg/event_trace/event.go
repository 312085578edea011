package event_trace

type EventType = string
type TraceID = int
type OccurrenceID = int

const (
	// Initial labels the synthetic occurrence that starts every trace.
	Initial EventType = "INITIAL"
	// Terminal labels the synthetic occurrence that ends every trace.
	Terminal EventType = "TERMINAL"
)

// IsSentinel reports whether t is one of the synthetic INITIAL/TERMINAL labels.
func IsSentinel(t EventType) bool {
	return t == Initial || t == Terminal
}

// VectorTime orders occurrences of a partially ordered trace.
// A nil VectorTime means the trace is totally ordered by index.
type VectorTime []int

// Less reports whether v happened strictly before o.
func (v VectorTime) Less(o VectorTime) bool {
	if len(v) != len(o) {
		return false
	}
	strict := false
	for i := range v {
		if v[i] > o[i] {
			return false
		}
		if v[i] < o[i] {
			strict = true
		}
	}
	return strict
}

// Concurrent reports whether neither time precedes the other.
func (v VectorTime) Concurrent(o VectorTime) bool {
	return !v.Less(o) && !o.Less(v)
}

func (v VectorTime) sum() int {
	s := 0
	for _, x := range v {
		s += x
	}
	return s
}

// Event is one typed input record handed over by the parser.
type Event struct {
	Type EventType
	Time VectorTime
}

// Occurrence is one concrete, immutable instance of an EventType in a trace.
type Occurrence struct {
	ID    OccurrenceID
	Type  EventType
	Trace TraceID
	// Index is the position inside the trace. For partially ordered traces the
	// indices form a linear extension of the vector-time order.
	Index int
	Time  VectorTime
}

// Trace is an immutable observed execution bounded by INITIAL and TERMINAL.
type Trace struct {
	ID TraceID
	// Name is the id given in the input document, empty when none was given.
	Name        string
	Occurrences []OccurrenceID
}

// Initial returns the start sentinel of the trace.
func (t Trace) Initial() OccurrenceID {
	return t.Occurrences[0]
}

// Terminal returns the end sentinel of the trace.
func (t Trace) Terminal() OccurrenceID {
	return t.Occurrences[len(t.Occurrences)-1]
}
