package event_trace

import (
	"fmt"
	"sort"
)

// Builder collects typed traces and freezes them into a TraceSet.
type Builder struct {
	traces [][]Event
	names  []string
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddTrace appends one trace. Events without Time are totally ordered by
// position; events with Time are ordered by their vector timestamps.
func (b *Builder) AddTrace(events ...Event) TraceID {
	return b.AddNamedTrace("", events...)
}

// AddNamedTrace appends one trace under a caller supplied name. Non-empty
// names must be unique within the set.
func (b *Builder) AddNamedTrace(name string, events ...Event) TraceID {
	b.traces = append(b.traces, append([]Event(nil), events...))
	b.names = append(b.names, name)
	return len(b.traces) - 1
}

// AddSequence appends a totally ordered trace of the given types.
func (b *Builder) AddSequence(types ...EventType) TraceID {
	events := make([]Event, 0, len(types))
	for _, t := range types {
		events = append(events, Event{Type: t})
	}
	return b.AddTrace(events...)
}

// Build validates the collected traces and returns the immutable TraceSet.
func (b *Builder) Build() (*TraceSet, error) {
	if len(b.traces) == 0 {
		return nil, fmt.Errorf("%w: no traces", ErrInputDefect)
	}

	partial, err := b.orderKind()
	if err != nil {
		return nil, err
	}

	set := &TraceSet{partial: partial, byName: make(map[string]TraceID)}
	seenTypes := make(map[EventType]struct{})

	for tid, events := range b.traces {
		if err := validateEvents(tid, events, partial); err != nil {
			return nil, err
		}
		ordered := events
		if partial {
			ordered = linearize(events)
		}

		name := b.names[tid]
		if name != "" {
			if prev, dup := set.byName[name]; dup {
				return nil, fmt.Errorf("%w: trace %d reuses id %q of trace %d", ErrInputDefect, tid, name, prev)
			}
			set.byName[name] = tid
		}

		trace := Trace{ID: tid, Name: name}
		add := func(ev Event) OccurrenceID {
			id := len(set.occurrences)
			set.occurrences = append(set.occurrences, Occurrence{
				ID:    id,
				Type:  ev.Type,
				Trace: tid,
				Index: len(trace.Occurrences),
				Time:  ev.Time,
			})
			set.succ = append(set.succ, nil)
			set.pred = append(set.pred, nil)
			trace.Occurrences = append(trace.Occurrences, id)
			return id
		}

		add(Event{Type: Initial})
		for _, ev := range ordered {
			add(ev)
			seenTypes[ev.Type] = struct{}{}
		}
		add(Event{Type: Terminal})

		set.traces = append(set.traces, trace)
		if partial {
			set.linkPartial(trace)
		} else {
			set.linkTotal(trace)
		}
	}

	set.types = make([]EventType, 0, len(seenTypes))
	for t := range seenTypes {
		set.types = append(set.types, t)
	}
	sort.Strings(set.types)
	return set, nil
}

// orderKind decides whether the trace set is partially ordered. Mixing
// timestamped and untimestamped events is a defect.
func (b *Builder) orderKind() (bool, error) {
	timed, untimed := 0, 0
	for _, events := range b.traces {
		for _, ev := range events {
			if ev.Time == nil {
				untimed++
			} else {
				timed++
			}
		}
	}
	if timed > 0 && untimed > 0 {
		return false, fmt.Errorf("%w: mixed totally and partially ordered events (%d timed, %d untimed)",
			ErrInputDefect, timed, untimed)
	}
	return timed > 0, nil
}

func validateEvents(tid TraceID, events []Event, partial bool) error {
	dim := -1
	for i, ev := range events {
		if ev.Type == "" {
			return fmt.Errorf("%w: trace %d event %d has an empty type", ErrInputDefect, tid, i)
		}
		if IsSentinel(ev.Type) {
			return fmt.Errorf("%w: trace %d event %d uses reserved type %q", ErrInputDefect, tid, i, ev.Type)
		}
		if !partial {
			continue
		}
		if dim == -1 {
			dim = len(ev.Time)
		}
		if len(ev.Time) != dim || dim == 0 {
			return fmt.Errorf("%w: trace %d event %d has vector time of dimension %d, want %d",
				ErrInputDefect, tid, i, len(ev.Time), dim)
		}
		for j := 0; j < i; j++ {
			if equalTimes(events[j].Time, ev.Time) {
				return fmt.Errorf("%w: trace %d events %d and %d share vector time %v",
					ErrInputDefect, tid, j, i, ev.Time)
			}
		}
	}
	return nil
}

// linearize sorts events into a linear extension of the vector-time order.
func linearize(events []Event) []Event {
	out := append([]Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Time.sum(), out[j].Time.sum()
		if si != sj {
			return si < sj
		}
		return lexLess(out[i].Time, out[j].Time)
	})
	return out
}

func (s *TraceSet) linkTotal(t Trace) {
	for i := 0; i+1 < len(t.Occurrences); i++ {
		s.link(t.Occurrences[i], t.Occurrences[i+1])
	}
}

func (s *TraceSet) linkPartial(t Trace) {
	inner := t.Occurrences[1 : len(t.Occurrences)-1]
	hasPred := make(map[OccurrenceID]bool)
	hasSucc := make(map[OccurrenceID]bool)

	for _, u := range inner {
		for _, v := range inner {
			if !s.covers(inner, u, v) {
				continue
			}
			s.link(u, v)
			hasSucc[u] = true
			hasPred[v] = true
		}
	}
	for _, o := range inner {
		if !hasPred[o] {
			s.link(t.Initial(), o)
		}
	}
	for _, o := range inner {
		if !hasSucc[o] {
			s.link(o, t.Terminal())
		}
	}
	if len(inner) == 0 {
		s.link(t.Initial(), t.Terminal())
	}
}

// covers reports whether v is an immediate successor of u.
func (s *TraceSet) covers(inner []OccurrenceID, u, v OccurrenceID) bool {
	tu, tv := s.occurrences[u].Time, s.occurrences[v].Time
	if !tu.Less(tv) {
		return false
	}
	for _, w := range inner {
		tw := s.occurrences[w].Time
		if tu.Less(tw) && tw.Less(tv) {
			return false
		}
	}
	return true
}

func (s *TraceSet) link(from, to OccurrenceID) {
	s.succ[from] = append(s.succ[from], to)
	s.pred[to] = append(s.pred[to], from)
}

func equalTimes(a, b VectorTime) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func lexLess(a, b VectorTime) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
