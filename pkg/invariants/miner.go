package invariants

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
)

var tracer = otel.Tracer("synoptic.invariants")

// Miner derives the invariants that hold in every trace of a TraceSet.
type Miner interface {
	Mine(ctx context.Context, traces *event_trace.TraceSet) (*Set, error)
	Name() string
}

type MinerOptions struct {
	// MineNeverConcurrentWith enables NCwith mining. It only has an effect
	// on partially ordered trace sets.
	MineNeverConcurrentWith bool
	// Parallelism bounds the number of traces analysed at once; <= 0 means unbounded.
	Parallelism int
}

type pair struct {
	a, b EventType
}

// traceRelations are the per-trace facts both strategies reduce to. Keys only
// involve types present in the trace; absence means the relation is false.
type traceRelations struct {
	present map[EventType]bool
	// followed[a,b]: some a has a later b.
	followed map[pair]bool
	// alwaysFollowed[a,b]: every a has a later b. INITIAL is a valid a.
	alwaysFollowed map[pair]bool
	// alwaysPreceded[a,b]: every b has an earlier a.
	alwaysPreceded map[pair]bool
	// concurrent[a,b] with a <= b: some a and b are concurrent.
	concurrent map[pair]bool
}

func newTraceRelations() traceRelations {
	return traceRelations{
		present:        make(map[EventType]bool),
		followed:       make(map[pair]bool),
		alwaysFollowed: make(map[pair]bool),
		alwaysPreceded: make(map[pair]bool),
		concurrent:     make(map[pair]bool),
	}
}

func orderedPair(a, b EventType) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// relationFunc computes the relations of a single trace.
type relationFunc func(set *event_trace.TraceSet, t event_trace.Trace, concurrency bool) traceRelations

// mine runs rel over every trace, in parallel when allowed, then intersects
// the results. Per-trace slots keep the reduction independent of scheduling.
func mine(ctx context.Context, name string, traces *event_trace.TraceSet, opts MinerOptions, rel relationFunc) (*Set, error) {
	ctx, span := tracer.Start(ctx, "invariants.Mine",
		trace.WithAttributes(
			attribute.String("strategy", name),
			attribute.Int("traces", len(traces.Traces())),
		),
	)
	defer span.End()

	concurrency := opts.MineNeverConcurrentWith && traces.PartiallyOrdered()
	all := traces.Traces()
	rels := make([]traceRelations, len(all))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, t := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rels[i] = rel(traces, t, concurrency)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("mine %s: %w", name, err)
	}

	set := combine(traces.Types(), rels, concurrency)
	if err := set.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("invariants", set.Len()))
	slog.Debug("invariants mined",
		slog.String("strategy", name),
		slog.Int("traces", len(all)),
		slog.Int("invariants", set.Len()),
	)
	return set, nil
}

// combine keeps only the relations that hold in every trace. Relations whose
// source type is absent from a trace hold vacuously there.
func combine(types []EventType, rels []traceRelations, concurrency bool) *Set {
	var out []Invariant

	sources := append([]EventType{event_trace.Initial}, types...)
	for _, a := range sources {
		for _, b := range types {
			if holdsEverywhere(rels, func(r traceRelations) bool {
				return !r.present[a] || r.alwaysFollowed[pair{a, b}]
			}) {
				out = append(out, Invariant{Kind: AlwaysFollowedBy, A: a, B: b})
			}
		}
	}

	for _, a := range types {
		for _, b := range types {
			if holdsEverywhere(rels, func(r traceRelations) bool {
				return !r.followed[pair{a, b}]
			}) {
				out = append(out, Invariant{Kind: NeverFollowedBy, A: a, B: b})
			}
			if holdsEverywhere(rels, func(r traceRelations) bool {
				return !r.present[b] || r.alwaysPreceded[pair{a, b}]
			}) {
				out = append(out, Invariant{Kind: AlwaysPrecedes, A: a, B: b})
			}
		}
	}

	if concurrency {
		for i, a := range types {
			for _, b := range types[i+1:] {
				if holdsEverywhere(rels, func(r traceRelations) bool {
					return !r.concurrent[pair{a, b}]
				}) {
					out = append(out, Invariant{Kind: NeverConcurrentWith, A: a, B: b})
				}
			}
		}
	}
	return NewSet(out...)
}

func holdsEverywhere(rels []traceRelations, holds func(traceRelations) bool) bool {
	for _, r := range rels {
		if !holds(r) {
			return false
		}
	}
	return true
}
