package bisimulation

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtomasevic/synoptic/pkg/checker"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

var tracer = otel.Tracer("synoptic.bisimulation")

type State int

const (
	Checking State = iota
	Splitting
	Done
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Splitting:
		return "splitting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Refiner splits partitions until every path invariant holds on the graph.
//
// Splits only remove paths, so an invariant that holds keeps holding: the
// pending list is walked once, in mining order, and an invariant is left only
// when the checker stops finding a counterexample for it.
type Refiner struct {
	g       *partition_graph.Graph
	checker checker.Checker
	pending []invariants.Invariant
	opts    Options

	state  State
	splits int
}

func NewRefiner(g *partition_graph.Graph, c checker.Checker, set *invariants.Set, opts Options) *Refiner {
	return &Refiner{
		g:       g,
		checker: c,
		pending: set.PathInvariants(),
		opts:    opts.withDefaults(),
		state:   Checking,
	}
}

func (r *Refiner) State() State {
	return r.state
}

// Splits is the number of splits applied so far.
func (r *Refiner) Splits() int {
	return r.splits
}

func (r *Refiner) Refine(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "bisimulation.Refine",
		trace.WithAttributes(
			attribute.String("checker", r.checker.Name()),
			attribute.Int("invariants", len(r.pending)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("splits", r.splits))
		span.End()
	}()

	for i := 0; i < len(r.pending); {
		if err := ctx.Err(); err != nil {
			return err
		}
		inv := r.pending[i]

		r.state = Checking
		res, err := r.checker.Check(r.g, inv)
		if err != nil {
			return fmt.Errorf("refine: %w", err)
		}
		if res.Holds {
			i++
			continue
		}

		r.state = Splitting
		split, err := chooseSplit(r.g, inv, res.Witness)
		if err != nil {
			return err
		}
		if _, err := r.opts.Log.Apply(r.g, split); err != nil {
			return fmt.Errorf("refine %s: %w", inv, err)
		}
		r.splits++
		r.opts.Logger.Debug("partition split",
			slog.String("stage", string(StageSplit)),
			slog.String("invariant", inv.String()),
			slog.Int("partition", int(split.Partition)),
			slog.Int("round", r.splits),
		)
		r.opts.Listener.OnStage(StageSplit, r.splits, r.g)
	}

	r.state = Done
	r.opts.Listener.OnStage(StageRefined, r.splits, r.g)
	return nil
}

// chooseSplit follows the witness through the traces. S(0) is every INITIAL
// occurrence and S(i) the trace successors of S(i-1) owned by witness[i].
// At the first empty S(i), witness[i-1] is split into the occurrences with a
// successor in witness[i] and the rest, which removes the edge from the
// partition holding S(i-1).
func chooseSplit(g *partition_graph.Graph, inv invariants.Invariant, witness []partition_graph.PartitionID) (*partition_graph.Split, error) {
	traces := g.Traces()
	first, ok := g.Partition(witness[0])
	if !ok {
		return nil, fmt.Errorf("%w: witness starts at unknown partition %d", partition_graph.ErrPrecondition, witness[0])
	}
	cur := first.Occurrences()

	for i := 1; i < len(witness); i++ {
		var next []partition_graph.OccurrenceID
		seen := make(map[partition_graph.OccurrenceID]struct{})
		for _, o := range cur {
			for _, s := range traces.Successors(o) {
				if g.PartitionOf(s) != witness[i] {
					continue
				}
				if _, dup := seen[s]; !dup {
					seen[s] = struct{}{}
					next = append(next, s)
				}
			}
		}
		if len(next) > 0 {
			cur = next
			continue
		}

		prev, _ := g.Partition(witness[i-1])
		var retained, carved []partition_graph.OccurrenceID
		for _, o := range prev.Occurrences() {
			if hasSuccessorIn(g, o, witness[i]) {
				carved = append(carved, o)
			} else {
				retained = append(retained, o)
			}
		}
		return partition_graph.NewSplit(prev.ID(), retained, carved), nil
	}

	o := cur[0]
	return nil, fmt.Errorf("%w: %s: witness %v is followed by trace %d",
		ErrUnrealizableSplit, inv, witness, traces.Occurrence(o).Trace)
}

func hasSuccessorIn(g *partition_graph.Graph, o partition_graph.OccurrenceID, id partition_graph.PartitionID) bool {
	for _, s := range g.Traces().Successors(o) {
		if g.PartitionOf(s) == id {
			return true
		}
	}
	return false
}
