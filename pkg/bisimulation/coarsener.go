package bisimulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtomasevic/synoptic/pkg/checker"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

type candidate struct {
	into, from partition_graph.PartitionID
	size       int
}

// Coarsener greedily merges same-type partitions while every path invariant
// keeps holding. A merge that breaks an invariant is undone and its pair is
// never tried again: merging only adds paths, so a pair that failed once
// fails on any coarser graph too.
type Coarsener struct {
	g          *partition_graph.Graph
	checker    checker.Checker
	invs       []invariants.Invariant
	opts       Options
	rng        *rand.Rand
	ineligible map[[2]partition_graph.PartitionID]struct{}

	merges    int
	rollbacks int
}

func NewCoarsener(g *partition_graph.Graph, c checker.Checker, set *invariants.Set, seed uint64, opts Options) *Coarsener {
	return &Coarsener{
		g:          g,
		checker:    c,
		invs:       set.PathInvariants(),
		opts:       opts.withDefaults(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ineligible: make(map[[2]partition_graph.PartitionID]struct{}),
	}
}

// Merges is the number of merges kept so far.
func (c *Coarsener) Merges() int {
	return c.merges
}

// Rollbacks is the number of merges undone because an invariant broke.
func (c *Coarsener) Rollbacks() int {
	return c.rollbacks
}

func (c *Coarsener) Coarsen(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "bisimulation.Coarsen",
		trace.WithAttributes(
			attribute.String("checker", c.checker.Name()),
			attribute.Int("partitions", c.g.Size()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.Int("merges", c.merges),
			attribute.Int("rollbacks", c.rollbacks),
		)
		span.End()
	}()

	for {
		merged, err := c.round(ctx)
		if err != nil {
			return err
		}
		if !merged {
			break
		}
	}
	c.opts.Listener.OnStage(StageCoarsened, c.merges, c.g)
	return nil
}

// round tries candidates in priority order until one merge sticks.
func (c *Coarsener) round(ctx context.Context) (bool, error) {
	for _, cand := range c.candidates() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		merge := &partition_graph.Merge{Into: cand.into, From: cand.from}
		if _, err := c.opts.Log.Apply(c.g, merge); err != nil {
			return false, fmt.Errorf("coarsen: %w", err)
		}

		broken, err := c.firstViolated()
		if err != nil {
			return false, err
		}
		if broken == nil {
			c.merges++
			c.opts.Logger.Debug("partitions merged",
				slog.String("stage", string(StageMerge)),
				slog.Int("partition", int(cand.into)),
				slog.Int("round", c.merges),
			)
			c.opts.Listener.OnStage(StageMerge, c.merges, c.g)
			return true, nil
		}

		if err := c.opts.Log.Undo(c.g); err != nil {
			return false, fmt.Errorf("coarsen: rollback %s: %w", merge, err)
		}
		c.rollbacks++
		c.ineligible[[2]partition_graph.PartitionID{cand.into, cand.from}] = struct{}{}
		c.opts.Logger.Debug("merge rolled back",
			slog.String("stage", string(StageRollback)),
			slog.String("invariant", broken.String()),
			slog.Int("partition", int(cand.into)),
		)
		c.opts.Listener.OnStage(StageRollback, c.rollbacks, c.g)
	}
	return false, nil
}

func (c *Coarsener) firstViolated() (*invariants.Invariant, error) {
	for _, inv := range c.invs {
		res, err := c.checker.Check(c.g, inv)
		if err != nil {
			return nil, fmt.Errorf("coarsen: %w", err)
		}
		if !res.Holds {
			return &inv, nil
		}
	}
	return nil, nil
}

// candidates lists the eligible same-type pairs, largest combined size first.
// Equal sizes are ordered by the seeded shuffle.
func (c *Coarsener) candidates() []candidate {
	byType := make(map[partition_graph.EventType][]*partition_graph.Partition)
	var types []partition_graph.EventType
	for _, id := range c.g.Partitions() {
		if c.g.IsSentinel(id) {
			continue
		}
		p, _ := c.g.Partition(id)
		if _, ok := byType[p.Type()]; !ok {
			types = append(types, p.Type())
		}
		byType[p.Type()] = append(byType[p.Type()], p)
	}
	sort.Strings(types)

	var out []candidate
	for _, t := range types {
		ps := byType[t]
		for i := range ps {
			for j := i + 1; j < len(ps); j++ {
				key := [2]partition_graph.PartitionID{ps[i].ID(), ps[j].ID()}
				if _, skip := c.ineligible[key]; skip {
					continue
				}
				out = append(out, candidate{
					into: ps[i].ID(),
					from: ps[j].ID(),
					size: ps[i].Size() + ps[j].Size(),
				})
			}
		}
	}

	c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	sort.SliceStable(out, func(i, j int) bool { return out[i].size > out[j].size })
	return out
}
