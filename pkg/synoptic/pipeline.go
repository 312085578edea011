package synoptic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jtomasevic/synoptic/pkg/bisimulation"
	"github.com/jtomasevic/synoptic/pkg/checker"
	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

var tracer = otel.Tracer("synoptic.pipeline")

// Result is the outcome of one inference run. Graph is nil when only
// invariants were mined.
type Result struct {
	RunID             string
	Seed              int64
	Invariants        *invariants.Set
	Graph             *partition_graph.Graph
	InitialPartitions int
	Splits            int
	Merges            int
	Rollbacks         int
}

// Pipeline runs mining, refinement and coarsening over a trace set.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	registry prometheus.Registerer
	metrics  *Metrics
	listener *CompositeStageListener
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithRegisterer registers the pipeline metrics on reg instead of a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Pipeline) {
		p.registry = reg
	}
}

// WithListener adds a stage listener. It may be given more than once.
func WithListener(l StageListener) Option {
	return func(p *Pipeline) {
		p.listener.Add(l)
	}
}

func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:      cfg,
		logger:   slog.Default(),
		listener: NewCompositeStageListener(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(p.registry)
	if err != nil {
		return nil, err
	}
	p.metrics = metrics
	p.listener.Add(p.metrics)
	p.listener.Add(LoggingListener{Logger: p.logger})
	return p, nil
}

func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

func (p *Pipeline) miner() invariants.Miner {
	opts := invariants.MinerOptions{
		MineNeverConcurrentWith: p.cfg.MineNeverConcurrentWithInv,
		Parallelism:             p.cfg.MiningParallelism,
	}
	if p.cfg.UseTransitiveClosureMining {
		return invariants.NewTransitiveClosureMiner(opts)
	}
	return invariants.NewWalkMiner(opts)
}

func (p *Pipeline) checker() checker.Checker {
	if p.cfg.UseFSMChecker {
		return checker.NewFSMChecker()
	}
	return checker.NewLTLChecker()
}

// Mine runs only the invariant miner.
func (p *Pipeline) Mine(ctx context.Context, traces *event_trace.TraceSet) (*invariants.Set, error) {
	m := p.miner()
	set, err := m.Mine(ctx, traces)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordInvariants(set)
	return set, nil
}

func (p *Pipeline) Run(ctx context.Context, traces *event_trace.TraceSet) (res *Result, err error) {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))

	ctx, span := tracer.Start(ctx, "synoptic.Run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("traces", len(traces.Traces())),
			attribute.Bool("partially_ordered", traces.PartiallyOrdered()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("inference failed", slog.String("error", err.Error()))
		}
		span.End()
	}()

	set, err := p.Mine(ctx, traces)
	if err != nil {
		return nil, err
	}
	logger.Info("invariants mined",
		slog.String("stage", "mine"),
		slog.String("miner", p.miner().Name()),
		slog.Int("invariants", set.Len()),
	)
	res = &Result{RunID: runID, Invariants: set}
	if p.cfg.OnlyMineInvariants {
		return res, nil
	}

	g := partition_graph.New(traces)
	g.SetExtraChecks(p.cfg.PerformExtraChecks)
	res.Graph = g
	res.InitialPartitions = g.Size()
	p.listener.OnStage(StageInitial, 0, g)

	if traces.PartiallyOrdered() {
		logger.Warn("partially ordered traces: refinement and coarsening skipped",
			slog.Int("partitions", g.Size()),
		)
		return res, nil
	}

	chk := p.checker()
	opts := bisimulation.Options{Listener: p.listener, Logger: logger}

	if !p.cfg.NoRefinement {
		r := bisimulation.NewRefiner(g, chk, set, opts)
		if err := r.Refine(ctx); err != nil {
			return res, fmt.Errorf("run %s: %w", runID, err)
		}
		res.Splits = r.Splits()
		if p.cfg.PerformExtraChecks {
			if err := verify(g, chk, set); err != nil {
				return res, fmt.Errorf("run %s: after refinement: %w", runID, err)
			}
		}
	}

	if !p.cfg.NoRefinement && !p.cfg.NoCoarsening {
		res.Seed = p.cfg.Seed()
		c := bisimulation.NewCoarsener(g, chk, set, uint64(res.Seed), opts)
		if err := c.Coarsen(ctx); err != nil {
			return res, fmt.Errorf("run %s: %w", runID, err)
		}
		res.Merges = c.Merges()
		res.Rollbacks = c.Rollbacks()
	}

	if p.cfg.PerformExtraChecks {
		if err := g.Validate(); err != nil {
			return res, fmt.Errorf("run %s: %w", runID, err)
		}
	}

	span.SetAttributes(
		attribute.Int("partitions", g.Size()),
		attribute.Int("splits", res.Splits),
		attribute.Int("merges", res.Merges),
	)
	logger.Info("model inferred",
		slog.Int("initial_partitions", res.InitialPartitions),
		slog.Int("partitions", g.Size()),
		slog.Int("splits", res.Splits),
		slog.Int("merges", res.Merges),
		slog.Int("rollbacks", res.Rollbacks),
	)
	return res, nil
}

// verify re-checks every path invariant against the refined graph.
func verify(g *partition_graph.Graph, chk checker.Checker, set *invariants.Set) error {
	for _, inv := range set.PathInvariants() {
		r, err := chk.Check(g, inv)
		if err != nil {
			return err
		}
		if !r.Holds {
			return fmt.Errorf("%w: %s still violated by %v", partition_graph.ErrCorrupted, inv, r.Witness)
		}
	}
	return nil
}
