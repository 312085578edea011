package synoptic

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jtomasevic/synoptic/pkg/bisimulation"
	"github.com/jtomasevic/synoptic/pkg/invariants"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

const metricsNamespace = "synoptic"

// Metrics are registered on the registerer handed to the pipeline, never on
// the global default registry.
type Metrics struct {
	// InvariantsMined counts mined invariants. Labels: kind (AFby, NFby, AP, NCwith)
	InvariantsMined *prometheus.CounterVec
	Splits          prometheus.Counter
	Merges          prometheus.Counter
	// MergeRollbacks counts merges undone because an invariant broke.
	MergeRollbacks prometheus.Counter
	// Partitions is the partition count of the graph at the last stage.
	Partitions prometheus.Gauge
}

// NewMetrics registers the pipeline collectors on reg. Collectors already
// registered by an earlier pipeline on the same registerer are shared.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		InvariantsMined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invariants_mined_total",
			Help:      "Total mined invariants by kind",
		}, []string{"kind"}),
		Splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "splits_total",
			Help:      "Total partition splits applied during refinement",
		}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merges_total",
			Help:      "Total partition merges kept during coarsening",
		}),
		MergeRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merge_rollbacks_total",
			Help:      "Total merges rolled back because an invariant was violated",
		}),
		Partitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "partitions",
			Help:      "Partitions in the graph after the last stage",
		}),
	}

	var err error
	if m.InvariantsMined, err = register(reg, m.InvariantsMined); err != nil {
		return nil, err
	}
	if m.Splits, err = register(reg, m.Splits); err != nil {
		return nil, err
	}
	if m.Merges, err = register(reg, m.Merges); err != nil {
		return nil, err
	}
	if m.MergeRollbacks, err = register(reg, m.MergeRollbacks); err != nil {
		return nil, err
	}
	if m.Partitions, err = register(reg, m.Partitions); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register metrics: %w", err)
}

func (m *Metrics) RecordInvariants(set *invariants.Set) {
	for kind, n := range set.CountByKind() {
		m.InvariantsMined.WithLabelValues(kind.Short()).Add(float64(n))
	}
}

// OnStage makes Metrics a StageListener.
func (m *Metrics) OnStage(stage Stage, _ int, g *partition_graph.Graph) {
	switch stage {
	case bisimulation.StageSplit:
		m.Splits.Inc()
	case bisimulation.StageMerge:
		m.Merges.Inc()
	case bisimulation.StageRollback:
		m.MergeRollbacks.Inc()
	}
	m.Partitions.Set(float64(g.Size()))
}
