package synoptic

import (
	"log/slog"
	"sync"

	"github.com/jtomasevic/synoptic/pkg/bisimulation"
	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

type (
	Stage         = bisimulation.Stage
	StageListener = bisimulation.StageListener
)

const (
	StageInitial   = bisimulation.StageInitial
	StageSplit     = bisimulation.StageSplit
	StageRefined   = bisimulation.StageRefined
	StageMerge     = bisimulation.StageMerge
	StageRollback  = bisimulation.StageRollback
	StageCoarsened = bisimulation.StageCoarsened
)

// StageListenerFunc adapts a function to StageListener.
type StageListenerFunc func(stage Stage, round int, g *partition_graph.Graph)

func (f StageListenerFunc) OnStage(stage Stage, round int, g *partition_graph.Graph) {
	f(stage, round, g)
}

// CompositeStageListener forwards every stage to all registered listeners
// in registration order.
type CompositeStageListener struct {
	mu        sync.Mutex
	listeners []StageListener
}

func NewCompositeStageListener(listeners ...StageListener) *CompositeStageListener {
	l := &CompositeStageListener{}
	for _, x := range listeners {
		l.Add(x)
	}
	return l
}

func (l *CompositeStageListener) Add(listener StageListener) {
	if listener == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, listener)
}

func (l *CompositeStageListener) OnStage(stage Stage, round int, g *partition_graph.Graph) {
	l.mu.Lock()
	listeners := make([]StageListener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, x := range listeners {
		x.OnStage(stage, round, g)
	}
}

// LoggingListener logs the graph fingerprint of the coarse-grained stages.
type LoggingListener struct {
	Logger *slog.Logger
}

func (l LoggingListener) OnStage(stage Stage, round int, g *partition_graph.Graph) {
	switch stage {
	case StageSplit, StageMerge, StageRollback:
		return
	}
	l.Logger.Info("stage complete",
		slog.String("stage", string(stage)),
		slog.Int("round", round),
		slog.String("graph", g.Snapshot().Fingerprint()),
	)
}
