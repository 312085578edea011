package bisimulation

import (
	"log/slog"

	"github.com/jtomasevic/synoptic/pkg/partition_graph"
)

// Stage names a point of the inference run at which listeners observe the graph.
type Stage string

const (
	StageInitial   Stage = "initial"
	StageSplit     Stage = "split"
	StageRefined   Stage = "refined"
	StageMerge     Stage = "merge"
	StageRollback  Stage = "rollback"
	StageCoarsened Stage = "coarsened"
)

// StageListener observes the graph after each stage. The graph must not be
// mutated by the listener.
type StageListener interface {
	OnStage(stage Stage, round int, g *partition_graph.Graph)
}

type nopListener struct{}

func (nopListener) OnStage(Stage, int, *partition_graph.Graph) {}

// Options carries the collaborators shared by the engines. Zero values are
// replaced by no-op defaults.
type Options struct {
	Listener StageListener
	Logger   *slog.Logger
	// Log records every applied operation when set.
	Log *partition_graph.OperationLog
}

func (o Options) withDefaults() Options {
	if o.Listener == nil {
		o.Listener = nopListener{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Log == nil {
		o.Log = partition_graph.NewOperationLog()
	}
	return o
}
