package synoptic

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jtomasevic/synoptic/pkg/event_trace"
	"github.com/jtomasevic/synoptic/pkg/invariants"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded(cfg Config, seed int64) Config {
	cfg.RandomSeed = &seed
	return cfg
}

func buildTraces(t *testing.T, traces ...[]event_trace.EventType) *event_trace.TraceSet {
	t.Helper()
	b := event_trace.NewBuilder()
	for _, tr := range traces {
		b.AddSequence(tr...)
	}
	set, err := b.Build()
	require.NoError(t, err)
	return set
}

func twoOrders(t *testing.T) *event_trace.TraceSet {
	return buildTraces(t,
		[]event_trace.EventType{"a", "b", "c"},
		[]event_trace.EventType{"a", "c", "b"},
	)
}

func newPipeline(t *testing.T, cfg Config, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return p
}

func inv(kind invariants.Kind, a, b event_trace.EventType) invariants.Invariant {
	return invariants.Invariant{Kind: kind, A: a, B: b}
}
