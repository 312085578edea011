package event_trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_YAMLScalarsAndMappings(t *testing.T) {
	doc := `
traces:
  - events: [login, browse, logout]
  - events:
      - type: login
      - {type: logout}
`
	set, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, set.Traces(), 2)
	require.Equal(t, []EventType{"browse", "login", "logout"}, set.Types())
	require.Len(t, set.Traces()[0].Occurrences, 5)
	require.Len(t, set.Traces()[1].Occurrences, 4)
}

func TestDecode_TraceIDs(t *testing.T) {
	doc := `
traces:
  - id: session-1
    events: [login, logout]
  - events: [login]
`
	set, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "session-1", set.Traces()[0].Name)
	require.Empty(t, set.Traces()[1].Name)

	tr, ok := set.TraceByName("session-1")
	require.True(t, ok)
	require.Equal(t, 0, tr.ID)
	_, ok = set.TraceByName("")
	require.False(t, ok)

	_, err = Decode(strings.NewReader("traces:\n  - {id: x, events: [a]}\n  - {id: x, events: [b]}\n"))
	require.ErrorIs(t, err, ErrInputDefect)
}

func TestDecode_JSONWithVectorTimes(t *testing.T) {
	doc := `{"traces": [{"events": [{"type": "send", "time": [1, 0]}, {"type": "recv", "time": [1, 1]}]}]}`
	set, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.True(t, set.PartiallyOrdered())
}

func TestDecode_Defects(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, ErrInputDefect)

	_, err = Decode(strings.NewReader("traces: {"))
	require.ErrorIs(t, err, ErrInputDefect)

	_, err = Decode(strings.NewReader("traces: []"))
	require.ErrorIs(t, err, ErrInputDefect)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.yaml")
	require.NoError(t, os.WriteFile(path, []byte("traces:\n  - events: [a, b]\n"), 0o644))

	set, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []EventType{"a", "b"}, set.Types())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
