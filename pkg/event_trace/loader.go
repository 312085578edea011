package event_trace

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of already-typed traces. JSON documents are
// accepted as well since they are valid YAML.
//
//	traces:
//	  - id: session-1
//	    events: [login, browse, logout]
//	  - events:
//	      - {type: send, time: [1, 0]}
//	      - {type: recv, time: [1, 1]}
type Document struct {
	Traces []TraceDocument `yaml:"traces" json:"traces"`
}

type TraceDocument struct {
	ID     string          `yaml:"id,omitempty" json:"id,omitempty"`
	Events []EventDocument `yaml:"events" json:"events"`
}

type EventDocument struct {
	Type string `yaml:"type" json:"type"`
	Time []int  `yaml:"time,omitempty" json:"time,omitempty"`
}

// UnmarshalYAML accepts either a bare scalar type name or a mapping.
func (e *EventDocument) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Type = node.Value
		return nil
	}
	type plain EventDocument
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = EventDocument(p)
	return nil
}

// LoadFile reads a trace document from disk.
func LoadFile(path string) (*TraceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open traces: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a trace document and builds the TraceSet.
func Decode(r io.Reader) (*TraceSet, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty trace document", ErrInputDefect)
		}
		return nil, fmt.Errorf("%w: decode traces: %v", ErrInputDefect, err)
	}
	return doc.Build()
}

// Build converts the document into a TraceSet.
func (d Document) Build() (*TraceSet, error) {
	b := NewBuilder()
	for _, td := range d.Traces {
		events := make([]Event, 0, len(td.Events))
		for _, ed := range td.Events {
			var vt VectorTime
			if ed.Time != nil {
				vt = VectorTime(append([]int(nil), ed.Time...))
			}
			events = append(events, Event{Type: ed.Type, Time: vt})
		}
		b.AddNamedTrace(td.ID, events...)
	}
	return b.Build()
}
