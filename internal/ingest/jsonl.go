// Package ingest decodes and encodes the raw event stream at the system
// boundary. Two encodings are supported: JSON Lines for interoperability
// with instrumentation tools, and a compact versioned binary form for
// archived traces. Ingestion is pure transport; no interpretation happens
// here.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"faultline/internal/event"
)

// wireEvent is the JSON shape of one event line.
type wireEvent struct {
	ID      int64    `json:"id"`
	Parent  int64    `json:"parent"`
	Kind    string   `json:"kind"`
	Payload string   `json:"payload,omitempty"`
	Stack   []string `json:"stack,omitempty"`
}

// ReadJSONL decodes one event per non-empty line. Arrival order is
// preserved but carries no meaning; the forest builder reorders by id.
func ReadJSONL(r io.Reader) ([]*event.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var events []*event.Event
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var w wireEvent
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return events, nil
}

// WriteJSONL encodes events one JSON object per line.
func WriteJSONL(w io.Writer, events []*event.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, e := range events {
		if err := enc.Encode(toWire(e)); err != nil {
			return fmt.Errorf("encoding event %d: %w", e.ID, err)
		}
	}
	return bw.Flush()
}

func fromWire(w wireEvent) (*event.Event, error) {
	kind, err := event.ParseKind(w.Kind)
	if err != nil {
		return nil, err
	}
	return &event.Event{
		ID:        event.ID(w.ID),
		Parent:    event.ID(w.Parent),
		Kind:      kind,
		Payload:   w.Payload,
		CallStack: w.Stack,
	}, nil
}

func toWire(e *event.Event) wireEvent {
	return wireEvent{
		ID:      int64(e.ID),
		Parent:  int64(e.Parent),
		Kind:    e.Kind.String(),
		Payload: e.Payload,
		Stack:   e.CallStack,
	}
}
