package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"faultline/internal/event"
)

// Bump when the binary payload shape changes; loads of other versions fail
// instead of misreading.
const binarySchemaVersion uint16 = 1

// binaryPayload is the archived form of one complete trace.
type binaryPayload struct {
	Schema uint16

	IDs      []int64
	Parents  []int64
	Kinds    []int8
	Payloads []string
	Stacks   [][]string
}

// WriteBinary archives a trace to a compact msgpack file.
func WriteBinary(path string, events []*event.Event) error {
	p := binaryPayload{Schema: binarySchemaVersion}
	for _, e := range events {
		p.IDs = append(p.IDs, int64(e.ID))
		p.Parents = append(p.Parents, int64(e.Parent))
		p.Kinds = append(p.Kinds, int8(e.Kind))
		p.Payloads = append(p.Payloads, e.Payload)
		p.Stacks = append(p.Stacks, e.CallStack)
	}
	data, err := msgpack.Marshal(&p)
	if err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadBinary loads a trace archived by WriteBinary.
func ReadBinary(path string) ([]*event.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p binaryPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding trace %s: %w", path, err)
	}
	if p.Schema != binarySchemaVersion {
		return nil, fmt.Errorf("trace %s has schema %d, want %d", path, p.Schema, binarySchemaVersion)
	}
	if len(p.Parents) != len(p.IDs) || len(p.Kinds) != len(p.IDs) ||
		len(p.Payloads) != len(p.IDs) || len(p.Stacks) != len(p.IDs) {
		return nil, fmt.Errorf("trace %s is truncated", path)
	}

	events := make([]*event.Event, 0, len(p.IDs))
	for i := range p.IDs {
		events = append(events, &event.Event{
			ID:        event.ID(p.IDs[i]),
			Parent:    event.ID(p.Parents[i]),
			Kind:      event.Kind(p.Kinds[i]),
			Payload:   p.Payloads[i],
			CallStack: p.Stacks[i],
		})
	}
	return events, nil
}

// ReadFile loads a trace by extension: ".jsonl" and ".ndjson" decode as
// JSON Lines, anything else as the binary form.
func ReadFile(path string) ([]*event.Event, error) {
	switch filepath.Ext(path) {
	case ".jsonl", ".ndjson":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadJSONL(f)
	default:
		return ReadBinary(path)
	}
}
