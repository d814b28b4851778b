package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/deckmirror/internal/canonical"
	"github.com/roach88/deckmirror/internal/engine"
)

// Run is one dispatcher session.
type Run struct {
	ID    string
	Label string
}

// Activity is one journaled task execution.
type Activity struct {
	ID     int64
	RunID  string
	Seq    int64
	Kind   string
	Owner  string
	Status engine.Status
	// Detail is the canonical JSON encoding of the task's detail map.
	Detail string
	Error  string
}

// DetailMap decodes Detail. Numbers are returned as json.Number.
func (a Activity) DetailMap() (map[string]any, error) {
	return unmarshalDetail(a.Detail)
}

// ActivityFromRecord converts a dispatcher record for storage.
func ActivityFromRecord(runID string, r engine.Record) (Activity, error) {
	detail, err := marshalDetail(r.Detail)
	if err != nil {
		return Activity{}, err
	}
	return Activity{
		RunID:  runID,
		Seq:    r.Seq,
		Kind:   r.Kind,
		Owner:  r.Owner,
		Status: r.Status,
		Detail: detail,
		Error:  r.Error,
	}, nil
}

// marshalDetail converts a task detail map to canonical JSON TEXT.
func marshalDetail(detail map[string]any) (string, error) {
	if len(detail) == 0 {
		return "{}", nil
	}
	data, err := canonical.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(data), nil
}

// unmarshalDetail parses detail TEXT. json.Number keeps integer seq-like
// values exact.
func unmarshalDetail(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return m, nil
}
