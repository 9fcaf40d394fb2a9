package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// RawPayload is the decoded Open-Meteo response. Current maps field names to
// scalars; Hourly maps field names to parallel arrays. Both are non-nil after
// ReadPayload, empty when the response omitted the section.
type RawPayload struct {
	Current map[string]any
	Hourly  map[string][]any
}

// ParseError reports a raw payload that could not be decoded or coerced.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse raw payload: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse raw payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadPayload decodes a raw JSON response. Missing or null sections default
// to empty maps; emptiness is left for validation to reject.
func ReadPayload(data []byte) (RawPayload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return RawPayload{}, &ParseError{Err: errors.New("empty payload")}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return RawPayload{}, &ParseError{Err: err}
	}
	if top == nil {
		return RawPayload{}, &ParseError{Err: errors.New("payload is not a JSON object")}
	}

	p := RawPayload{
		Current: map[string]any{},
		Hourly:  map[string][]any{},
	}
	if err := decodeSection(top["current"], "current", &p.Current); err != nil {
		return RawPayload{}, err
	}
	if err := decodeSection(top["hourly"], "hourly", &p.Hourly); err != nil {
		return RawPayload{}, err
	}
	if p.Current == nil {
		p.Current = map[string]any{}
	}
	if p.Hourly == nil {
		p.Hourly = map[string][]any{}
	}
	return p, nil
}

// ReadPayloadFile reads and decodes a raw payload written by the ingest step.
func ReadPayloadFile(path string) (RawPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawPayload{}, fmt.Errorf("read raw payload %s: %w", path, err)
	}
	return ReadPayload(data)
}

func decodeSection(raw json.RawMessage, field string, v any) error {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &ParseError{Field: field, Err: err}
	}
	return nil
}
