package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamps arrive either as RFC 3339 or as offset-less ISO 8601 (UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// fields decodes one JSON object key by key and keeps the first failure.
type fields struct {
	record string
	raw    map[string]json.RawMessage
	err    *ValidationError
}

func decodeObject(record string, data []byte) (*fields, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, invalid(record, "", "expected JSON object")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Record: record, Reason: "malformed JSON", Err: err}
	}
	return &fields{record: record, raw: raw}, nil
}

func (f *fields) fail(key, reason string) {
	if f.err == nil {
		f.err = invalid(f.record, key, reason)
	}
}

// lookup returns the raw value for key; absent and null are both reported as
// missing when required is set.
func (f *fields) lookup(key string, required bool) (json.RawMessage, bool) {
	if f.err != nil {
		return nil, false
	}
	v, ok := f.raw[key]
	if !ok || bytes.Equal(v, []byte("null")) {
		if required {
			f.fail(key, "missing required field")
		}
		return nil, false
	}
	return v, true
}

func (f *fields) str(key string) string {
	v, ok := f.lookup(key, true)
	if !ok {
		return ""
	}
	var s string
	if v[0] != '"' || json.Unmarshal(v, &s) != nil {
		f.fail(key, "expected string")
		return ""
	}
	return s
}

func (f *fields) object(key string) map[string]any {
	v, ok := f.lookup(key, true)
	if !ok {
		return nil
	}
	var m map[string]any
	if v[0] != '{' || json.Unmarshal(v, &m) != nil {
		f.fail(key, "expected JSON object")
		return nil
	}
	return m
}

func (f *fields) integer(key string) int {
	v, ok := f.lookup(key, true)
	if !ok {
		return 0
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var n any
	if err := dec.Decode(&n); err != nil {
		f.fail(key, "expected integer")
		return 0
	}
	num, isNum := n.(json.Number)
	if !isNum {
		f.fail(key, "expected integer")
		return 0
	}
	i, err := num.Int64()
	if err != nil {
		f.fail(key, fmt.Sprintf("expected integer, got %s", num.String()))
		return 0
	}
	return int(i)
}

func (f *fields) timestamp(key string) time.Time {
	v, ok := f.lookup(key, true)
	if !ok {
		return time.Time{}
	}
	return f.parseTime(key, v)
}

func (f *fields) optionalTimestamp(key string) *time.Time {
	v, ok := f.lookup(key, false)
	if !ok {
		return nil
	}
	t := f.parseTime(key, v)
	if f.err != nil {
		return nil
	}
	return &t
}

func (f *fields) parseTime(key string, v json.RawMessage) time.Time {
	var s string
	if v[0] != '"' || json.Unmarshal(v, &s) != nil {
		f.fail(key, "expected timestamp string")
		return time.Time{}
	}
	t, err := parseTimestamp(s)
	if err != nil {
		f.fail(key, fmt.Sprintf("invalid timestamp %q", s))
		return time.Time{}
	}
	return t
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// decodeList decodes a JSON array element by element, preserving order.
func decodeList[T any](record string, data []byte, one func([]byte) (T, error)) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, invalid(record, "", "expected JSON array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &ValidationError{Record: record, Reason: "malformed JSON", Err: err}
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := one(item)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Record = fmt.Sprintf("%s[%d]", ve.Record, i)
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
