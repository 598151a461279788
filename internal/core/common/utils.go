package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeObject unmarshals a JSON object. Integral numbers come back as int64,
// everything else numeric as float64, so values survive a round trip through
// the graph store unchanged.
func DecodeObject(data string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", raw)
	}
	return NormalizeNumbers(obj).(map[string]interface{}), nil
}

// NormalizeNumbers replaces json.Number values, at any depth, with int64 when
// integral and float64 otherwise. Maps and slices are rewritten in place.
func NormalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		for k, val := range t {
			t[k] = NormalizeNumbers(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = NormalizeNumbers(val)
		}
		return t
	default:
		return v
	}
}

// IsScalar reports whether v can be stored as a graph property value as is.
func IsScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

// EncodeJSON renders v as compact JSON, falling back to fmt for values JSON
// cannot represent.
func EncodeJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
