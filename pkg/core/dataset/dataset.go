// Package dataset holds the normalized input record every analysis consumes.
package dataset

import (
	"sort"
	"strings"
)

// Dataset maps canonical snake_case field names to float64, []float64, string or
// nested Dataset values. Absent fields are missing, never nil.
type Dataset map[string]any

// Has reports whether every key is present.
func (d Dataset) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := d[k]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the subset of keys that are absent, in the given order.
func (d Dataset) Missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := d[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Float returns a scalar number.
func (d Dataset) Float(key string) (float64, bool) {
	v, ok := d[key].(float64)
	return v, ok
}

// FloatOr returns the scalar at key or def when missing.
func (d Dataset) FloatOr(key string, def float64) float64 {
	if v, ok := d.Float(key); ok {
		return v
	}
	return def
}

// FirstFloat returns the first scalar found among keys, for fields with aliases.
func (d Dataset) FirstFloat(keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := d.Float(k); ok {
			return v, true
		}
	}
	return 0, false
}

// FloatPtr returns nil when the key is missing, for optional inputs.
func (d Dataset) FloatPtr(keys ...string) *float64 {
	if v, ok := d.FirstFloat(keys...); ok {
		return &v
	}
	return nil
}

// Floats returns a numeric sequence. A lone scalar is treated as a one-element series.
func (d Dataset) Floats(key string) ([]float64, bool) {
	switch v := d[key].(type) {
	case []float64:
		return v, true
	case float64:
		return []float64{v}, true
	}
	return nil, false
}

// FirstFloats returns the first sequence found among keys.
func (d Dataset) FirstFloats(keys ...string) ([]float64, bool) {
	for _, k := range keys {
		if v, ok := d.Floats(k); ok {
			return v, true
		}
	}
	return nil, false
}

// String returns a label value, lower-cased and trimmed.
func (d Dataset) String(key string) (string, bool) {
	v, ok := d[key].(string)
	if !ok {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(v)), true
}

// Nested returns a sub-record.
func (d Dataset) Nested(key string) (Dataset, bool) {
	v, ok := d[key].(Dataset)
	return v, ok
}

// Numbers returns every top-level scalar number, ordered by key.
func (d Dataset) Numbers() []float64 {
	keys := make([]string, 0, len(d))
	for k, v := range d {
		if _, ok := v.(float64); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = d[k].(float64)
	}
	return out
}

// Scalars returns every top-level scalar (numbers and labels) for frequency analysis.
func (d Dataset) Scalars() []any {
	keys := make([]string, 0, len(d))
	for k, v := range d {
		switch v.(type) {
		case float64, string:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = d[k]
	}
	return out
}
