package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"valuation_engine/pkg/core/utils"
)

// Normalize converts a raw request object into a Dataset. A top-level "data" object
// is unwrapped. Keys become snake_case; numeric strings become numbers; numeric
// arrays become []float64; nulls are dropped. An array holding a null is dropped
// as a whole so series positions never shift. When two keys map to the same
// snake_case name, the key already in snake_case wins, otherwise the
// lexically first. It never fails.
func Normalize(raw map[string]any) Dataset {
	if inner, ok := raw["data"].(map[string]any); ok {
		raw = inner
	}
	return normalizeMap(raw)
}

// Decode parses a lenient JSON payload and normalizes it.
func Decode(data []byte) (Dataset, utils.ParseStrategy, error) {
	var raw map[string]any
	strategy, err := utils.LenientUnmarshal(data, &raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode dataset: %w", err)
	}
	return Normalize(raw), strategy, nil
}

func normalizeMap(raw map[string]any) Dataset {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Dataset, len(raw))
	for _, k := range keys {
		nv, ok := normalizeValue(raw[k])
		if !ok {
			continue
		}
		sk := SnakeCase(k)
		if _, taken := out[sk]; taken && sk != k {
			continue
		}
		out[sk] = nv
	}
	return out
}

func normalizeValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return t.String(), true
	case string:
		if f, ok := parseNumber(t); ok {
			return f, true
		}
		return t, true
	case bool:
		if t {
			return 1.0, true
		}
		return 0.0, true
	case []float64:
		return t, true
	case []any:
		return normalizeList(t)
	case map[string]any:
		return normalizeMap(t), true
	case Dataset:
		return t, true
	}
	return nil, false
}

// normalizeList keeps a list only when every element coerces to a number.
func normalizeList(items []any) (any, bool) {
	nums := make([]float64, 0, len(items))
	for _, it := range items {
		nv, ok := normalizeValue(it)
		if !ok {
			return nil, false
		}
		f, isNum := nv.(float64)
		if !isNum {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SnakeCase converts camelCase, PascalCase, spaced and hyphenated names to snake_case.
func SnakeCase(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && shouldSplit(runes, i) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return collapseUnderscores(b.String())
}

// shouldSplit places a break before an upper-case rune that starts a new word,
// so "PERatio" becomes "pe_ratio" and "freeCashFlow" becomes "free_cash_flow".
func shouldSplit(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
