package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ParseStrategy names the decoder that accepted a payload.
type ParseStrategy string

const (
	StrategyJSON     ParseStrategy = "json"
	StrategyRepaired ParseStrategy = "json_repair"
	StrategyHJSON    ParseStrategy = "hjson"
)

// ErrUnparseable is returned when no strategy could decode the input.
var ErrUnparseable = errors.New("all parsing strategies failed")

// RepairJSON fixes common hand-edited JSON mistakes: single quotes, unquoted keys,
// trailing commas, comments, unclosed objects, TRUE/FALSE/Null literals.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair: %w", err)
	}
	return repaired, nil
}

// HJSONToJSON parses Human-friendly JSON and re-encodes it as standard JSON.
func HJSONToJSON(data []byte) ([]byte, error) {
	var result any
	if err := hjson.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("hjson parse: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("hjson re-encode: %w", err)
	}
	return out, nil
}

// LenientUnmarshal decodes data into v, trying in order:
// 1. Standard JSON
// 2. JSON repair
// 3. Hjson (most lenient)
func LenientUnmarshal(data []byte, v any) (ParseStrategy, error) {
	if err := json.Unmarshal(data, v); err == nil {
		return StrategyJSON, nil
	}

	if repaired, err := RepairJSON(string(data)); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return StrategyRepaired, nil
		}
	}

	if converted, err := HJSONToJSON(data); err == nil {
		if err := json.Unmarshal(converted, v); err == nil {
			return StrategyHJSON, nil
		}
	}

	return "", ErrUnparseable
}
