package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrUnparseable is returned when no decoding strategy accepts the input.
var ErrUnparseable = errors.New("input is not valid JSON, repairable JSON or Hjson")

// DecodeLenient decodes hand-written or model-written JSON into v.
// Order of attempts:
//  1. Standard JSON
//  2. Hjson (comments, unquoted keys, optional and trailing commas)
//  3. JSON repair (missing braces, code fences, truncated output)
//
// It returns the name of the strategy that succeeded.
func DecodeLenient(input []byte, v interface{}) (string, error) {
	trimmed := strings.TrimSpace(string(input))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrUnparseable)
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return "json", nil
	}

	if normalized, err := HJSONToJSON(trimmed); err == nil {
		if err := json.Unmarshal([]byte(normalized), v); err == nil {
			return "hjson", nil
		}
	}

	if repaired, err := jsonrepair.RepairJSON(trimmed); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return "json-repair", nil
		}
	}

	return "", ErrUnparseable
}

// HJSONToJSON parses Hjson and re-encodes it as standard JSON.
func HJSONToJSON(input string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(input), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(out), nil
}
