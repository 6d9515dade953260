// Package jsonx recovers JSON objects embedded in free-form LLM output.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoObject means the text contains no '{' ... '}' pair at all.
var ErrNoObject = errors.New("no JSON object found in text")

// ExtractObject scans text for the first '{' and the last '}' and parses the
// enclosed substring as a JSON object. Agents rarely return bare JSON, so the
// substring is run through jsonrepair before giving up on a parse failure
// (trailing commas, single quotes and similar model artifacts are common).
func ExtractObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoObject
	}

	raw := text[start : end+1]

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embedded JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, fmt.Errorf("parse repaired JSON: %w", err)
	}
	return obj, nil
}
