package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Local reasoning models prefix replies with <think>...</think>.
var thinkBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

var errNoJSON = errors.New("no valid JSON found in response")

// ExtractJSON returns the first complete JSON object or array in a model
// reply, ignoring think blocks, markdown fences and surrounding prose.
// The returned text is byte-for-byte what the model wrote.
func ExtractJSON(response string) (string, error) {
	text := thinkBlock.ReplaceAllString(response, "")

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		if n, ok := decodeValueAt(text[i:]); ok {
			return text[i : i+n], nil
		}
	}
	return "", errNoJSON
}

// decodeValueAt reports the length of the JSON value at the start of s.
// The decoder stops after one value, so trailing prose is fine.
func decodeValueAt(s string) (int, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return 0, false
	}
	return int(dec.InputOffset()), true
}

// ParseJSONResponse extracts JSON from a model reply and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	text, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
