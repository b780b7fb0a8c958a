// Package jsonutil holds decoding helpers for JSON written by language models.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleStringValue reads a JSON scalar as a string. Models asked for a
// column name sometimes answer 2023 or true instead of "2023"; numbers keep
// their literal text. null and empty input give "". Objects and arrays are
// returned as raw JSON.
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return string(raw)
	}
}
