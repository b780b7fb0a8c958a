package llm

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"kind": "bar", "x": "department", "y": "salary"}`,
			expected: `{"kind": "bar", "x": "department", "y": "salary"}`,
		},
		{
			name:     "plain array",
			input:    `[{"kind": "bar"}, {"kind": "line"}]`,
			expected: `[{"kind": "bar"}, {"kind": "line"}]`,
		},
		{
			name:     "nested",
			input:    `{"chart": {"kind": "box", "axes": ["x", "y"]}}`,
			expected: `{"chart": {"kind": "box", "axes": ["x", "y"]}}`,
		},
		{
			name:     "think tags",
			input:    "<think>\nthe user wants totals per month\n</think>\n{\"kind\": \"line\"}",
			expected: `{"kind": "line"}`,
		},
		{
			name:     "markdown fence",
			input:    "Here is the chart:\n```json\n{\"kind\": \"scatter\", \"x\": \"age\"}\n```\n",
			expected: `{"kind": "scatter", "x": "age"}`,
		},
		{
			name:     "prose after",
			input:    `{"kind": "histogram"} Let me know if you need anything else.`,
			expected: `{"kind": "histogram"}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"title": "Salary {by} [dept]"}`,
			expected: `{"title": "Salary {by} [dept]"}`,
		},
		{
			name:     "escaped quotes",
			input:    `{"title": "The \"top\" earners"}`,
			expected: `{"title": "The \"top\" earners"}`,
		},
		{
			name:     "array before object",
			input:    `[1, 2] and then {"kind": "bar"}`,
			expected: `[1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"I cannot draw a chart for this data.",
		`{"kind": "bar",}`,
	} {
		if _, err := ExtractJSON(input); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestParseJSONResponse_Object(t *testing.T) {
	type spec struct {
		Kind string `json:"kind"`
		X    string `json:"x"`
	}

	result, err := ParseJSONResponse[spec](`<think>bars</think>{"kind": "bar", "x": "department"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != "bar" || result.X != "department" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	type item struct {
		Kind string `json:"kind"`
	}

	result, err := ParseJSONResponse[[]item](`[{"kind": "bar"}, {"kind": "line"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result))
	}
	if result[1].Kind != "line" {
		t.Errorf("expected second kind 'line', got %q", result[1].Kind)
	}
}

func TestParseJSONResponse_TypeMismatch(t *testing.T) {
	type spec struct {
		Kind string `json:"kind"`
	}
	if _, err := ParseJSONResponse[spec](`{"kind": 3}`); err == nil {
		t.Error("expected unmarshal error")
	}
}
