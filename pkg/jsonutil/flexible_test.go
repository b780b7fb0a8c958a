package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{"column name", json.RawMessage(`"hire_date"`), "hire_date"},
		{"numeric column name", json.RawMessage(`2023`), "2023"},
		{"float keeps its text", json.RawMessage(`3.50`), "3.50"},
		{"large integer keeps precision", json.RawMessage(`9007199254740993`), "9007199254740993"},
		{"negative", json.RawMessage(`-7`), "-7"},
		{"boolean", json.RawMessage(`false`), "false"},
		{"null", json.RawMessage(`null`), ""},
		{"padded null", json.RawMessage("  null \n"), ""},
		{"empty string", json.RawMessage(`""`), ""},
		{"nil", nil, ""},
		{"object stays raw", json.RawMessage(`{"col":"x"}`), `{"col":"x"}`},
		{"array stays raw", json.RawMessage(`["a","b"]`), `["a","b"]`},
		{"invalid stays raw", json.RawMessage(`salary`), `salary`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlexibleStringValue(tt.input); got != tt.want {
				t.Errorf("FlexibleStringValue(%s) = %q, want %q", string(tt.input), got, tt.want)
			}
		})
	}
}
