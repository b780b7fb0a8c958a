package sql

import (
	"testing"
)

func TestCheckQuestionForInjection(t *testing.T) {
	tests := []struct {
		name            string
		question        string
		expectInjection bool
	}{
		// Clean questions
		{
			name:            "plain question",
			question:        "laptop computers",
			expectInjection: false,
		},
		{
			name:            "descriptive sentence",
			question:        "This is a normal description with spaces",
			expectInjection: false,
		},
		{
			name:            "SQL keywords without injection context",
			question:        "SELECT the best option from the menu",
			expectInjection: false,
		},
		{
			name:            "apostrophe in a name",
			question:        "O'Brien",
			expectInjection: false,
		},
		{
			name:            "empty question",
			question:        "",
			expectInjection: false,
		},

		// Injection payloads
		{
			name:            "classic quote injection",
			question:        "' OR '1'='1",
			expectInjection: true,
		},
		{
			name:            "drop table injection",
			question:        "'; DROP TABLE users--",
			expectInjection: true,
		},
		{
			name:            "union select injection",
			question:        "1 UNION SELECT * FROM passwords",
			expectInjection: true,
		},
		{
			name:            "time-based blind injection",
			question:        "1' AND SLEEP(5)--",
			expectInjection: true,
		},
		{
			name:            "stacked queries",
			question:        "admin'; DELETE FROM logs; --",
			expectInjection: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckQuestionForInjection(tt.question)

			if !tt.expectInjection {
				if result != nil {
					t.Errorf("expected no injection detection (nil), got result: %+v", result)
				}
				return
			}

			if result == nil {
				t.Fatalf("expected injection detection, got nil")
			}
			if !result.IsSQLi {
				t.Errorf("expected IsSQLi=true, got false")
			}
			if result.Fingerprint == "" {
				t.Errorf("expected non-empty fingerprint, got empty string")
			}
			if result.Input != tt.question {
				t.Errorf("expected Input=%q, got %q", tt.question, result.Input)
			}
		})
	}
}
