package models

import (
	"fmt"
	"time"
)

// AskMode selects what Ask does with a question.
type AskMode string

const (
	// AskModeDatabase generates SQL, validates and runs it.
	AskModeDatabase AskMode = "database"
	// AskModeShowSQL generates and validates SQL without running it.
	AskModeShowSQL AskMode = "showsql"
	// AskModeChat sends the question straight to the model.
	AskModeChat AskMode = "chat"
	// AskModeNarrate runs the query and asks the model to describe the result.
	AskModeNarrate AskMode = "narrate"
)

// ParseAskMode maps an empty string to AskModeDatabase and rejects unknown modes.
func ParseAskMode(s string) (AskMode, error) {
	switch AskMode(s) {
	case "":
		return AskModeDatabase, nil
	case AskModeDatabase, AskModeShowSQL, AskModeChat, AskModeNarrate:
		return AskMode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// HistoryEntry is one turn of a session's conversation.
type HistoryEntry struct {
	At       time.Time `json:"at"`
	Mode     AskMode   `json:"mode"`
	Question string    `json:"question"`
	SQL      string    `json:"sql,omitempty"`
	Reply    string    `json:"reply,omitempty"`
	RowCount int       `json:"row_count,omitempty"`
	Error    string    `json:"error,omitempty"`
}
