package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SchemaSnapshot is the catalog of one schema as seen by a single request.
// It is built fresh every time and never cached.
type SchemaSnapshot struct {
	Datasource string          `json:"datasource" yaml:"datasource"`
	Schema     string          `json:"schema" yaml:"schema"`
	Dialect    string          `json:"dialect" yaml:"dialect"`
	Tables     []TableSnapshot `json:"tables" yaml:"tables"`
}

// TableSnapshot is one base table of a SchemaSnapshot.
// Error is set when introspecting the table failed; such tables are
// reported but take no part in validation.
type TableSnapshot struct {
	Name    string       `json:"name" yaml:"name"`
	Columns []string     `json:"columns" yaml:"columns"`
	Samples *ResultTable `json:"samples,omitempty" yaml:"-"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Columns returns the table -> columns mapping used by the validator.
// Tables that failed introspection are left out.
func (s *SchemaSnapshot) Columns() map[string][]string {
	out := make(map[string][]string, len(s.Tables))
	for _, t := range s.Tables {
		if t.Error != "" {
			continue
		}
		out[t.Name] = t.Columns
	}
	return out
}

// Table returns the named table, or nil.
func (s *SchemaSnapshot) Table(name string) *TableSnapshot {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns the names of all tables in snapshot order.
func (s *SchemaSnapshot) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// YAML renders the snapshot without sample rows.
func (s *SchemaSnapshot) YAML() (string, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal schema snapshot: %w", err)
	}
	return string(b), nil
}
