package prompts

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// RelevantTables trims a large snapshot to at most limit tables for the
// prompt. Tables whose name, singular or plural, appears in the question are
// kept in snapshot order; when none match the first limit tables are used.
// limit <= 0 returns the snapshot unchanged.
func RelevantTables(question string, snapshot *models.SchemaSnapshot, limit int) *models.SchemaSnapshot {
	if snapshot == nil || limit <= 0 || len(snapshot.Tables) <= limit {
		return snapshot
	}

	q := strings.ToLower(question)
	var matched []models.TableSnapshot
	for _, t := range snapshot.Tables {
		if mentions(q, t.Name) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		matched = snapshot.Tables
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	trimmed := *snapshot
	trimmed.Tables = append([]models.TableSnapshot(nil), matched...)
	return &trimmed
}

// mentions reports whether q contains a form of table: order_items matches
// "order item", "order items" and "order_items".
func mentions(q, table string) bool {
	name := strings.ToLower(table)
	forms := []string{name, inflection.Singular(name), inflection.Plural(name)}
	for _, f := range forms {
		if f == "" {
			continue
		}
		if strings.Contains(q, f) || strings.Contains(q, strings.ReplaceAll(f, "_", " ")) {
			return true
		}
	}
	return false
}
