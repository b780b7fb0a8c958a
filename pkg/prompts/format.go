package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// MaxCellLength bounds sample values rendered into prompts.
const MaxCellLength = 40

// FormatTable renders up to maxRows rows of a result as a pipe-separated
// table with a header line. maxRows <= 0 renders every row.
func FormatTable(result *models.ResultTable, maxRows int) string {
	if result == nil || len(result.Columns) == 0 {
		return "(no columns)\n"
	}

	var b strings.Builder
	b.WriteString(strings.Join(result.ColumnNames(), " | "))
	b.WriteString("\n")

	rows := result.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	if len(rows) == 0 {
		b.WriteString("(no rows)\n")
		return b.String()
	}

	cells := make([]string, len(result.Columns))
	for _, row := range rows {
		for i := range cells {
			if i < len(row) {
				cells[i] = formatCell(row[i])
			} else {
				cells[i] = ""
			}
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return b.String()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	s := FormatValue(v)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "/")
	if len([]rune(s)) > MaxCellLength {
		s = string([]rune(s)[:MaxCellLength-3]) + "..."
	}
	return s
}

// FormatValue renders a scanned value as text. Dates without a time part
// print as 2006-01-02; nil prints as an empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(val))
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
