package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// SQLSystemPrompt instructs the model to answer with one bare SQL query.
const SQLSystemPrompt = `You are an agent designed to write SQL for a relational database. Given a question, write one syntactically correct query that answers it, using only the tables and columns listed in the prompt.

Return ONLY the SQL query. Rules:
- No explanations, comments or commentary.
- No markdown formatting such as ` + "```sql" + `.
- Exactly one statement. The query must only read data: never INSERT, UPDATE, DELETE, CREATE, ALTER or DROP.
- Do not add a LIMIT unless the question asks for one.
- Use SELECT * when all columns are wanted, otherwise list the columns explicitly.
- When the question asks for an ordering, include the matching ORDER BY clause.
- Only reference tables and columns that appear in the schema listing.`

// SQLPromptOptions controls what BuildSQLPrompt includes.
type SQLPromptOptions struct {
	// Dialect names the database engine ("postgres", "sqlserver", ...).
	Dialect string
	// SampleRows limits sample rows per table; 0 omits samples.
	SampleRows int
	// QualifyTables asks the model to prefix tables with the schema name.
	QualifyTables bool
}

// BuildSQLPrompt embeds the schema listing, sample rows and the question.
// The output depends only on its inputs.
func BuildSQLPrompt(question string, snapshot *models.SchemaSnapshot, opts SQLPromptOptions) string {
	var prompt strings.Builder

	dialect := opts.Dialect
	if dialect == "" && snapshot != nil {
		dialect = snapshot.Dialect
	}

	prompt.WriteString("# Database Schema\n\n")
	if dialect != "" {
		prompt.WriteString(fmt.Sprintf("SQL dialect: %s\n", dialect))
	}
	if snapshot != nil && snapshot.Schema != "" {
		prompt.WriteString(fmt.Sprintf("Schema: %s\n", snapshot.Schema))
		if opts.QualifyTables {
			prompt.WriteString(fmt.Sprintf("Qualify every table with the schema name, e.g. %s.table_name.\n", snapshot.Schema))
		}
	}
	prompt.WriteString("\nEach table lists its columns")
	if opts.SampleRows > 0 {
		prompt.WriteString(" and a few sample rows showing the kind of data stored")
	}
	prompt.WriteString(".\n\n")

	if snapshot == nil || len(snapshot.Tables) == 0 {
		prompt.WriteString("(the schema has no tables)\n\n")
	} else {
		for _, table := range snapshot.Tables {
			if table.Error != "" {
				continue
			}
			prompt.WriteString(fmt.Sprintf("## %s\n", table.Name))
			prompt.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(table.Columns, ", ")))
			if opts.SampleRows > 0 && table.Samples.RowCount() > 0 {
				prompt.WriteString("Sample rows:\n")
				prompt.WriteString(FormatTable(table.Samples, opts.SampleRows))
			}
			prompt.WriteString("\n")
		}
	}

	prompt.WriteString("# Question\n\n")
	prompt.WriteString(strings.TrimSpace(question))
	prompt.WriteString("\n")

	return prompt.String()
}
