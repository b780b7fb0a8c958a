package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// ChatSystemPrompt is used when a question goes straight to the model.
const ChatSystemPrompt = "You are a helpful assistant for people exploring a relational database. Answer concisely."

// NarrationSystemPrompt frames the narrate call.
const NarrationSystemPrompt = "You explain database query results to non-technical users in plain language."

// DefaultNarrationRows bounds the rows shown when narrating a result.
const DefaultNarrationRows = 20

// BuildNarrationPrompt asks for a short plain-language answer to question
// based on the query that was run and its result.
func BuildNarrationPrompt(question, sqlQuery string, result *models.ResultTable, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultNarrationRows
	}

	var prompt strings.Builder
	prompt.WriteString("# Question\n\n")
	prompt.WriteString(strings.TrimSpace(question))
	prompt.WriteString("\n\n# Query\n\n")
	prompt.WriteString(sqlQuery)
	prompt.WriteString("\n\n# Result\n\n")
	prompt.WriteString(FormatTable(result, maxRows))
	if n := result.RowCount(); n > maxRows {
		prompt.WriteString(fmt.Sprintf("(%d more rows not shown)\n", n-maxRows))
	}
	prompt.WriteString("\nAnswer the question in two or three sentences using the result. ")
	prompt.WriteString("Do not include SQL. If the result is empty, say so.\n")

	return prompt.String()
}
