package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// DefaultPlotSampleRows is the number of result rows shown to the model.
const DefaultPlotSampleRows = 10

// PlotKinds is the menu of chart types offered to the model.
var PlotKinds = []string{"histogram", "lineplot", "scatterplot", "heatmap", "boxplot"}

// PlotSystemPrompt frames the code generation call.
const PlotSystemPrompt = "You are a data visualization assistant. You write short, complete Python plotting scripts using pandas and matplotlib."

// BuildPlotPrompt asks for python code plotting the result, which the code
// must reference as an already defined DataFrame named df.
func BuildPlotPrompt(result *models.ResultTable, instructions string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPlotSampleRows
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Here is a sample of a dataset: the column names and the first %d rows of the DataFrame.\n\n", maxRows))
	prompt.WriteString(FormatTable(result, maxRows))
	prompt.WriteString(fmt.Sprintf("\nThe full DataFrame has %d rows and columns: %s.\n\n", result.RowCount(), strings.Join(result.ColumnNames(), ", ")))

	prompt.WriteString("Generate complete Python code that draws the most suitable chart for these variables.\n")
	prompt.WriteString("- Refer to the data as df. It is already defined: do NOT redefine it or inline the data.\n")
	prompt.WriteString("- Drop rows with NaN values first.\n")
	prompt.WriteString("- You may illustrate relations between 2, 3 or 4 variables.\n")
	prompt.WriteString(fmt.Sprintf("- Examples of plots you can use are %s.\n", strings.Join(PlotKinds, ", ")))
	prompt.WriteString("- The figure has the standard size (11, 7). Prefer matplotlib with the ggplot style.\n")
	prompt.WriteString("- Name the figure fig. Make bar charts horizontal. Always add legends.\n")
	prompt.WriteString("- Do not call plt.show().\n")
	prompt.WriteString("- Return a single ```python fenced code block.\n")

	if s := strings.TrimSpace(instructions); s != "" {
		prompt.WriteString("\nAdditional instructions from the user:\n")
		prompt.WriteString(s)
		prompt.WriteString("\n")
	}

	return prompt.String()
}

// ChartSpecSystemPrompt frames the structured chart call.
const ChartSpecSystemPrompt = "You choose charts for tabular data. You answer with a single JSON object and nothing else."

// BuildChartSpecPrompt asks for one JSON chart specification drawn from the
// closed vocabularies in models.ChartKinds and models.Aggregations.
func BuildChartSpecPrompt(result *models.ResultTable, instructions string, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultPlotSampleRows
	}

	var prompt strings.Builder
	prompt.WriteString("Choose the most suitable chart for this query result.\n\n")
	prompt.WriteString(FormatTable(result, maxRows))
	prompt.WriteString(fmt.Sprintf("\nTotal rows: %d\n\n", result.RowCount()))

	prompt.WriteString("Respond with a JSON object of this shape:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString(`{"kind": "...", "x": "...", "y": "...", "aggregation": "...", "title": "..."}`)
	prompt.WriteString("\n```\n\n")
	prompt.WriteString(fmt.Sprintf("- kind is one of: %s\n", strings.Join(models.ChartKinds, ", ")))
	prompt.WriteString(fmt.Sprintf("- aggregation is one of: %s\n", strings.Join(models.Aggregations, ", ")))
	prompt.WriteString(fmt.Sprintf("- x and y must be column names from: %s\n", strings.Join(result.ColumnNames(), ", ")))
	prompt.WriteString("- y may be empty for histogram charts and count aggregations\n")

	if s := strings.TrimSpace(instructions); s != "" {
		prompt.WriteString("\nAdditional instructions from the user:\n")
		prompt.WriteString(s)
		prompt.WriteString("\n")
	}

	return prompt.String()
}
