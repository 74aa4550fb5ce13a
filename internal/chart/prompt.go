package chart

import (
	"fmt"
	"strings"
)

const promptTemplate = `Based on the following user question and the data provided, generate a single JSON object to configure a chart. Do not include any other text, explanation, or markdown formatting outside of the JSON object itself.

User Question: %s

Data Columns: %s

JSON Object must contain the following keys:
'chart_type': The best chart type (e.g., 'bar', 'line', 'pie'). Choose 'bar' for rankings or categorical data. Choose 'line' for time-series data. Use 'pie' for part-to-whole analysis (e.g., percentage of total).
'x_column': The column name for the x-axis.
'y_column': The column name for the y-axis.
'title': A descriptive title for the chart.
'x_label': A label for the x-axis.
'y_label': A label for the y-axis.

Example for a query about top products by sales:
{"chart_type": "bar", "x_column": "productName", "y_column": "totalSales", "title": "Top 10 Products by Sales", "x_label": "Product Name", "y_label": "Total Sales"}`

// BuildPrompt asks for a chart configuration given the question and the
// result column names.
func BuildPrompt(question string, columns []string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(question), strings.Join(columns, ", "))
}
