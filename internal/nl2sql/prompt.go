package nl2sql

import (
	"fmt"
	"strings"
)

const exampleQuestion = "What is the total turnover?"

const exampleSQL = "SELECT SUM(od.quantityOrdered * od.priceEach) AS total_turnover FROM orderdetails AS od;"

// PromptInput is everything that goes into the SQL generation prompt.
type PromptInput struct {
	Dialect  string
	Schema   string
	Docs     string
	Rules    string
	Question string
}

// BuildPrompt assembles the single instruction prompt sent to the model.
// The output depends only on in, so identical inputs yield identical prompts.
func BuildPrompt(in PromptInput) string {
	dialect := strings.TrimSpace(in.Dialect)
	if dialect == "" {
		dialect = "MySQL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your task is to act as an expert %s query generator.\n", dialect)
	fmt.Fprintf(&b, "Your output MUST BE the raw, executable %s query ONLY. I repeat: ONLY the SQL query.\n", dialect)
	b.WriteString("DO NOT include any text, explanations, comments, or markdown formatting.\n\n")

	b.WriteString("Database Schema:\n")
	b.WriteString(strings.TrimRight(in.Schema, "\n"))
	b.WriteString("\n\n")

	b.WriteString("Table Documentation:\n")
	b.WriteString(strings.TrimSpace(in.Docs))
	b.WriteString("\n\n")

	b.WriteString("Strict Rules for Query Generation:\n")
	b.WriteString(strings.TrimSpace(in.Rules))
	b.WriteString("\n\n")

	b.WriteString("Example of the expected output format:\n---\n")
	fmt.Fprintf(&b, "Question: %s\nSQL Query: %s\n---\n\n", exampleQuestion, exampleSQL)

	b.WriteString("Now, for this new question, provide ONLY the SQL query:\n")
	fmt.Fprintf(&b, "Question: %s\nSQL Query:", strings.TrimSpace(in.Question))
	return b.String()
}

// CleanSQL trims whitespace, markdown fences and an echoed "SQL Query:"
// label from model output.
func CleanSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```mysql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if end := strings.Index(trimmed, "```"); end >= 0 {
			trimmed = trimmed[:end]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if len(trimmed) >= len("SQL Query:") && strings.EqualFold(trimmed[:len("SQL Query:")], "SQL Query:") {
		trimmed = strings.TrimSpace(trimmed[len("SQL Query:"):])
	}
	return trimmed
}
