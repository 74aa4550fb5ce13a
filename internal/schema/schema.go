package schema

import (
	"strings"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema lists tables in database order. It is not modified once captured.
type Schema struct {
	Tables []Table `json:"tables"`
}

// Text renders the schema in the layout embedded in model prompts.
func (s Schema) Text() string {
	var b strings.Builder
	for _, table := range s.Tables {
		b.WriteString("Table: ")
		b.WriteString(table.Name)
		b.WriteString("\n")
		for _, column := range table.Columns {
			b.WriteString("  - ")
			b.WriteString(column.Name)
			b.WriteString(" (")
			b.WriteString(column.Type)
			b.WriteString(")\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.Name)
	}
	return names
}

func (s Schema) Table(name string) (Table, bool) {
	for _, table := range s.Tables {
		if strings.EqualFold(table.Name, name) {
			return table, true
		}
	}
	return Table{}, false
}
