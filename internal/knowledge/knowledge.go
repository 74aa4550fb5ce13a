// Package knowledge holds the per-table documentation and query rules that
// are embedded verbatim into the SQL generation prompt. The content lives in
// data/ so it can be reviewed and diffed independently of the code, and can
// be replaced at startup from a directory with the same layout.
package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TablesFile = "tables.yaml"
	RulesFile  = "rules.md"
)

//go:embed data/tables.yaml data/rules.md
var embedded embed.FS

type Entry struct {
	Name string `yaml:"name" json:"name"`
	Doc  string `yaml:"doc" json:"doc"`
}

type Base struct {
	Tables []Entry
	Rules  string
}

type tablesDocument struct {
	Tables []Entry `yaml:"tables"`
}

// Default returns the knowledge base compiled into the binary.
func Default() (Base, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return Base{}, err
	}
	return loadFS(sub)
}

// Load reads dir when set. Files absent from dir fall back to the
// embedded defaults.
func Load(dir string) (Base, error) {
	base, err := Default()
	if err != nil {
		return Base{}, fmt.Errorf("load embedded knowledge: %w", err)
	}
	if strings.TrimSpace(dir) == "" {
		return base, nil
	}

	override, err := readOptional(filepath.Join(dir, TablesFile))
	if err != nil {
		return Base{}, err
	}
	if override != nil {
		tables, err := parseTables(override)
		if err != nil {
			return Base{}, fmt.Errorf("parse %s: %w", filepath.Join(dir, TablesFile), err)
		}
		base.Tables = tables
	}

	override, err = readOptional(filepath.Join(dir, RulesFile))
	if err != nil {
		return Base{}, err
	}
	if override != nil {
		base.Rules = strings.TrimSpace(string(override))
	}

	if err := base.Validate(); err != nil {
		return Base{}, err
	}
	return base, nil
}

func loadFS(fsys fs.FS) (Base, error) {
	rawTables, err := fs.ReadFile(fsys, TablesFile)
	if err != nil {
		return Base{}, err
	}
	tables, err := parseTables(rawTables)
	if err != nil {
		return Base{}, fmt.Errorf("parse %s: %w", TablesFile, err)
	}
	rawRules, err := fs.ReadFile(fsys, RulesFile)
	if err != nil {
		return Base{}, err
	}
	base := Base{Tables: tables, Rules: strings.TrimSpace(string(rawRules))}
	if err := base.Validate(); err != nil {
		return Base{}, err
	}
	return base, nil
}

func parseTables(raw []byte) ([]Entry, error) {
	var doc tablesDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for i := range doc.Tables {
		doc.Tables[i].Name = strings.TrimSpace(doc.Tables[i].Name)
		doc.Tables[i].Doc = strings.TrimSpace(doc.Tables[i].Doc)
	}
	return doc.Tables, nil
}

func readOptional(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func (b Base) Validate() error {
	seen := make(map[string]struct{}, len(b.Tables))
	for i, entry := range b.Tables {
		if entry.Name == "" {
			return fmt.Errorf("table entry %d has no name", i)
		}
		if entry.Doc == "" {
			return fmt.Errorf("table %q has no documentation", entry.Name)
		}
		key := strings.ToLower(entry.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("table %q documented twice", entry.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// DocsText renders one "Table 'name': doc" line per entry, in file order.
func (b Base) DocsText() string {
	lines := make([]string, 0, len(b.Tables))
	for _, entry := range b.Tables {
		lines = append(lines, fmt.Sprintf("Table '%s': %s", entry.Name, entry.Doc))
	}
	return strings.Join(lines, "\n")
}

func (b Base) Doc(table string) (string, bool) {
	for _, entry := range b.Tables {
		if strings.EqualFold(entry.Name, table) {
			return entry.Doc, true
		}
	}
	return "", false
}

// Stale lists documented tables that are absent from tableNames.
func (b Base) Stale(tableNames []string) []string {
	present := make(map[string]struct{}, len(tableNames))
	for _, name := range tableNames {
		present[strings.ToLower(name)] = struct{}{}
	}
	var stale []string
	for _, entry := range b.Tables {
		if _, ok := present[strings.ToLower(entry.Name)]; !ok {
			stale = append(stale, entry.Name)
		}
	}
	return stale
}
