// Package chart turns a question and its result set into a chart image. The
// model picks the chart kind and axes; rendering is local.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

var (
	ErrNoJSON          = errors.New("no JSON object found in model response")
	ErrMissingKey      = errors.New("chart specification is missing a required key")
	ErrUnsupportedKind = errors.New("unsupported chart type")
	ErrMissingColumn   = errors.New("chart column not found in result set")
	ErrNonNumeric      = errors.New("chart value column is not numeric")
	ErrNoData          = errors.New("no data to chart")
)

// Spec is the chart configuration chosen by the model. Column names must
// match result set columns.
type Spec struct {
	Kind    Kind   `json:"chart_type"`
	XColumn string `json:"x_column"`
	YColumn string `json:"y_column"`
	Title   string `json:"title"`
	XLabel  string `json:"x_label"`
	YLabel  string `json:"y_label"`
}

func (k Kind) Valid() bool {
	switch k {
	case KindBar, KindLine, KindPie:
		return true
	}
	return false
}

// ExtractJSON returns the first brace-delimited JSON object in text. Prose or
// markdown fences around the object are ignored.
func ExtractJSON(text string) (string, error) {
	for offset := 0; offset < len(text); {
		idx := strings.IndexByte(text[offset:], '{')
		if idx < 0 {
			break
		}
		start := offset + idx
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&raw); err == nil {
			return string(raw), nil
		}
		offset = start + 1
	}
	return "", ErrNoJSON
}

// ParseSpec extracts and decodes a Spec from a model response. chart_type,
// x_column and y_column are required; missing labels default to the column
// names.
func ParseSpec(text string) (Spec, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Spec{}, err
	}
	var spec Spec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return Spec{}, fmt.Errorf("decode chart specification: %w", err)
	}
	spec.Kind = Kind(strings.ToLower(strings.TrimSpace(string(spec.Kind))))
	spec.XColumn = strings.TrimSpace(spec.XColumn)
	spec.YColumn = strings.TrimSpace(spec.YColumn)

	switch {
	case spec.Kind == "":
		return Spec{}, fmt.Errorf("%w: chart_type", ErrMissingKey)
	case spec.XColumn == "":
		return Spec{}, fmt.Errorf("%w: x_column", ErrMissingKey)
	case spec.YColumn == "":
		return Spec{}, fmt.Errorf("%w: y_column", ErrMissingKey)
	}
	if !spec.Kind.Valid() {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, spec.Kind)
	}

	if strings.TrimSpace(spec.Title) == "" {
		spec.Title = spec.YColumn
	}
	if strings.TrimSpace(spec.XLabel) == "" {
		spec.XLabel = spec.XColumn
	}
	if strings.TrimSpace(spec.YLabel) == "" {
		spec.YLabel = spec.YColumn
	}
	return spec, nil
}
