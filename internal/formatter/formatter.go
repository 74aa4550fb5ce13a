// Package formatter renders result sets as pipe-separated text tables.
package formatter

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/sqler/sqler/internal/query"
)

// NoResultsMessage is returned for an empty result set.
const NoResultsMessage = "**Aucun résultat trouvé.**"

const separatorCell = "---"

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// Markdown renders a header line, a separator line and one line per row.
// It is deterministic and never fails. Pipes inside names and values are
// escaped and line breaks become spaces, so every line has one cell per
// column.
func Markdown(result query.Result) string {
	if result.Empty() || len(result.Columns) == 0 {
		return NoResultsMessage
	}

	lines := make([]string, 0, len(result.Rows)+2)
	header := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = cellEscaper.Replace(column)
	}
	lines = append(lines, strings.Join(header, " | "))

	separator := make([]string, len(result.Columns))
	for i := range separator {
		separator[i] = separatorCell
	}
	lines = append(lines, strings.Join(separator, " | "))

	cells := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range cells {
			var value any
			if i < len(row) {
				value = row[i]
			}
			cells[i] = cellEscaper.Replace(FormatValue(value))
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

// FormatValue renders a scalar in its natural text form. Floats never use
// exponent notation and dates without a clock render as YYYY-MM-DD.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case *big.Int:
		return v.String()
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
