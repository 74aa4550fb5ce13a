package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/sqler/sqler/internal/formatter"
	"github.com/sqler/sqler/internal/query"
)

// YearQuarterLabel replaces the x label when year and quarter columns are
// merged into one axis.
const YearQuarterLabel = "Année et Trimestre"

type series struct {
	spec   Spec
	labels []string
	values []float64
}

// prepare checks the spec against the result and extracts the x labels and
// y values. A result with both year and quarter columns is plotted against
// a combined "YYYY-Tq" axis whatever x column the model chose.
func prepare(spec Spec, result query.Result) (series, error) {
	if result.Empty() {
		return series{}, ErrNoData
	}
	yIdx := result.ColumnIndex(spec.YColumn)
	if yIdx < 0 {
		return series{}, fmt.Errorf("%w: %q", ErrMissingColumn, spec.YColumn)
	}

	yearIdx, quarterIdx := result.ColumnIndex("year"), result.ColumnIndex("quarter")
	yearQuarter := yearIdx >= 0 && quarterIdx >= 0

	xIdx := -1
	if yearQuarter {
		spec.XColumn = "year_quarter"
		spec.XLabel = YearQuarterLabel
	} else if xIdx = result.ColumnIndex(spec.XColumn); xIdx < 0 {
		return series{}, fmt.Errorf("%w: %q", ErrMissingColumn, spec.XColumn)
	}

	out := series{
		spec:   spec,
		labels: make([]string, 0, len(result.Rows)),
		values: make([]float64, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		value, ok := toFloat(row[yIdx])
		if !ok {
			return series{}, fmt.Errorf("%w: %q has value %v", ErrNonNumeric, spec.YColumn, row[yIdx])
		}
		var label string
		if yearQuarter {
			label = formatter.FormatValue(row[yearIdx]) + "-T" + formatter.FormatValue(row[quarterIdx])
		} else {
			label = formatter.FormatValue(row[xIdx])
		}
		out.labels = append(out.labels, label)
		out.values = append(out.values, value)
	}
	return out, nil
}

// toFloat accepts numbers and their text forms; DECIMAL columns arrive as
// strings from the MySQL driver. NULL plots as zero.
func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, true
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case *big.Int:
		f, _ = new(big.Float).SetInt(v).Float64()
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		return toFloat(string(v))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
