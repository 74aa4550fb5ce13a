package chart

import (
	"bytes"
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sqler/sqler/internal/query"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 800
	titleFontSize = 16
	axisFontSize  = 12
	tickRotation  = 45
	pieTitleSpace = 60
	// horizontal room one line chart x label needs
	labelSpacing = 90
)

var (
	barColor  = drawing.ColorFromHex("3b528b")
	lineColor = drawing.ColorFromHex("21918c")
)

// Renderer draws PNG charts. Zero values fall back to 1200x800 and no
// currency unit.
type Renderer struct {
	Width    int
	Height   int
	Currency string
}

// Render validates spec against result and returns the PNG bytes along with
// the spec actually drawn (axis substitutions applied).
func (r Renderer) Render(spec Spec, result query.Result) ([]byte, Spec, error) {
	return r.render(spec, result, gochart.PNG)
}

func (r Renderer) render(spec Spec, result query.Result, format gochart.RendererProvider) ([]byte, Spec, error) {
	if !spec.Kind.Valid() {
		return nil, Spec{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, spec.Kind)
	}
	data, err := prepare(spec, result)
	if err != nil {
		return nil, Spec{}, err
	}

	var buf bytes.Buffer
	switch spec.Kind {
	case KindBar:
		err = r.bar(data).Render(format, &buf)
	case KindLine:
		err = r.line(data).Render(format, &buf)
	case KindPie:
		var pie gochart.PieChart
		if pie, err = r.pie(data); err == nil {
			err = pie.Render(format, &buf)
		}
	}
	if err != nil {
		return nil, Spec{}, fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return buf.Bytes(), data.spec, nil
}

func (r Renderer) size() (int, int) {
	width, height := r.Width, r.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return width, height
}

func (r Renderer) yFormatter() gochart.ValueFormatter {
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return AbbreviateAxisValue(f, r.Currency)
		}
		return fmt.Sprint(v)
	}
}

func (r Renderer) bar(data series) gochart.BarChart {
	width, height := r.size()
	bars := make([]gochart.Value, len(data.values))
	for i := range data.values {
		bars[i] = gochart.Value{
			Label: data.labels[i],
			Value: data.values[i],
			Style: gochart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}
	barWidth := (width - 200) * 2 / (3 * len(bars))
	barWidth = max(4, min(barWidth, 80))

	return gochart.BarChart{
		Title:      data.spec.Title,
		TitleStyle: gochart.Style{FontSize: titleFontSize},
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 80}},
		BarWidth:   barWidth,
		XAxis: gochart.Style{
			TextRotationDegrees: tickRotation,
			FontSize:            axisFontSize - 2,
		},
		YAxis: gochart.YAxis{
			Name:           data.spec.YLabel,
			NameStyle:      gochart.Style{FontSize: axisFontSize},
			ValueFormatter: r.yFormatter(),
			Range:          valueRange(data.values),
		},
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
		Elements:     []gochart.Renderable{xAxisName(data.spec.XLabel, height)},
	}
}

func (r Renderer) line(data series) gochart.Chart {
	width, height := r.size()
	n := len(data.values)
	xs := make([]float64, n)
	step := labelStep(n, width)
	// Padding ticks keep a single point from collapsing the x range.
	ticks := make([]gochart.Tick, 0, n+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i := range xs {
		xs[i] = float64(i)
		tick := gochart.Tick{Value: float64(i)}
		if i%step == 0 {
			tick.Label = data.labels[i]
		}
		ticks = append(ticks, tick)
	}
	ticks = append(ticks, gochart.Tick{Value: float64(n) - 0.5})

	return gochart.Chart{
		Title:      data.spec.Title,
		TitleStyle: gochart.Style{FontSize: titleFontSize},
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:      data.spec.XLabel,
			NameStyle: gochart.Style{FontSize: axisFontSize},
			Ticks:     ticks,
		},
		YAxis: gochart.YAxis{
			Name:           data.spec.YLabel,
			NameStyle:      gochart.Style{FontSize: axisFontSize},
			ValueFormatter: r.yFormatter(),
			Range:          valueRange(data.values),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name: data.spec.YColumn,
				Style: gochart.Style{
					StrokeColor:     lineColor,
					StrokeWidth:     2.5,
					StrokeDashArray: []float64{6, 4},
					DotColor:        lineColor,
					DotWidth:        4,
				},
				XValues: xs,
				YValues: data.values,
			},
		},
	}
}

// pie draws on a square canvas so the pie stays a circle. Slice labels carry
// the share of the total with one decimal.
func (r Renderer) pie(data series) (gochart.PieChart, error) {
	width, height := r.size()
	side := min(width, height)

	var total float64
	for _, v := range data.values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return gochart.PieChart{}, fmt.Errorf("%w: pie needs at least one positive value", ErrNoData)
	}

	values := make([]gochart.Value, 0, len(data.values))
	for i, v := range data.values {
		if v <= 0 {
			continue
		}
		values = append(values, gochart.Value{Label: percentLabel(data.labels[i], v/total), Value: v})
	}
	// The built-in title is laid out inside the padded box and would land on
	// the top slice, so it is drawn in the reserved band instead.
	return gochart.PieChart{
		Width:      side,
		Height:     side,
		Background: gochart.Style{Padding: gochart.Box{Top: pieTitleSpace, Left: 20, Right: 20, Bottom: 20}},
		Values:     values,
		Elements:   []gochart.Renderable{pieTitle(data.spec.Title, side)},
	}, nil
}

// labelStep thins line chart x labels so neighbours do not overlap when the
// rotation-free axis gets crowded.
func labelStep(n, width int) int {
	room := max(1, (width-160)/labelSpacing)
	return max(1, (n+room-1)/room)
}

// valueRange always includes zero and never collapses to a single value.
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	hi += (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// xAxisName draws the x label under the bars; BarChart has no axis name.
func xAxisName(label string, height int) gochart.Renderable {
	return func(r gochart.Renderer, canvas gochart.Box, defaults gochart.Style) {
		if label == "" {
			return
		}
		style := textStyle(defaults, axisFontSize)
		box := gochart.Draw.MeasureText(r, label, style)
		x := canvas.Left + canvas.Width()/2 - box.Width()/2
		gochart.Draw.Text(r, label, x, height-12, style)
	}
}

func pieTitle(title string, side int) gochart.Renderable {
	return func(r gochart.Renderer, _ gochart.Box, defaults gochart.Style) {
		if title == "" {
			return
		}
		style := textStyle(defaults, titleFontSize)
		box := gochart.Draw.MeasureText(r, title, style)
		x := max(0, side/2-box.Width()/2)
		y := pieTitleSpace/2 + box.Height()/2
		gochart.Draw.Text(r, title, x, y, style)
	}
}

// textStyle fills what chart element defaults leave unset: they carry only
// the font, and a zero font colour draws nothing.
func textStyle(defaults gochart.Style, size float64) gochart.Style {
	return gochart.Style{
		FontSize:  size,
		FontColor: gochart.DefaultTextColor,
		Font:      defaults.Font,
	}
}
