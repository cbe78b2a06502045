package formhandler

import (
	"math"
	"time"
)

// Series identifies one plotted line. Values double as trace indexes.
type Series int

const (
	SeriesInflow Series = iota
	SeriesOutflow
	seriesCount
)

func (s Series) String() string {
	switch s {
	case SeriesInflow:
		return "inflow"
	case SeriesOutflow:
		return "outflow"
	default:
		return "unknown"
	}
}

// ParseSeries maps "inflow" or "outflow" to a Series.
func ParseSeries(s string) (Series, bool) {
	switch s {
	case "inflow":
		return SeriesInflow, true
	case "outflow":
		return SeriesOutflow, true
	}
	return 0, false
}

// Visibility is the two-state display mode of a series. A series hidden via
// the legend is not drawn but stays selectable from the legend.
type Visibility int

const (
	Visible Visibility = iota
	HiddenViaLegend
)

func (v Visibility) Flip() Visibility {
	if v == Visible {
		return HiddenViaLegend
	}
	return Visible
}

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "legendonly"
}

// Trace is a single line of the forecast chart.
type Trace struct {
	Name       string
	X          []float64
	Y          []float64
	Mode       string
	Color      string
	Width      float64
	Dash       string // "" for solid
	MarkerSize float64
	Visible    Visibility
}

// Layout is the fixed visual configuration of the forecast chart.
type Layout struct {
	Title              string
	TitleSize          float64
	TitleColor         string
	PaperBackground    string
	PlotBackground     string
	FontColor          string
	FontFamily         string
	LegendHorizontal   bool
	LegendX            float64
	LegendY            float64
	XAxisTitle         string
	YAxisTitle         string
	TransitionDuration time.Duration
	TransitionEasing   string
	Responsive         bool
}

// ChartSpec is everything a chart view needs to draw the forecast.
type ChartSpec struct {
	Traces []Trace
	Layout Layout
}

const transparent = "rgba(0,0,0,0)"

// BuildChart constructs the inflow and outflow traces from the forecast table.
// Non-numeric cells become NaN gaps.
func BuildChart(district string, rows []TableRow) ChartSpec {
	years := make([]float64, len(rows))
	inflow := make([]float64, len(rows))
	outflow := make([]float64, len(rows))
	for i, row := range rows {
		years[i] = numberOrNaN(row.Year)
		inflow[i] = numberOrNaN(row.Inflow)
		outflow[i] = numberOrNaN(row.Outflow)
	}

	return ChartSpec{
		Traces: []Trace{
			{
				Name:       "Inflow",
				X:          years,
				Y:          inflow,
				Mode:       "lines+markers",
				Color:      "#b266ff",
				Width:      3,
				MarkerSize: 7,
				Visible:    Visible,
			},
			{
				Name:       "Outflow",
				X:          years,
				Y:          outflow,
				Mode:       "lines+markers",
				Color:      "#ff5fc3",
				Width:      3,
				Dash:       "dot",
				MarkerSize: 7,
				Visible:    Visible,
			},
		},
		Layout: Layout{
			Title:              "Migration Forecast for " + district,
			TitleSize:          20,
			TitleColor:         "#d8b4ff",
			PaperBackground:    transparent,
			PlotBackground:     transparent,
			FontColor:          "#fff",
			FontFamily:         "Poppins",
			LegendHorizontal:   true,
			LegendX:            0.3,
			LegendY:            -0.2,
			XAxisTitle:         "Years",
			YAxisTitle:         "Migrants (Persons)",
			TransitionDuration: 600 * time.Millisecond,
			TransitionEasing:   "cubic-in-out",
			Responsive:         true,
		},
	}
}

func numberOrNaN(v Value) float64 {
	if f, ok := v.Float64(); ok {
		return f
	}
	return math.NaN()
}
