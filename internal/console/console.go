// Package console renders forecast handler output to a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/lox/migrationforecast/internal/chart"
	"github.com/lox/migrationforecast/internal/formhandler"
)

// Console collects handler output for one submission and prints it.
type Console struct {
	out    io.Writer
	errOut io.Writer

	label    string
	alerts   []string
	revealed bool
	inflow   string
	outflow  string
	growth   string
	reasons  []string
	chart    chart.View
	toggles  [2]toggle
	rows     [][]string
}

type toggle struct {
	active  bool
	onClick func()
}

func New(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut, label: formhandler.IdleLabel}
}

// Surfaces returns the handles the forecast handler renders into.
func (c *Console) Surfaces() formhandler.Surfaces {
	return formhandler.Surfaces{
		Submit:        button{c},
		Alerts:        alerts{c},
		Results:       panel{c},
		InflowValue:   field{&c.inflow},
		OutflowValue:  field{&c.outflow},
		GrowthValue:   field{&c.growth},
		Reasons:       list{&c.reasons},
		Chart:         &c.chart,
		ToggleInflow:  &c.toggles[formhandler.SeriesInflow],
		ToggleOutflow: &c.toggles[formhandler.SeriesOutflow],
		Table:         table{&c.rows},
	}
}

// Click replays a toggle click. It reports false before a chart was rendered.
func (c *Console) Click(s formhandler.Series) bool {
	if s < 0 || int(s) >= len(c.toggles) || c.toggles[s].onClick == nil {
		return false
	}
	c.toggles[s].onClick()
	return true
}

// Print writes the rendered forecast, or nothing if the results were never
// revealed.
func (c *Console) Print(district string) error {
	if !c.revealed {
		return nil
	}
	fmt.Fprintf(c.out, "Migration Forecast for %s\n\n", district)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Inflow\t%s\n", c.inflow)
	fmt.Fprintf(tw, "Outflow\t%s\n", c.outflow)
	fmt.Fprintf(tw, "Avg growth\t%s\n", c.growth)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(c.out, "\nTop reasons")
	for _, r := range c.reasons {
		fmt.Fprintf(c.out, "  %s\n", r)
	}

	var shown []string
	names := []string{"Inflow", "Outflow"}
	for i, t := range c.toggles {
		if t.active {
			shown = append(shown, names[i])
		}
	}
	fmt.Fprintf(c.out, "\nSeries shown: %s\n\n", strings.Join(shown, ", "))

	tw = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tInflow\tOutflow\t")
	for _, row := range c.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

// WriteChart renders the current chart to a PNG file.
func (c *Console) WriteChart(path string) error {
	data, err := c.chart.PNG()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Alerts returns the messages shown during the submission.
func (c *Console) Alerts() []string {
	return c.alerts
}

type button struct{ c *Console }

func (b button) Label() string { return b.c.label }
func (b button) SetLabel(l string) {
	if l == formhandler.BusyLabel {
		fmt.Fprintln(b.c.errOut, l)
	}
	b.c.label = l
}
func (b button) SetEnabled(bool) {}

type alerts struct{ c *Console }

func (a alerts) Alert(msg string) {
	a.c.alerts = append(a.c.alerts, msg)
	fmt.Fprintln(a.c.errOut, msg)
}

type panel struct{ c *Console }

func (p panel) Reveal() { p.c.revealed = true }

type field struct{ dst *string }

func (f field) SetText(t string) { *f.dst = t }

type list struct{ items *[]string }

func (l list) Clear()             { *l.items = nil }
func (l list) Append(item string) { *l.items = append(*l.items, item) }

func (t *toggle) SetActive(a bool)  { t.active = a }
func (t *toggle) OnClick(fn func()) { t.onClick = fn }

type table struct{ rows *[][]string }

func (t table) Clear()                    { *t.rows = nil }
func (t table) AppendRow(cells ...string) { *t.rows = append(*t.rows, cells) }
