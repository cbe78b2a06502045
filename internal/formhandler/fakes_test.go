package formhandler

import (
	"context"
	"fmt"
	"strings"
)

// recorder collects every surface call in order.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) has(prefix string) bool {
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

func (r *recorder) index(prefix string) int {
	for i, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

type fakeButton struct {
	rec     *recorder
	label   string
	enabled bool
}

func (b *fakeButton) Label() string { return b.label }
func (b *fakeButton) SetLabel(l string) {
	b.label = l
	b.rec.add("button.label %s", l)
}
func (b *fakeButton) SetEnabled(e bool) {
	b.enabled = e
	b.rec.add("button.enabled %v", e)
}

type fakeAlerts struct {
	rec      *recorder
	messages []string
}

func (a *fakeAlerts) Alert(m string) {
	a.messages = append(a.messages, m)
	a.rec.add("alert %s", m)
}

type fakePanel struct {
	rec      *recorder
	revealed bool
}

func (p *fakePanel) Reveal() {
	p.revealed = true
	p.rec.add("results.reveal")
}

type fakeField struct {
	rec  *recorder
	name string
	text string
}

func (f *fakeField) SetText(t string) {
	f.text = t
	f.rec.add("%s.text %s", f.name, t)
}

type fakeList struct {
	rec   *recorder
	items []string
}

func (l *fakeList) Clear() {
	l.items = nil
	l.rec.add("reasons.clear")
}
func (l *fakeList) Append(item string) {
	l.items = append(l.items, item)
	l.rec.add("reasons.append %s", item)
}

type fakeChart struct {
	rec      *recorder
	spec     *ChartSpec
	plotErr  error
	restyles []string
}

func (c *fakeChart) Plot(spec ChartSpec) error {
	c.rec.add("chart.plot")
	if c.plotErr != nil {
		return c.plotErr
	}
	c.spec = &spec
	return nil
}

func (c *fakeChart) Restyle(index int, v Visibility) {
	c.restyles = append(c.restyles, fmt.Sprintf("%d=%s", index, v))
	if c.spec != nil && index < len(c.spec.Traces) {
		c.spec.Traces[index].Visible = v
	}
	c.rec.add("chart.restyle %d %s", index, v)
}

type fakeToggle struct {
	rec     *recorder
	name    string
	active  bool
	onClick func()
}

func (t *fakeToggle) SetActive(a bool) {
	t.active = a
	t.rec.add("%s.active %v", t.name, a)
}
func (t *fakeToggle) OnClick(fn func()) { t.onClick = fn }
func (t *fakeToggle) click() {
	if t.onClick != nil {
		t.onClick()
	}
}

type fakeTable struct {
	rec  *recorder
	rows [][]string
}

func (t *fakeTable) Clear() {
	t.rows = nil
	t.rec.add("table.clear")
}
func (t *fakeTable) AppendRow(cells ...string) {
	t.rows = append(t.rows, cells)
	t.rec.add("table.row %s", strings.Join(cells, ","))
}

type fakeUI struct {
	rec           *recorder
	button        *fakeButton
	alerts        *fakeAlerts
	results       *fakePanel
	inflow        *fakeField
	outflow       *fakeField
	growth        *fakeField
	reasons       *fakeList
	chart         *fakeChart
	toggleInflow  *fakeToggle
	toggleOutflow *fakeToggle
	table         *fakeTable
}

func newFakeUI() *fakeUI {
	rec := &recorder{}
	return &fakeUI{
		rec:           rec,
		button:        &fakeButton{rec: rec, label: IdleLabel, enabled: true},
		alerts:        &fakeAlerts{rec: rec},
		results:       &fakePanel{rec: rec},
		inflow:        &fakeField{rec: rec, name: "inflowVal"},
		outflow:       &fakeField{rec: rec, name: "outflowVal"},
		growth:        &fakeField{rec: rec, name: "growthVal"},
		reasons:       &fakeList{rec: rec},
		chart:         &fakeChart{rec: rec},
		toggleInflow:  &fakeToggle{rec: rec, name: "toggleInflow"},
		toggleOutflow: &fakeToggle{rec: rec, name: "toggleOutflow"},
		table:         &fakeTable{rec: rec},
	}
}

func (u *fakeUI) surfaces() Surfaces {
	return Surfaces{
		Submit:        u.button,
		Alerts:        u.alerts,
		Results:       u.results,
		InflowValue:   u.inflow,
		OutflowValue:  u.outflow,
		GrowthValue:   u.growth,
		Reasons:       u.reasons,
		Chart:         u.chart,
		ToggleInflow:  u.toggleInflow,
		ToggleOutflow: u.toggleOutflow,
		Table:         u.table,
	}
}

// predictorFunc adapts a function to Predictor.
type predictorFunc func(ctx context.Context, req Request) (*Response, error)

func (f predictorFunc) Predict(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
