package api

import (
	"github.com/lox/migrationforecast/internal/chart"
	"github.com/lox/migrationforecast/internal/formhandler"
)

// htmlSurfaces collects handler output into a ResultView for one request.
type htmlSurfaces struct {
	page    *PageData
	result  *ResultView
	chart   *chart.View
	toggles map[formhandler.Series]*htmlToggle
}

func newHTMLSurfaces(page *PageData) *htmlSurfaces {
	return &htmlSurfaces{
		page:   page,
		result: &ResultView{},
		chart:  &chart.View{},
		toggles: map[formhandler.Series]*htmlToggle{
			formhandler.SeriesInflow:  {},
			formhandler.SeriesOutflow: {},
		},
	}
}

func (h *htmlSurfaces) surfaces() formhandler.Surfaces {
	return formhandler.Surfaces{
		Submit:        htmlButton{h.page},
		Alerts:        htmlAlerts{h.page},
		Results:       htmlPanel{h.result},
		InflowValue:   htmlField{&h.result.Inflow},
		OutflowValue:  htmlField{&h.result.Outflow},
		GrowthValue:   htmlField{&h.result.Growth},
		Reasons:       htmlList{&h.result.Reasons},
		Chart:         h.chart,
		ToggleInflow:  h.toggles[formhandler.SeriesInflow],
		ToggleOutflow: h.toggles[formhandler.SeriesOutflow],
		Table:         htmlTable{&h.result.Rows},
	}
}

// click replays a toggle click, if the handler wired one.
func (h *htmlSurfaces) click(s formhandler.Series) bool {
	t := h.toggles[s]
	if t == nil || t.onClick == nil {
		return false
	}
	t.onClick()
	return true
}

type htmlButton struct{ page *PageData }

func (b htmlButton) Label() string     { return b.page.ButtonLabel }
func (b htmlButton) SetLabel(l string) { b.page.ButtonLabel = l }
func (b htmlButton) SetEnabled(bool)   {}

type htmlAlerts struct{ page *PageData }

func (a htmlAlerts) Alert(msg string) { a.page.Alerts = append(a.page.Alerts, msg) }

type htmlPanel struct{ r *ResultView }

func (p htmlPanel) Reveal() { p.r.Revealed = true }

type htmlField struct{ dst *string }

func (f htmlField) SetText(t string) { *f.dst = t }

type htmlList struct{ items *[]string }

func (l htmlList) Clear()             { *l.items = nil }
func (l htmlList) Append(item string) { *l.items = append(*l.items, item) }

type htmlToggle struct {
	active  bool
	onClick func()
}

func (t *htmlToggle) SetActive(a bool)  { t.active = a }
func (t *htmlToggle) OnClick(fn func()) { t.onClick = fn }

type htmlTable struct{ rows *[][]string }

func (t htmlTable) Clear()                    { *t.rows = nil }
func (t htmlTable) AppendRow(cells ...string) { *t.rows = append(*t.rows, cells) }
