package api

import (
	"net/url"

	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/models"
)

// YearOptions are the horizons offered by the forecast form.
var YearOptions = []int{5, 10, 15, 20, 25, 30, 35, 40, 45, 50}

// PageData is everything the index template renders.
type PageData struct {
	Districts   []string
	YearOptions []int
	District    string
	Years       string
	ButtonLabel string
	Alerts      []string
	Result      *ResultView
	Recent      []models.PredictionLog
}

// ResultView is the rendered forecast below the form.
type ResultView struct {
	Revealed  bool
	Inflow    string
	Outflow   string
	Growth    string
	Reasons   []string
	Toggles   []ToggleView
	ChartURL  string
	CardURL   string
	ExportURL string
	Rows      [][]string
}

// ToggleView is a series toggle rendered as a link that replays the clicks so
// far plus one more on this series.
type ToggleView struct {
	ID     string
	Label  string
	Active bool
	Href   string
}

// forecastQuery builds the query shared by the page, chart and card URLs.
func forecastQuery(district, years string, toggles []string) url.Values {
	q := url.Values{}
	q.Set("district", district)
	q.Set("years", years)
	for _, t := range toggles {
		q.Add("toggle", t)
	}
	return q
}

func toggleViews(district, years string, toggles []string, h *formhandler.Handler) []ToggleView {
	series := []struct {
		id    string
		label string
		s     formhandler.Series
	}{
		{"toggleInflow", "Inflow", formhandler.SeriesInflow},
		{"toggleOutflow", "Outflow", formhandler.SeriesOutflow},
	}
	views := make([]ToggleView, 0, len(series))
	for _, sr := range series {
		next := append(append([]string(nil), toggles...), sr.s.String())
		views = append(views, ToggleView{
			ID:     sr.id,
			Label:  sr.label,
			Active: h.Visibility(sr.s) == formhandler.Visible,
			Href:   "/forecast?" + forecastQuery(district, years, next).Encode(),
		})
	}
	return views
}
