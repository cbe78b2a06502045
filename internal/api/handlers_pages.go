package api

import (
	"log"
	"net/http"

	"github.com/lox/migrationforecast/internal/formhandler"
)

const recentPredictions = 10

func (s *Server) basePage() PageData {
	page := PageData{
		YearOptions: YearOptions,
		ButtonLabel: formhandler.IdleLabel,
	}
	districts, err := s.store.ListDistricts()
	if err != nil {
		log.Printf("api: list districts: %v", err)
	}
	page.Districts = districts

	recent, err := s.store.RecentPredictions(recentPredictions)
	if err != nil {
		log.Printf("api: recent predictions: %v", err)
	}
	page.Recent = recent
	return page
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, s.basePage())
}

// handleForecast submits the form through the forecast handler and renders its
// surfaces. Each toggle parameter replays one click on a series toggle.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	district, years := q.Get("district"), q.Get("years")

	page := s.basePage()
	page.District, page.Years = district, years

	ui := newHTMLSurfaces(&page)
	h := formhandler.New(s.predictor, ui.surfaces())
	if h.Submit(r.Context(), district, years) == formhandler.Rendered {
		var applied []string
		for _, t := range q["toggle"] {
			if series, ok := formhandler.ParseSeries(t); ok && ui.click(series) {
				applied = append(applied, t)
			}
		}
		res := ui.result
		res.Toggles = toggleViews(district, years, applied, h)
		res.ChartURL = "/chart.png?" + forecastQuery(district, years, applied).Encode()
		res.CardURL = "/card.png?" + forecastQuery(district, years, nil).Encode()
		res.ExportURL = "/export.xlsx?" + forecastQuery(district, years, nil).Encode()
		page.Result = res
	}
	s.render(w, page)
}

func (s *Server) render(w http.ResponseWriter, page PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", page); err != nil {
		log.Printf("api: render index: %v", err)
	}
}
