package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/lox/migrationforecast/internal/chart"
	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/imagegen"
)

// submitForImage runs the forecast handler for an image endpoint. On a
// rejected or failed submission it writes the error response and returns false.
func (s *Server) submitForImage(ctx context.Context, w http.ResponseWriter, district, years string, ui formhandler.Surfaces) (*formhandler.Handler, bool) {
	var page PageData
	ui.Alerts = htmlAlerts{&page}
	h := formhandler.New(s.imagePredictor, ui)

	switch h.Submit(ctx, district, years) {
	case formhandler.Rendered:
		return h, true
	case formhandler.Rejected:
		http.Error(w, strings.Join(page.Alerts, "\n"), http.StatusBadRequest)
	default:
		http.Error(w, strings.Join(page.Alerts, "\n"), http.StatusBadGateway)
	}
	return nil, false
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	district, years := q.Get("district"), q.Get("years")
	key := "chart?" + forecastQuery(district, years, q["toggle"]).Encode()
	if data, ok := s.images.Get(key); ok {
		servePNG(w, data)
		return
	}

	view := &chart.View{}
	h, ok := s.submitForImage(r.Context(), w, district, years, formhandler.Surfaces{Chart: view})
	if !ok {
		return
	}
	for _, t := range q["toggle"] {
		if series, ok := formhandler.ParseSeries(t); ok {
			h.Toggle(series)
		}
	}

	data, err := view.PNG()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.images.Set(key, data)
	servePNG(w, data)
}

func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	district, years := q.Get("district"), q.Get("years")
	key := "card?" + forecastQuery(district, years, nil).Encode()
	if data, ok := s.images.Get(key); ok {
		servePNG(w, data)
		return
	}

	var page PageData
	ui := newHTMLSurfaces(&page)
	if _, ok := s.submitForImage(r.Context(), w, district, years, ui.surfaces()); !ok {
		return
	}

	res := ui.result
	reasons := make([]string, len(res.Reasons))
	for i, item := range res.Reasons {
		reasons[i] = strings.TrimPrefix(item, "• ")
	}
	parsed := formhandler.ParseYears(years)
	data, err := imagegen.GenerateCard(imagegen.CardData{
		District:  district,
		Years:     parsed.Value,
		Inflow:    res.Inflow,
		Outflow:   res.Outflow,
		AvgGrowth: strings.TrimSuffix(res.Growth, "%"),
		Reasons:   reasons,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.images.Set(key, data)
	servePNG(w, data)
}

func servePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}
