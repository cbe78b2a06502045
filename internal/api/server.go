package api

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/migrationforecast/internal/forecast"
	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/imagegen"
	"github.com/lox/migrationforecast/internal/store"
)

// Options configures optional collaborators of the server.
type Options struct {
	// ForecastURL points server-rendered forecasts at a remote /predict
	// service. Empty means the server predicts in-process.
	ForecastURL string
	// Reasons generates drivers for districts without a curated list.
	Reasons forecast.ReasonGenerator
	// Estimator supplies a base inflow when the dataset has none.
	Estimator forecast.BaseEstimator
	// ImageTTL is how long rendered charts and cards are cached.
	ImageTTL time.Duration
}

type Server struct {
	store     *store.Store
	port      string
	tmpl      *template.Template
	projector *forecast.Projector
	reasons   *forecast.ReasonResolver
	predictor formhandler.Predictor
	// imagePredictor backs the image routes, which redraw a forecast the
	// page already logged.
	imagePredictor formhandler.Predictor
	images         *imagegen.CardCache
}

func NewServer(st *store.Store, port string, opts Options) *Server {
	ttl := opts.ImageTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &Server{
		store:     st,
		port:      port,
		tmpl:      newTemplates(),
		projector: forecast.NewProjector(st, opts.Estimator),
		reasons:   forecast.NewReasonResolver(st, opts.Reasons),
		images:    imagegen.NewCardCache(ttl),
	}
	if opts.ForecastURL != "" {
		log.Printf("api: forecasts served by %s", opts.ForecastURL)
		s.predictor = formhandler.NewClient(opts.ForecastURL)
		s.imagePredictor = s.predictor
	} else {
		s.predictor = localPredictor{s: s, record: true}
		s.imagePredictor = localPredictor{s: s}
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/forecast", s.handleForecast)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/chart.png", s.handleChartImage)
	mux.HandleFunc("/card.png", s.handleCardImage)
	mux.HandleFunc("/export.xlsx", s.handleExport)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/districts", s.handleAPIDistricts)
	mux.HandleFunc("/api/predictions", s.handleAPIPredictions)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
