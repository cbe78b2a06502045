package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migrationforecast_predictions_total",
			Help: "Total forecasts served by /predict and the forecast page",
		},
		[]string{"outcome"},
	)

	PredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "migrationforecast_prediction_latency_seconds",
			Help:    "Time to build a district projection in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PredictClientCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migrationforecast_predict_client_calls_total",
			Help: "Outbound prediction calls by HTTP status",
		},
		[]string{"status"},
	)

	PredictClientLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "migrationforecast_predict_client_latency_seconds",
			Help:    "Outbound prediction call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migrationforecast_form_submissions_total",
			Help: "Forecast form submissions by outcome",
		},
		[]string{"outcome"},
	)

	ReasonsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migrationforecast_reasons_generated_total",
			Help: "Migration driver generations for unmapped districts",
		},
		[]string{"status"},
	)

	RecordsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "migrationforecast_records_imported_total",
			Help: "Total dataset rows imported from workbooks",
		},
	)

	ImagesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migrationforecast_images_rendered_total",
			Help: "Chart and summary card PNG renders",
		},
		[]string{"kind"},
	)
)
