package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/lox/migrationforecast/internal/workbook"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleAPIDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := s.store.ListDistricts()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if districts == nil {
		districts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"districts":     districts,
		"years_options": YearOptions,
	})
}

type predictionView struct {
	District    string    `json:"district"`
	Years       *int64    `json:"years"`
	InflowPred  *int64    `json:"inflow_pred,omitempty"`
	OutflowPred *int64    `json:"outflow_pred,omitempty"`
	AvgGrowth   *float64  `json:"avg_growth,omitempty"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func (s *Server) handleAPIPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	logs, err := s.store.RecentPredictions(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	out := make([]predictionView, 0, len(logs))
	for _, l := range logs {
		v := predictionView{District: l.District, Error: l.Error.String, RequestedAt: l.RequestedAt}
		if l.Years.Valid {
			v.Years = &l.Years.Int64
		}
		if l.InflowPred.Valid {
			v.InflowPred = &l.InflowPred.Int64
		}
		if l.OutflowPred.Valid {
			v.OutflowPred = &l.OutflowPred.Int64
		}
		if l.AvgGrowth.Valid {
			v.AvgGrowth = &l.AvgGrowth.Float64
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

type HealthStatus struct {
	Status     string     `json:"status"`
	Records    int        `json:"records"`
	LastImport *time.Time `json:"last_import,omitempty"`
	Source     string     `json:"source,omitempty"`
	Errors     []string   `json:"errors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok"}
	n, err := s.store.CountDistrictRecords()
	if err != nil {
		health.Errors = append(health.Errors, "records: "+err.Error())
	}
	health.Records = n

	latest, err := s.store.LatestImport()
	if err != nil {
		health.Errors = append(health.Errors, "imports: "+err.Error())
	} else if latest != nil {
		health.LastImport = &latest.FetchedAt
		health.Source = latest.Source
	}

	if n == 0 {
		health.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, health)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// handleExport writes the district projection as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	district := q.Get("district")
	years := DefaultYears
	if v := q.Get("years"); v != "" {
		n, err := yearsFromString(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		years = n
	}

	res, err := s.projector.Project(district, years)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := workbook.WriteForecast(&buf, res, s.reasons.Reasons(r.Context(), district)); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	name := unsafeFilename.ReplaceAllString(district, "_")
	if name == "" {
		name = "forecast"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%dy.xlsx"`, name, years))
	w.Write(buf.Bytes())
}
