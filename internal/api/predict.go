package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lox/migrationforecast/internal/forecast"
	"github.com/lox/migrationforecast/internal/formhandler"
	"github.com/lox/migrationforecast/internal/metrics"
	"github.com/lox/migrationforecast/internal/models"
)

// DefaultYears is used when a request omits years.
const DefaultYears = 5

var errYearsNotInteger = errors.New("years must be an integer")

type predictRequest struct {
	District string
	Years    int
}

type predictResponse struct {
	District    string                `json:"district"`
	InflowPred  int64                 `json:"inflow_pred"`
	OutflowPred int64                 `json:"outflow_pred"`
	TableData   []forecast.Projection `json:"table_data"`
	AvgGrowth   float64               `json:"avg_growth"`
	Reasons     []string              `json:"reasons"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodePredictJSON reads {"district", "years"} from a JSON body.
func decodePredictJSON(body []byte) (predictRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return predictRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	req := predictRequest{Years: DefaultYears}
	if d, ok := raw["district"]; ok {
		var s *string
		if err := json.Unmarshal(d, &s); err != nil {
			return req, errors.New("district must be a string")
		}
		if s != nil {
			req.District = *s
		}
	}
	if y, ok := raw["years"]; ok {
		years, err := yearsFromJSON(y)
		if err != nil {
			return req, err
		}
		req.Years = years
	}
	return req, nil
}

// yearsFromJSON accepts a number, truncated toward zero, or an integer string.
func yearsFromJSON(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errYearsNotInteger
		}
		return yearsFromString(s)
	}
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil || f == nil || math.IsNaN(*f) {
		return 0, errYearsNotInteger
	}
	switch {
	case *f > forecast.MaxYears:
		return 0, forecast.ErrYearsTooLarge
	case *f < 0:
		return 0, forecast.ErrInvalidYears
	}
	return int(*f), nil
}

func yearsFromString(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errYearsNotInteger
	}
	return n, nil
}

func parsePredictRequest(w http.ResponseWriter, r *http.Request) (predictRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, 1<<20)); err != nil {
			return predictRequest{}, fmt.Errorf("read body: %w", err)
		}
		return decodePredictJSON(buf.Bytes())
	}

	if err := r.ParseForm(); err != nil {
		return predictRequest{}, fmt.Errorf("parse form: %w", err)
	}
	req := predictRequest{District: r.PostForm.Get("district"), Years: DefaultYears}
	if _, ok := r.PostForm["years"]; ok {
		years, err := yearsFromString(r.PostForm.Get("years"))
		if err != nil {
			return req, err
		}
		req.Years = years
	}
	return req, nil
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parsePredictRequest(w, r)
	if err != nil {
		s.logPrediction(predictRequest{District: req.District}, nil, err)
		writePredictError(w, err)
		return
	}
	resp, err := s.predict(r.Context(), req)
	if err != nil {
		writePredictError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writePredictError(w http.ResponseWriter, err error) {
	metrics.PredictionsTotal.WithLabelValues("error").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// predict projects a district and logs the call.
func (s *Server) predict(ctx context.Context, req predictRequest) (*predictResponse, error) {
	start := time.Now()
	resp, res, err := s.project(ctx, req)
	if err != nil {
		s.logPrediction(req, nil, err)
		return nil, err
	}
	metrics.PredictionLatency.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues("ok").Inc()

	s.logPrediction(req, res, nil)
	return resp, nil
}

func (s *Server) project(ctx context.Context, req predictRequest) (*predictResponse, *forecast.Result, error) {
	res, err := s.projector.Project(req.District, req.Years)
	if err != nil {
		return nil, nil, err
	}
	return &predictResponse{
		District:    req.District,
		InflowPred:  res.InflowPred,
		OutflowPred: res.OutflowPred,
		TableData:   res.TableData,
		AvgGrowth:   res.AvgGrowth,
		Reasons:     s.reasons.Reasons(ctx, req.District),
	}, res, nil
}

func (s *Server) logPrediction(req predictRequest, res *forecast.Result, err error) {
	entry := models.PredictionLog{District: req.District}
	if req.Years != 0 {
		entry.Years = sql.NullInt64{Int64: int64(req.Years), Valid: true}
	}
	if res != nil {
		entry.InflowPred = sql.NullInt64{Int64: res.InflowPred, Valid: true}
		entry.OutflowPred = sql.NullInt64{Int64: res.OutflowPred, Valid: true}
		entry.AvgGrowth = sql.NullFloat64{Float64: res.AvgGrowth, Valid: true}
	}
	if err != nil {
		entry.Error = sql.NullString{String: err.Error(), Valid: true}
	}
	if _, err := s.store.InsertPrediction(entry); err != nil {
		log.Printf("api: log prediction: %v", err)
	}
}

// localPredictor serves formhandler requests without a network hop. It goes
// through the same JSON encoding as the remote endpoint. Unrecorded predictors
// leave the prediction log and counters alone.
type localPredictor struct {
	s      *Server
	record bool
}

func (p localPredictor) Predict(ctx context.Context, req formhandler.Request) (*formhandler.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &formhandler.RequestFailure{Op: "encode", Err: err}
	}

	var out any
	preq, err := decodePredictJSON(body)
	switch {
	case err != nil:
		if p.record {
			p.s.logPrediction(preq, nil, err)
		}
	case p.record:
		out, err = p.s.predict(ctx, preq)
	default:
		out, _, err = p.s.project(ctx, preq)
	}
	if err != nil {
		if p.record {
			metrics.PredictionsTotal.WithLabelValues("error").Inc()
		}
		out = errorResponse{Error: err.Error()}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, &formhandler.RequestFailure{Op: "encode", Err: err}
	}
	var resp formhandler.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &formhandler.RequestFailure{Op: "decode", Err: err}
	}
	return &resp, nil
}
