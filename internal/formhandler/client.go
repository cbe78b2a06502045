package formhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lox/migrationforecast/internal/httputil"
	"github.com/lox/migrationforecast/internal/metrics"
)

// PredictPath is the prediction endpoint relative to the service base URL.
const PredictPath = "/predict"

// RequestFailure is a transport or decoding failure of a prediction call.
type RequestFailure struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("predict %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("predict %s: %v", e.Op, e.Err)
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// Client is a Predictor that POSTs to a remote forecasting service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httputil.NewClientWithTimeout(0),
	}
}

// Predict sends req and decodes the body as JSON whatever the status code, so
// application errors reported with a 500 still reach the caller as a Response.
func (c *Client) Predict(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestFailure{Op: "encode", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PredictPath, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestFailure{Op: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.PredictClientLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictClientCalls.WithLabelValues("error").Inc()
		return nil, &RequestFailure{Op: "post", Err: err}
	}
	defer resp.Body.Close()
	metrics.PredictClientCalls.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestFailure{Op: "read body", StatusCode: resp.StatusCode, Err: err}
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &RequestFailure{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	return &out, nil
}
