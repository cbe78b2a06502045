// Package formhandler submits forecast requests and renders the response into
// injected UI surfaces: summary fields, a reasons list, a chart and a table.
package formhandler

import (
	"context"
	"log"

	"github.com/lox/migrationforecast/internal/metrics"
)

const (
	IdleLabel = "🔮 Generate Forecast"
	BusyLabel = "🔄 Generating..."

	GenericErrorAlert = "Error generating forecast. Try again!"
	ErrorAlertPrefix  = "Error generating forecast: "

	reasonBullet = "• "
)

// Predictor issues a single prediction call.
type Predictor interface {
	Predict(ctx context.Context, req Request) (*Response, error)
}

// State is the submission state of a Handler.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Outcome reports which exit path a submission took.
type Outcome int

const (
	// Rendered means the summary, chart and table were all updated.
	Rendered Outcome = iota
	// Rejected means the service answered with an error field.
	Rejected
	// Failed means the call, the response body or the chart failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case Rejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Handler is confined to the goroutine that drives its surfaces. The disabled
// submit control is a UI hint only: Submit never refuses a call.
type Handler struct {
	predictor  Predictor
	ui         Surfaces
	state      State
	visibility [seriesCount]Visibility
}

func New(predictor Predictor, ui Surfaces) *Handler {
	return &Handler{predictor: predictor, ui: ui.withDefaults()}
}

// State returns the current submission state.
func (h *Handler) State() State {
	return h.state
}

// Visibility returns the handler's view of a series' visibility.
func (h *Handler) Visibility(s Series) Visibility {
	if s < 0 || s >= seriesCount {
		return Visible
	}
	return h.visibility[s]
}

// Submit sends one prediction request for district and the raw years input and
// renders the result. Every exit path re-enables the submit control.
func (h *Handler) Submit(ctx context.Context, district, yearsInput string) Outcome {
	outcome := h.submit(ctx, district, yearsInput)
	metrics.FormSubmissions.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (h *Handler) submit(ctx context.Context, district, yearsInput string) Outcome {
	defer h.begin()()

	req := Request{District: district, Years: ParseYears(yearsInput)}
	resp, err := h.predictor.Predict(ctx, req)
	if err != nil {
		return h.fail(req, err)
	}

	if msg, ok := resp.ErrorMessage(); ok {
		h.ui.Alerts.Alert(ErrorAlertPrefix + msg)
		return Rejected
	}

	rows, err := resp.Rows()
	if err != nil {
		return h.fail(req, &RequestFailure{Op: "decode", Err: err})
	}

	if err := h.render(resp, rows); err != nil {
		return h.fail(req, err)
	}
	return Rendered
}

func (h *Handler) begin() (done func()) {
	label := h.ui.Submit.Label()
	if label == "" || label == BusyLabel {
		label = IdleLabel
	}
	h.state = Submitting
	h.ui.Submit.SetLabel(BusyLabel)
	h.ui.Submit.SetEnabled(false)

	return func() {
		h.ui.Submit.SetLabel(label)
		h.ui.Submit.SetEnabled(true)
		h.state = Idle
	}
}

func (h *Handler) fail(req Request, err error) Outcome {
	log.Printf("formhandler: forecast %q (years=%s): %v", req.District, req.Years, err)
	h.ui.Alerts.Alert(GenericErrorAlert)
	return Failed
}

func (h *Handler) render(resp *Response, rows []TableRow) error {
	h.ui.Results.Reveal()
	h.ui.InflowValue.SetText(resp.InflowPred.String())
	h.ui.OutflowValue.SetText(resp.OutflowPred.String())
	h.ui.GrowthValue.SetText(resp.AvgGrowth.String() + "%")

	h.ui.Reasons.Clear()
	for _, r := range DisplayReasons(resp.Reasons) {
		h.ui.Reasons.Append(reasonBullet + r)
	}

	spec := BuildChart(resp.District.String(), rows)
	if err := h.ui.Chart.Plot(spec); err != nil {
		return err
	}

	// A fresh plot redraws every trace, so owned visibility restarts from it.
	for i, tr := range spec.Traces {
		h.visibility[i] = tr.Visible
	}
	h.wireToggle(SeriesInflow)
	h.wireToggle(SeriesOutflow)

	// Cells are trusted same-origin values and are not escaped here.
	h.ui.Table.Clear()
	for _, row := range rows {
		h.ui.Table.AppendRow(row.Year.String(), row.Inflow.String(), row.Outflow.String())
	}
	return nil
}

func (h *Handler) wireToggle(s Series) {
	ctl := h.ui.toggle(s)
	ctl.SetActive(h.visibility[s] == Visible)
	ctl.OnClick(func() { h.Toggle(s) })
}

// Toggle flips a series between visible and hidden-via-legend, restyles the
// chart without waiting for it and mirrors the new state on the toggle control.
func (h *Handler) Toggle(s Series) Visibility {
	if s < 0 || s >= seriesCount {
		return Visible
	}
	next := h.visibility[s].Flip()
	h.visibility[s] = next
	h.ui.Chart.Restyle(int(s), next)
	h.ui.toggle(s).SetActive(next == Visible)
	return next
}
