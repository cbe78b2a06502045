package chart

import (
	"errors"

	"github.com/lox/migrationforecast/internal/formhandler"
)

// View is a formhandler.ChartView that keeps the plotted spec and applies
// restyles to it, so the current state can be rendered at any time.
type View struct {
	spec *formhandler.ChartSpec
}

func (v *View) Plot(spec formhandler.ChartSpec) error {
	if len(spec.Traces) == 0 {
		return errors.New("chart has no traces")
	}
	cp := spec
	cp.Traces = append([]formhandler.Trace(nil), spec.Traces...)
	v.spec = &cp
	return nil
}

func (v *View) Restyle(index int, vis formhandler.Visibility) {
	if v.spec == nil || index < 0 || index >= len(v.spec.Traces) {
		return
	}
	v.spec.Traces[index].Visible = vis
}

// Spec returns the current chart, or false if nothing was plotted yet.
func (v *View) Spec() (formhandler.ChartSpec, bool) {
	if v.spec == nil {
		return formhandler.ChartSpec{}, false
	}
	return *v.spec, true
}

// PNG renders the current chart.
func (v *View) PNG() ([]byte, error) {
	spec, ok := v.Spec()
	if !ok {
		return nil, errors.New("nothing plotted")
	}
	return RenderPNG(spec)
}
