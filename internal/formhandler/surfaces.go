package formhandler

// SubmitControl is the form's submit button.
type SubmitControl interface {
	Label() string
	SetLabel(label string)
	SetEnabled(enabled bool)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// Panel is a container that starts hidden.
type Panel interface {
	Reveal()
}

// TextField displays a single value.
type TextField interface {
	SetText(text string)
}

// ListView is a bulleted list.
type ListView interface {
	Clear()
	Append(item string)
}

// ChartView draws a ChartSpec. Restyle changes one trace's visibility and is
// not awaited.
type ChartView interface {
	Plot(spec ChartSpec) error
	Restyle(index int, v Visibility)
}

// ToggleControl is a button that flips one series. OnClick replaces any
// previously registered callback.
type ToggleControl interface {
	SetActive(active bool)
	OnClick(fn func())
}

// TableBody holds the forecast table rows.
type TableBody interface {
	Clear()
	AppendRow(cells ...string)
}

// Surfaces bundles the UI handles the handler renders into. Nil fields are
// replaced with no-op handles.
type Surfaces struct {
	Submit        SubmitControl
	Alerts        Alerter
	Results       Panel
	InflowValue   TextField
	OutflowValue  TextField
	GrowthValue   TextField
	Reasons       ListView
	Chart         ChartView
	ToggleInflow  ToggleControl
	ToggleOutflow ToggleControl
	Table         TableBody
}

func (s Surfaces) withDefaults() Surfaces {
	if s.Submit == nil {
		s.Submit = &nopButton{}
	}
	if s.Alerts == nil {
		s.Alerts = nop{}
	}
	if s.Results == nil {
		s.Results = nop{}
	}
	if s.InflowValue == nil {
		s.InflowValue = nop{}
	}
	if s.OutflowValue == nil {
		s.OutflowValue = nop{}
	}
	if s.GrowthValue == nil {
		s.GrowthValue = nop{}
	}
	if s.Reasons == nil {
		s.Reasons = nop{}
	}
	if s.Chart == nil {
		s.Chart = nop{}
	}
	if s.ToggleInflow == nil {
		s.ToggleInflow = nop{}
	}
	if s.ToggleOutflow == nil {
		s.ToggleOutflow = nop{}
	}
	if s.Table == nil {
		s.Table = nop{}
	}
	return s
}

func (s Surfaces) toggle(series Series) ToggleControl {
	if series == SeriesOutflow {
		return s.ToggleOutflow
	}
	return s.ToggleInflow
}

type nop struct{}

func (nop) Alert(string)            {}
func (nop) Reveal()                 {}
func (nop) SetText(string)          {}
func (nop) Clear()                  {}
func (nop) Append(string)           {}
func (nop) Plot(ChartSpec) error    { return nil }
func (nop) Restyle(int, Visibility) {}
func (nop) SetActive(bool)          {}
func (nop) OnClick(func())          {}
func (nop) AppendRow(...string)     {}

type nopButton struct{ label string }

func (b *nopButton) Label() string     { return b.label }
func (b *nopButton) SetLabel(l string) { b.label = l }
func (b *nopButton) SetEnabled(bool)   {}
