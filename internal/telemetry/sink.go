// Package telemetry carries observational values out of the control loop.
// Nothing written to a Sink is ever read back by the controller.
package telemetry

// Well-known labels emitted by the control loop.
const (
	Position   = "position"
	Left       = "left"
	Right      = "right"
	Heading    = "heading"
	X          = "x"
	Y          = "y"
	Mode       = "mode"
	Misses     = "misses"
	Degenerate = "degenerate"
	Bars       = "bars"
	CycleMS    = "cycle_ms"
	Phase      = "phase"
)

// Sink accepts labelled debug values.
type Sink interface {
	Show(label string, value int64)
}

// Func adapts a function to Sink.
type Func func(label string, value int64)

func (f Func) Show(label string, value int64) { f(label, value) }

type discard struct{}

func (discard) Show(string, int64) {}

// Discard drops everything.
var Discard Sink = discard{}

// Multi fans values out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

type multi []Sink

func (m multi) Show(label string, value int64) {
	for _, s := range m {
		s.Show(label, value)
	}
}
