// Package robot declares the hardware collaborators the control core talks
// to. Implementations live in internal/sensors, internal/actuators,
// internal/button and internal/sim.
package robot

import (
	"time"

	"turtle/internal/linesensor"
)

// SensorArray yields one raw reflectance frame per call.
type SensorArray interface {
	ReadFrame() (linesensor.Frame, error)
}

// Motors accepts signed wheel commands. Calls are idempotent.
type Motors interface {
	SetMotors(left, right int) error
}

// Clock is the loop's time source. Sleep always runs to completion.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// RunSignal reports whether the run/stop input was pressed since the last
// call. It is sampled once per control cycle.
type RunSignal interface {
	Toggled() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// NoSignal never toggles.
type NoSignal struct{}

func (NoSignal) Toggled() bool { return false }

// AnySignal toggles when any input toggled. Every input is sampled on each
// call so no press stays latched.
type AnySignal []RunSignal

func (a AnySignal) Toggled() bool {
	t := false
	for _, s := range a {
		if s != nil && s.Toggled() {
			t = true
		}
	}
	return t
}
