package control

import (
	"errors"
	"time"

	"turtle/internal/linesensor"
	"turtle/internal/steering"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type scriptSensors struct {
	frames []linesensor.Frame
	errs   []error
	i      int
}

// ReadFrame replays frames in order and repeats the last one.
func (s *scriptSensors) ReadFrame() (linesensor.Frame, error) {
	i := s.i
	s.i++
	if i < len(s.errs) && s.errs[i] != nil {
		return linesensor.Frame{}, s.errs[i]
	}
	if i >= len(s.frames) {
		i = len(s.frames) - 1
	}
	return s.frames[i], nil
}

type recordMotors struct {
	calls []steering.Command
	err   error
}

func (m *recordMotors) SetMotors(l, r int) error {
	m.calls = append(m.calls, steering.Command{Left: l, Right: r})
	return m.err
}

func (m *recordMotors) last() steering.Command {
	if len(m.calls) == 0 {
		return steering.Command{}
	}
	return m.calls[len(m.calls)-1]
}

type pressQueue struct {
	presses []bool
	i       int
}

func (p *pressQueue) Toggled() bool {
	i := p.i
	p.i++
	return i < len(p.presses) && p.presses[i]
}

type sinkRecorder struct {
	last map[string]int64
	n    map[string]int
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{last: map[string]int64{}, n: map[string]int{}}
}

func (s *sinkRecorder) Show(label string, v int64) {
	s.last[label] = v
	s.n[label]++
}

type frameLog struct {
	n   int
	err error
}

func (f *frameLog) RecordFrame(time.Time, linesensor.Frame) error {
	f.n++
	return f.err
}

var errBus = errors.New("bus fault")

// Bounds 100..1100 on every channel: normalized = (raw-100)/10.
func testBounds() linesensor.Bounds {
	b := linesensor.NewBounds()
	b.Update(linesensor.Frame{100, 100, 100, 100, 100})
	b.Update(linesensor.Frame{1100, 1100, 1100, 1100, 1100})
	return b
}

var (
	frameCentered = linesensor.Frame{100, 1100, 1100, 1100, 100}
	frameRight    = linesensor.Frame{100, 100, 100, 1100, 1100}
	frameNone     = linesensor.Frame{100, 100, 100, 100, 100}
	// Center faint (20), right edge strong: on-track for the full array,
	// off-track when only the center is monitored.
	frameEdgeOnly = linesensor.Frame{100, 100, 300, 100, 1100}
)

func testConfig() Config {
	return Config{
		Steering: steering.Config{Kp: 20, Kd: 25, Ki: 50, BaseSpeed: 40, MinMotor: 0, MaxMotor: 80},
	}
}
