package sim

import (
	"math"
	"testing"
	"time"
)

func newRobot(t *testing.T, s Script) *Robot {
	t.Helper()
	r, err := New(s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestRobot_StraightDrive(t *testing.T) {
	r := newRobot(t, DefaultScript())
	_ = r.SetMotors(50, 50)
	r.Sleep(time.Second)

	x, y, h := r.Pose()
	if math.Abs(x) > 1e-6 || h != 0 {
		t.Fatalf("x=%v heading=%v want 0,0", x, h)
	}
	// 50*4.76-33 mm/s.
	if math.Abs(y-205) > 0.01 {
		t.Fatalf("y=%v want 205", y)
	}
	if got := r.Elapsed(); got != time.Second {
		t.Fatalf("elapsed=%v want 1s", got)
	}
}

func TestRobot_PointTurnMatchesFactoryRate(t *testing.T) {
	r := newRobot(t, DefaultScript())
	_ = r.SetMotors(40, -40)
	r.Sleep(time.Second)

	x, y, h := r.Pose()
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Fatalf("point turn moved the chassis: x=%v y=%v", x, y)
	}
	// 2*157.4/82 rad/s.
	if math.Abs(h-219.96) > 0.05 {
		t.Fatalf("heading=%v want ~219.96", h)
	}
}

func TestRobot_DeadZone(t *testing.T) {
	r := newRobot(t, DefaultScript())
	_ = r.SetMotors(5, 5)
	r.Sleep(time.Second)
	if _, y, _ := r.Pose(); y != 0 {
		t.Fatalf("y=%v want 0 inside the dead-zone", y)
	}
}

func TestRobot_ReadFrameCenteredOnLine(t *testing.T) {
	r := newRobot(t, DefaultScript())
	f, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	// Sensors at -16,-8,0,8,16 mm against a 19 mm line.
	want := [5]uint16{200, 2000, 2000, 2000, 200}
	for i := range want {
		if f[i] != want[i] {
			t.Fatalf("frame=%v want %v", f, want)
		}
	}
}

func TestRobot_ReadFrameOffTheEnd(t *testing.T) {
	s := DefaultScript()
	s.Track.LengthMM = 100
	r := newRobot(t, s)
	_ = r.SetMotors(50, 50)
	r.Sleep(time.Second)
	f, _ := r.ReadFrame()
	for i, v := range f {
		if v != 200 {
			t.Fatalf("channel %d=%d want light 200 (%v)", i, v, f)
		}
	}
}

func TestRobot_ScriptedAndManualPresses(t *testing.T) {
	s := DefaultScript()
	s.Presses = []time.Duration{0, time.Second}
	r := newRobot(t, s)

	if !r.Toggled() {
		t.Fatalf("expected press at t=0")
	}
	if r.Toggled() {
		t.Fatalf("press consumed twice")
	}
	r.Sleep(999 * time.Millisecond)
	if r.Toggled() {
		t.Fatalf("second press too early")
	}
	r.Sleep(time.Millisecond)
	if !r.Toggled() {
		t.Fatalf("expected second press at 1s")
	}
	r.Press()
	if !r.Toggled() || r.Toggled() {
		t.Fatalf("manual press should toggle exactly once")
	}
}
