package control

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"turtle/internal/motion"
	"turtle/internal/sim"
	"turtle/internal/steering"
)

func newSimLoop(t *testing.T, cfg Config, s sim.Script) (*Loop, *sim.Robot) {
	t.Helper()
	r, err := sim.New(s)
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	l, err := New(cfg, Deps{Sensors: r, Motors: r, Clock: r, Run: r})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, r
}

func TestRun_StraightTrackOutAndBack(t *testing.T) {
	s := sim.DefaultScript()
	s.Presses = []time.Duration{100 * time.Millisecond, 2 * time.Second}
	cfg := testConfig()
	cfg.WaitForStart = true

	l, r := newSimLoop(t, cfg, s)
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := l.State()
	if st.Phase != PhaseDone {
		t.Fatalf("phase=%s want done", st.Phase)
	}
	if len(st.Degenerate) != 0 {
		t.Fatalf("degenerate=%v", st.Degenerate)
	}
	// The line ends at 600 mm and the sensors sit 30 mm ahead of the axle.
	pose := st.Tracker.Pose()
	if pose.Y < 5600 || pose.Y > 5800 || pose.X < -20 || pose.X > 20 {
		t.Fatalf("pose at loss=%s want about (0, 5700)", pose)
	}
	if pose.Heading > 2 && pose.Heading < 358 {
		t.Fatalf("heading at loss=%d want about 0", pose.Heading)
	}

	x, y, _ := r.Pose()
	if math.Abs(x) > 20 || math.Abs(y) > 20 {
		t.Fatalf("robot finished at (%.1f, %.1f) mm, want near the origin", x, y)
	}
	if ml, mr := r.Motors(); ml != 0 || mr != 0 {
		t.Fatalf("motors=(%d,%d) want stopped", ml, mr)
	}
}

func TestFollow_ArcTrackDeadReckoningTracksTruth(t *testing.T) {
	s := sim.DefaultScript()
	s.Track = sim.TrackScript{Kind: "arc", RadiusMM: 300, SweepDeg: 90, LengthMM: 200}
	l, r := newSimLoop(t, testConfig(), s)
	ctx := context.Background()

	if err := l.Dance(ctx); err != nil {
		t.Fatalf("Dance: %v", err)
	}
	l.st.Steering.SetMode(steering.ModeFollowing)
	pose, err := l.Follow(ctx)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}

	x, y, h := r.Pose()
	if x < 400 || y < 250 {
		t.Fatalf("robot stopped at (%.1f, %.1f), expected near the lead-out end", x, y)
	}
	if d := math.Abs(float64(pose.X)/10 - x); d > 40 {
		t.Fatalf("x estimate %d vs truth %.1f mm", pose.X, x)
	}
	if d := math.Abs(float64(pose.Y)/10 - y); d > 40 {
		t.Fatalf("y estimate %d vs truth %.1f mm", pose.Y, y)
	}
	dh := math.Abs(float64(pose.Heading) - h)
	if dh > 180 {
		dh = 360 - dh
	}
	if dh > 10 {
		t.Fatalf("heading estimate %d vs truth %.1f", pose.Heading, h)
	}
}

func gappedScript() sim.Script {
	s := sim.DefaultScript()
	s.Track.LengthMM = 900
	s.Track.Gaps = []sim.Gap{
		{AtMM: 150, WidthMM: 6},
		{AtMM: 350, WidthMM: 6},
		{AtMM: 550, WidthMM: 6},
		{AtMM: 750, WidthMM: 6},
	}
	s.Chassis.MMPerSecPerCmd = 5
	s.Chassis.DeadZoneMMPerSec = 30
	return s
}

func TestCalibrateSpeed_RecoversChassis(t *testing.T) {
	l, _ := newSimLoop(t, testConfig(), gappedScript())
	ctx := context.Background()
	if err := l.Dance(ctx); err != nil {
		t.Fatalf("Dance: %v", err)
	}
	if err := l.CalibrateSpeed(ctx, 40, 80); err != nil {
		t.Fatalf("CalibrateSpeed: %v", err)
	}

	m := l.State().Model
	// The chassis runs 170 mm/s at 40 and 370 mm/s at 80.
	if v := m.Speed(40); v < 1640 || v > 1760 {
		t.Fatalf("speed(40)=%d want ~1700 (%s)", v, m)
	}
	if v := m.Speed(80); v < 3600 || v > 3800 {
		t.Fatalf("speed(80)=%d want ~3700 (%s)", v, m)
	}
	if l.State().Phase != PhaseCalibrating {
		t.Fatalf("phase=%s", l.State().Phase)
	}
}

func TestCalibrateSpeed_TimeoutKeepsModel(t *testing.T) {
	cfg := testConfig()
	cfg.Calibration.TrialTimeout = 300 * time.Millisecond
	l, r := newSimLoop(t, cfg, sim.DefaultScript())
	ctx := context.Background()
	if err := l.Dance(ctx); err != nil {
		t.Fatalf("Dance: %v", err)
	}
	err := l.CalibrateSpeed(ctx, 40, 80)
	if !errors.Is(err, ErrTrialTimeout) {
		t.Fatalf("err=%v want ErrTrialTimeout", err)
	}
	if l.State().Model != motion.DefaultModel() {
		t.Fatalf("model=%s want factory", l.State().Model)
	}
	if ml, mr := r.Motors(); ml != 0 || mr != 0 {
		t.Fatalf("motors=(%d,%d) want stopped", ml, mr)
	}
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	cfg := testConfig()
	cfg.WaitForStart = true
	l, r := newSimLoop(t, cfg, sim.DefaultScript())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if l.State().Phase != PhaseWaiting {
		t.Fatalf("phase=%s want waiting", l.State().Phase)
	}
	if ml, mr := r.Motors(); ml != 0 || mr != 0 {
		t.Fatalf("motors=(%d,%d) want stopped", ml, mr)
	}
}
