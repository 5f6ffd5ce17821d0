package deadreckon

import (
	"testing"

	"turtle/internal/motion"
	"turtle/internal/steering"
)

func TestUpdate_ZeroDTLeavesPoseUnchanged(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	tr.Update(steering.Command{Left: 80, Right: 20}, 250)
	before := tr.Pose()
	beforeMilli := tr.HeadingMilli()

	tr.Update(steering.Command{Left: 120, Right: -120}, 0)
	if got := tr.Pose(); got != before {
		t.Fatalf("pose=%v want %v", got, before)
	}
	if tr.HeadingMilli() != beforeMilli {
		t.Fatalf("heading=%d want %d", tr.HeadingMilli(), beforeMilli)
	}
}

func TestUpdate_StraightDrive(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	var lastY int64
	for i := 0; i < 10; i++ {
		tr.Update(steering.Command{Left: 50, Right: 50}, 100)
		p := tr.Pose()
		if p.Heading != 0 {
			t.Fatalf("cycle %d heading=%d want 0", i, p.Heading)
		}
		if p.X != 0 {
			t.Fatalf("cycle %d x=%d want 0", i, p.X)
		}
		if p.Y <= lastY {
			t.Fatalf("cycle %d y=%d not increasing (prev %d)", i, p.Y, lastY)
		}
		lastY = p.Y
	}
	// speed(50)=2050 0.1mm/s for one second.
	if lastY != 2050 {
		t.Fatalf("y=%d want 2050", lastY)
	}
}

func TestUpdate_ReverseDrivesBackwards(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	tr.Update(steering.Command{Left: -50, Right: -50}, 1000)
	if p := tr.Pose(); p.Y != -2050 || p.Heading != 0 {
		t.Fatalf("pose=%v want y=-2050 heading=0", p)
	}
}

func TestUpdate_PointTurnClockwise(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	// 219 deg/s for 1s.
	tr.Update(steering.Command{Left: 40, Right: -40}, 1000)
	p := tr.Pose()
	if p.Heading != 219 {
		t.Fatalf("heading=%d want 219", p.Heading)
	}
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("point turn moved the robot: %v", p)
	}
}

func TestUpdate_HeadingWrapsBothWays(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	tr.Update(steering.Command{Left: -40, Right: 40}, 100)
	if h := tr.Pose().Heading; h < 330 || h >= 360 {
		t.Fatalf("heading=%d want just below 360", h)
	}
	for i := 0; i < 40; i++ {
		tr.Update(steering.Command{Left: 40, Right: -40}, 100)
	}
	if h := tr.HeadingMilli(); h < 0 || h >= 360000 {
		t.Fatalf("heading milli=%d out of range", h)
	}
}

func TestUpdate_MidpointAcrossNorth(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	tr.headingMilli = 359000
	// Small clockwise drift over north while driving: the midpoint stays near
	// north, so nearly all motion is +Y.
	tr.Update(steering.Command{Left: 52, Right: 48}, 100)
	p := tr.Pose()
	if p.Y <= 0 {
		t.Fatalf("y=%d want >0", p.Y)
	}
	if p.X < -5 || p.X > 5 {
		t.Fatalf("x=%d want ~0", p.X)
	}
}

func TestFreeze(t *testing.T) {
	tr := NewTracker(motion.DefaultModel())
	tr.Update(steering.Command{Left: 60, Right: 40}, 200)
	tr.Freeze()
	frozen := tr.Pose()
	tr.Update(steering.Command{Left: 100, Right: 100}, 1000)
	if got := tr.Pose(); got != frozen {
		t.Fatalf("pose=%v want frozen %v", got, frozen)
	}
	if !tr.Frozen() {
		t.Fatalf("expected frozen")
	}
	tr.Reset()
	if got := tr.Pose(); got != (Pose{}) || tr.Frozen() {
		t.Fatalf("after reset pose=%v frozen=%v", got, tr.Frozen())
	}
}
