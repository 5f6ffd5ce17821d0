// Package deadreckon integrates wheel commands over time into a pose
// estimate relative to the start position and heading.
package deadreckon

import (
	"fmt"

	"turtle/internal/motion"
	"turtle/internal/steering"
	"turtle/internal/trig"
)

// Scale cancels the x1000 trig factor and the x1000 ms time unit.
const Scale = trig.Scale * 1000

const fullTurnMilli = 360 * 1000

// Pose is heading in whole degrees [0,360), clockwise from the start
// direction, and displacement in 0.1 mm. +Y is the start direction, +X is to
// its right.
type Pose struct {
	Heading int
	X       int64
	Y       int64
}

func (p Pose) String() string {
	return fmt.Sprintf("heading=%d x=%d y=%d", p.Heading, p.X, p.Y)
}

// Tracker is the kinematic integrator. Not safe for concurrent use.
type Tracker struct {
	model motion.Model

	headingMilli int64
	// Accumulated displacement, still multiplied by Scale.
	accX int64
	accY int64

	frozen bool
}

func NewTracker(model motion.Model) *Tracker {
	return &Tracker{model: model}
}

// SetModel swaps the motor response model, e.g. after recalibration.
func (t *Tracker) SetModel(m motion.Model) { t.model = m }

// Update advances the pose by one cycle of cmd lasting dtMS milliseconds.
// It is a no-op once the tracker is frozen.
func (t *Tracker) Update(cmd steering.Command, dtMS int64) {
	if t.frozen || dtMS <= 0 {
		return
	}
	rate := t.model.AngularRate(cmd.Left, cmd.Right)
	delta := rate * dtMS // deg/s * ms = millidegrees

	// Midpoint heading, taken before wraparound so 359->1 averages to 0.
	mean := normalizeMilli(t.headingMilli+delta/2) / 1000

	speed := t.model.Speed((cmd.Left + cmd.Right) / 2)
	t.accX += int64(trig.Sin(int(mean))) * speed * dtMS
	t.accY += int64(trig.Cos(int(mean))) * speed * dtMS

	t.headingMilli = normalizeMilli(t.headingMilli + delta)
}

// Pose returns the current estimate.
func (t *Tracker) Pose() Pose {
	return Pose{
		Heading: int(t.headingMilli / 1000),
		X:       t.accX / Scale,
		Y:       t.accY / Scale,
	}
}

// HeadingMilli returns the heading in millidegrees [0,360000).
func (t *Tracker) HeadingMilli() int64 { return t.headingMilli }

// Freeze stops all further updates.
func (t *Tracker) Freeze() { t.frozen = true }

func (t *Tracker) Frozen() bool { return t.frozen }

// Reset returns to the origin pose and unfreezes.
func (t *Tracker) Reset() {
	t.headingMilli = 0
	t.accX = 0
	t.accY = 0
	t.frozen = false
}

func normalizeMilli(v int64) int64 {
	v %= fullTurnMilli
	if v < 0 {
		v += fullTurnMilli
	}
	return v
}
