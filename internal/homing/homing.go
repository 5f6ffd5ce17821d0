// Package homing plans and drives the open-loop return to the start point
// after the line is lost.
//
// The plan is: point-turn onto the Y axis facing the origin, drive |y|,
// point-turn 90 degrees toward the origin, drive |x|. No sensor feedback is
// used while it runs, so dead-reckoning error is carried straight into the
// final position.
package homing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turtle/internal/deadreckon"
	"turtle/internal/motion"
	"turtle/internal/robot"
	"turtle/internal/steering"
)

var (
	// ErrNoTurnRate is returned when the turn command sits in the dead-zone.
	ErrNoTurnRate = errors.New("homing: turn command produces no rotation")
	// ErrNoDriveSpeed is returned when the drive command sits in the dead-zone.
	ErrNoDriveSpeed = errors.New("homing: drive command produces no motion")
)

// Kind is the segment type.
type Kind int

const (
	KindTurn Kind = iota + 1
	KindDrive
)

func (k Kind) String() string {
	switch k {
	case KindTurn:
		return "turn"
	case KindDrive:
		return "drive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Segment is one timed, open-loop motor command.
type Segment struct {
	Kind     Kind
	Command  steering.Command
	Duration time.Duration
	// Degrees is the commanded turn for KindTurn.
	Degrees int
	// Distance is the commanded travel in 0.1 mm for KindDrive.
	Distance int64
}

// Plan is the ordered maneuver.
type Plan struct {
	From deadreckon.Pose
	// Reference is the heading the first turn aims for: 180 when the robot
	// ended up ahead of the start (y > 0), else 0.
	Reference int
	Segments  []Segment
}

// Total returns the summed segment durations.
func (p Plan) Total() time.Duration {
	var d time.Duration
	for _, s := range p.Segments {
		d += s.Duration
	}
	return d
}

func cw(speed int) steering.Command  { return steering.Command{Left: speed, Right: -speed} }
func ccw(speed int) steering.Command { return steering.Command{Left: -speed, Right: speed} }

// FaceTurn returns the turn magnitude and point-turn command that take the
// robot from heading to reference.
//
// rel = heading-reference is reduced to (-360, 360) and handled in four
// branches so that every case becomes a turn of at most 180 degrees using
// only the clockwise or the counter-clockwise wheel pair.
func FaceTurn(heading, reference, speed int) (int, steering.Command) {
	rel := (heading - reference) % 360
	switch {
	case rel > 0 && rel <= 180:
		return rel, ccw(speed)
	case rel < -180:
		return rel + 360, ccw(speed)
	case rel > 180:
		return 360 - rel, cw(speed)
	default: // (-180, 0]
		return -rel, cw(speed)
	}
}

// SideTurn picks the 90 degree turn from the Y axis onto the X axis by the
// quadrant the robot ended in.
func SideTurn(x, y int64, speed int) steering.Command {
	switch {
	case x > 0 && y > 0:
		return cw(speed)
	case x < 0 && y > 0:
		return ccw(speed)
	case x < 0:
		return cw(speed)
	default:
		return ccw(speed)
	}
}

// NewPlan builds the maneuver for a frozen pose. turnSpeed is used for the
// point turns, driveSpeed for the straight legs.
func NewPlan(pose deadreckon.Pose, model motion.Model, turnSpeed, driveSpeed int) (Plan, error) {
	p := Plan{From: pose}
	if pose.Y > 0 {
		p.Reference = 180
	}

	deg, cmd := FaceTurn(pose.Heading, p.Reference, turnSpeed)
	if deg != 0 {
		seg, err := turnSegment(model, deg, cmd)
		if err != nil {
			return Plan{}, err
		}
		p.Segments = append(p.Segments, seg)
	}

	if pose.Y != 0 {
		seg, err := driveSegment(model, abs64(pose.Y), driveSpeed)
		if err != nil {
			return Plan{}, err
		}
		p.Segments = append(p.Segments, seg)
	}

	if pose.X != 0 {
		seg, err := turnSegment(model, 90, SideTurn(pose.X, pose.Y, turnSpeed))
		if err != nil {
			return Plan{}, err
		}
		p.Segments = append(p.Segments, seg)

		seg, err = driveSegment(model, abs64(pose.X), driveSpeed)
		if err != nil {
			return Plan{}, err
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

func turnSegment(model motion.Model, deg int, cmd steering.Command) (Segment, error) {
	rate := abs64(model.AngularRate(cmd.Left, cmd.Right))
	if rate == 0 {
		return Segment{}, fmt.Errorf("%w: %+v", ErrNoTurnRate, cmd)
	}
	ms := int64(deg) * 1000 / rate
	return Segment{
		Kind:     KindTurn,
		Command:  cmd,
		Duration: time.Duration(ms) * time.Millisecond,
		Degrees:  deg,
	}, nil
}

func driveSegment(model motion.Model, distance int64, speed int) (Segment, error) {
	ms, err := model.TransitMS(speed, distance)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: %v", ErrNoDriveSpeed, err)
	}
	return Segment{
		Kind:     KindDrive,
		Command:  steering.Command{Left: speed, Right: speed},
		Duration: time.Duration(ms) * time.Millisecond,
		Distance: distance,
	}, nil
}

// Executor drives a plan open-loop.
type Executor struct {
	Motors robot.Motors
	Clock  robot.Clock
	// Step is how often the segment command is re-issued.
	Step time.Duration
	// Settle is the stopped pause after each segment.
	Settle time.Duration
}

// Run executes every segment in order. A segment, once started, always runs
// to completion; ctx is only checked between segments. Motors are stopped on
// return.
func (e Executor) Run(ctx context.Context, p Plan) error {
	step := e.Step
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	defer func() { _ = e.Motors.SetMotors(0, 0) }()

	for i, seg := range p.Segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := e.Clock.Now()
		for {
			elapsed := e.Clock.Now().Sub(start)
			if elapsed >= seg.Duration {
				break
			}
			if err := e.Motors.SetMotors(seg.Command.Left, seg.Command.Right); err != nil {
				return fmt.Errorf("homing: segment %d (%s): %w", i, seg.Kind, err)
			}
			wait := step
			if rem := seg.Duration - elapsed; rem < wait {
				wait = rem
			}
			e.Clock.Sleep(wait)
		}
		if err := e.Motors.SetMotors(0, 0); err != nil {
			return fmt.Errorf("homing: stop after segment %d: %w", i, err)
		}
		if e.Settle > 0 {
			e.Clock.Sleep(e.Settle)
		}
	}
	return nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Execute runs p with an Executor built from the arguments.
func Execute(ctx context.Context, p Plan, motors robot.Motors, clock robot.Clock, step, settle time.Duration) error {
	return Executor{Motors: motors, Clock: clock, Step: step, Settle: settle}.Run(ctx, p)
}
