// Package steering maps the line offset to a differential wheel command.
package steering

import "fmt"

// Mode is the run state of the controller.
type Mode int

const (
	// ModeIdle commands the motors to zero.
	ModeIdle Mode = iota
	// ModeFollowing runs the closed loop.
	ModeFollowing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeFollowing:
		return "FOLLOWING"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config holds the integer gain divisors and output limits.
//
// The gains are divisors, not multipliers: a larger Kp means a gentler
// proportional response. A divisor of 0 disables its term.
type Config struct {
	Kp int
	Kd int
	Ki int

	BaseSpeed int
	MinMotor  int
	MaxMotor  int
}

// Command is a signed left/right wheel command pair.
type Command struct {
	Left  int
	Right int
}

// Terms exposes the pieces of the last computed offset for telemetry.
type Terms struct {
	Derivative    int
	IntegralProxy int
	Offset        int
}

// Controller is the two-state steering law. Not safe for concurrent use.
type Controller struct {
	cfg  Config
	mode Mode

	prev     int
	havePrev bool
	last     Terms
}

func New(cfg Config) *Controller {
	return &Controller{cfg: cfg, mode: ModeIdle}
}

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) Mode() Mode { return c.mode }

// Toggle flips between Idle and Following. Entering Following clears the
// remembered position; the first step then has a zero derivative.
func (c *Controller) Toggle() Mode {
	if c.mode == ModeFollowing {
		c.mode = ModeIdle
	} else {
		c.mode = ModeFollowing
		c.Reset()
	}
	return c.mode
}

// SetMode forces a mode without touching history.
func (c *Controller) SetMode(m Mode) {
	c.mode = m
}

// Reset clears the remembered position.
func (c *Controller) Reset() {
	c.prev = 0
	c.havePrev = false
	c.last = Terms{}
}

// LastTerms returns the terms of the most recent Following step.
func (c *Controller) LastTerms() Terms { return c.last }

// Step computes the wheel command for the current position.
//
// The integral term is position+previous, a two-sample proxy rather than a
// running sum.
func (c *Controller) Step(position int) Command {
	if c.mode != ModeFollowing {
		return Command{}
	}
	prev := position
	if c.havePrev {
		prev = c.prev
	}
	derivative := position - prev
	integral := position + prev

	offset := div(position, c.cfg.Kp) + div(derivative, c.cfg.Kd) + div(integral, c.cfg.Ki)

	c.prev = position
	c.havePrev = true
	c.last = Terms{Derivative: derivative, IntegralProxy: integral, Offset: offset}

	return Command{
		Left:  clamp(c.cfg.BaseSpeed+offset, c.cfg.MinMotor, c.cfg.MaxMotor),
		Right: clamp(c.cfg.BaseSpeed-offset, c.cfg.MinMotor, c.cfg.MaxMotor),
	}
}

func div(v, d int) int {
	if d == 0 {
		return 0
	}
	return v / d
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
