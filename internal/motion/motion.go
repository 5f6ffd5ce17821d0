// Package motion converts motor commands into linear and angular speed
// estimates for the 3pi-class chassis.
//
// Units: speeds are 0.1 mm/s, distances are 0.1 mm, times are milliseconds.
// The mapping is linear and ignores inertia; soft accelerations track better.
package motion

import (
	"errors"
	"fmt"
)

// trackCircumference is 2*pi*820, the wheel separation (820 = 82 mm) in 0.1 mm.
const trackCircumference = 5152

var (
	// ErrDegenerateInput is returned when two calibration trials cannot
	// define a line (same command, or same transit time).
	ErrDegenerateInput = errors.New("motion: degenerate calibration input")
	// ErrInvalidTrial is returned for non-positive times or distances.
	ErrInvalidTrial = errors.New("motion: invalid calibration trial")
	// ErrNoSpeed is returned when a command sits inside the dead-zone.
	ErrNoSpeed = errors.New("motion: command produces no motion")
)

// Model is an affine fit from command magnitude to linear speed:
//
//	speed = |cmd|*Numerator/Denominator + Intercept, clamped at 0.
//
// Not safe for concurrent use; the control loop owns it.
type Model struct {
	Numerator   int64
	Denominator int64
	Intercept   int64
}

// DefaultModel is the factory fit (about 4.76 mm/s per command step,
// dead-zone below ~7).
func DefaultModel() Model {
	return Model{Numerator: 238, Denominator: 5, Intercept: -330}
}

// Speed returns the signed linear speed for a single wheel command.
func (m Model) Speed(cmd int) int64 {
	v := int64(cmd)
	if v < 0 {
		v = -v
	}
	den := m.Denominator
	if den == 0 {
		den = 1
	}
	r := v*m.Numerator/den + m.Intercept
	if r < 0 {
		r = 0
	}
	if cmd < 0 {
		return -r
	}
	return r
}

// AngularRate returns the chassis rotation in degrees per second for a pair of
// wheel commands. Positive is clockwise, like a compass heading.
func (m Model) AngularRate(left, right int) int64 {
	vl := m.Speed(left)
	vr := m.Speed(right)
	return (vl - vr) * 360 / trackCircumference
}

// Trial is one timed pass over the calibration distance.
type Trial struct {
	Command   int
	TransitMS int64
}

// Recalibrate replaces the model with the line through two timed trials over
// the same distance. On error the model is left unchanged.
func (m *Model) Recalibrate(a, b Trial, distance int64) error {
	if a.Command == b.Command {
		return fmt.Errorf("%w: both trials at command %d", ErrDegenerateInput, a.Command)
	}
	if a.TransitMS <= 0 || b.TransitMS <= 0 {
		return fmt.Errorf("%w: transit times %dms/%dms", ErrInvalidTrial, a.TransitMS, b.TransitMS)
	}
	if distance <= 0 {
		return fmt.Errorf("%w: distance %d", ErrInvalidTrial, distance)
	}
	if a.TransitMS == b.TransitMS {
		return fmt.Errorf("%w: equal transit times %dms", ErrDegenerateInput, a.TransitMS)
	}

	// s_i = distance*1000/t_i, slope = (s_b-s_a)/(c_b-c_a), kept as a fraction.
	num := distance * 1000 * (a.TransitMS - b.TransitMS)
	den := int64(b.Command-a.Command) * a.TransitMS * b.TransitMS
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs64(num), den); g > 1 {
		num /= g
		den /= g
	}

	ca := int64(a.Command)
	if ca < 0 {
		ca = -ca
	}
	sa := distance * 1000 / a.TransitMS
	m.Numerator = num
	m.Denominator = den
	m.Intercept = sa - ca*num/den
	return nil
}

// TransitMS returns how long a straight run at cmd takes to cover distance.
func (m Model) TransitMS(cmd int, distance int64) (int64, error) {
	s := m.Speed(cmd)
	if s < 0 {
		s = -s
	}
	if s == 0 {
		return 0, fmt.Errorf("%w: command %d", ErrNoSpeed, cmd)
	}
	if distance < 0 {
		distance = -distance
	}
	return distance * 1000 / s, nil
}

func (m Model) String() string {
	return fmt.Sprintf("speed=|cmd|*%d/%d%+d", m.Numerator, m.Denominator, m.Intercept)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
