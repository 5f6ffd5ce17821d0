package sim

import (
	"math"
	"sync"
	"time"

	"turtle/internal/linesensor"
)

// physicsStep bounds the integration step used by Sleep.
const physicsStep = time.Millisecond

// edgeMM is the width of the reflectance fall-off at each line edge.
const edgeMM = 3.0

// Robot is a simulated chassis on a track. It implements the sensor, motor,
// clock and run/stop collaborators of the control loop, all driven from one
// virtual clock: time only advances in Sleep.
type Robot struct {
	script Script
	track  Track

	mu      sync.Mutex
	start   time.Time
	now     time.Time
	x, y    float64 // mm
	heading float64 // compass degrees
	left    int
	right   int

	nextPress int
	manual    int
}

// New builds a simulated robot at the origin facing north.
func New(script Script) (*Robot, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	start := time.Unix(0, 0).UTC()
	return &Robot{
		script: script,
		track:  NewTrack(script.Track),
		start:  start,
		now:    start,
	}, nil
}

// Pose returns the true position in mm and the compass heading in degrees.
func (r *Robot) Pose() (x, y, heading float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y, r.heading
}

// Elapsed returns virtual time since start.
func (r *Robot) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now.Sub(r.start)
}

// Motors returns the last commanded pair.
func (r *Robot) Motors() (left, right int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.left, r.right
}

func (r *Robot) SetMotors(left, right int) error {
	r.mu.Lock()
	r.left, r.right = left, right
	r.mu.Unlock()
	return nil
}

func (r *Robot) ReadFrame() (linesensor.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var f linesensor.Frame
	s := r.script.Sensors
	h := r.heading * math.Pi / 180
	fx, fy := math.Sin(h), math.Cos(h)
	rx, ry := math.Cos(h), -math.Sin(h)
	for i := range f {
		lat := float64(i-linesensor.Center) * s.SpacingMM
		px := r.x + fx*s.LookaheadMM + rx*lat
		py := r.y + fy*s.LookaheadMM + ry*lat
		f[i] = s.Light + uint16(float64(s.Dark-s.Light)*r.coverage(px, py)+0.5)
	}
	return f, nil
}

func (r *Robot) coverage(x, y float64) float64 {
	d, ok := r.track.Offset(x, y)
	if !ok {
		return 0
	}
	half := r.script.Track.LineWidthMM / 2
	switch {
	case d <= half:
		return 1
	case d >= half+edgeMM:
		return 0
	default:
		return 1 - (d-half)/edgeMM
	}
}

func (r *Robot) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

// Sleep advances virtual time and integrates the chassis motion.
func (r *Robot) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for d > 0 {
		step := physicsStep
		if d < step {
			step = d
		}
		r.integrate(step.Seconds())
		r.now = r.now.Add(step)
		d -= step
	}
}

func (r *Robot) wheelSpeed(cmd int) float64 {
	c := r.script.Chassis
	v := math.Abs(float64(cmd))*c.MMPerSecPerCmd - c.DeadZoneMMPerSec
	if v < 0 {
		v = 0
	}
	if cmd < 0 {
		return -v
	}
	return v
}

func (r *Robot) integrate(dt float64) {
	vl := r.wheelSpeed(r.left)
	vr := r.wheelSpeed(r.right)
	v := (vl + vr) / 2
	omega := (vl - vr) / r.script.Chassis.TrackWidthMM // rad/s, clockwise

	mid := r.heading*math.Pi/180 + omega*dt/2
	r.x += math.Sin(mid) * v * dt
	r.y += math.Cos(mid) * v * dt
	r.heading = normDeg(r.heading + omega*dt*180/math.Pi)
}

// Press queues a run/stop press, as from the web UI.
func (r *Robot) Press() {
	r.mu.Lock()
	r.manual++
	r.mu.Unlock()
}

// Toggled consumes one scripted or manual press.
func (r *Robot) Toggled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.manual > 0 {
		r.manual--
		return true
	}
	p := r.script.Presses
	if r.nextPress < len(p) && r.now.Sub(r.start) >= p[r.nextPress] {
		r.nextPress++
		return true
	}
	return false
}

func normDeg(x float64) float64 {
	for x < 0 {
		x += 360
	}
	for x >= 360 {
		x -= 360
	}
	return x
}
