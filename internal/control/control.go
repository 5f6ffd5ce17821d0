// Package control is the single-threaded driver that ties the line sensors,
// steering law, dead-reckoning tracker and return-home planner together.
//
// All mutable state lives in one State value owned by Loop. Nothing here is
// safe for concurrent use; observers get values through the telemetry sink.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turtle/internal/deadreckon"
	"turtle/internal/linesensor"
	"turtle/internal/motion"
	"turtle/internal/robot"
	"turtle/internal/steering"
	"turtle/internal/telemetry"
)

// Phase is the coarse stage of a run, published as telemetry.Phase.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseDancing
	PhaseCalibrating
	PhaseFollowing
	PhaseReturning
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDancing:
		return "dancing"
	case PhaseCalibrating:
		return "calibrating"
	case PhaseFollowing:
		return "following"
	case PhaseReturning:
		return "returning"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Config is the tuning surface. Zero values take the defaults noted on each
// field, except the booleans.
type Config struct {
	Steering steering.Config
	Model    motion.Model

	// LoopDelay is the sleep at the end of each follow cycle. Default 3ms.
	LoopDelay time.Duration
	// OffTrackThreshold is the normalized level (0..100) a channel must
	// exceed to count as seeing the line. Default 25.
	OffTrackThreshold int
	// CenterOnly monitors only the middle channel for track loss.
	CenterOnly bool
	// NoLineHoldCycles is how many consecutive no-line cycles hold the last
	// position before the full-array track-loss check decides. Default 1.
	NoLineHoldCycles int
	// TrackBoundsWhileFollowing keeps widening the bounds after the dance.
	TrackBoundsWhileFollowing bool

	// WaitForStart waits for the run signal before the dance.
	WaitForStart bool
	// AutoFollow enters Following right after calibration instead of
	// waiting for the run signal.
	AutoFollow bool

	DanceSteps    int           // default 80
	DanceInterval time.Duration // default 20ms
	DanceSpeed    int           // default 40

	Calibration CalibrationConfig

	HomeTurnSpeed  int           // default 40
	HomeDriveSpeed int           // default Steering.BaseSpeed
	HomeStep       time.Duration // default 10ms
	HomeSettle     time.Duration // default 250ms
}

// CalibrationConfig drives the two-trial speed calibration.
type CalibrationConfig struct {
	Enable bool
	// CommandA and CommandB are the trial commands. Defaults 40 and 80.
	CommandA int
	CommandB int
	// Distance between the two marks in 0.1 mm. Default 2000.
	Distance int64
	// Debounce is the minimum time between the two marks. Default 200ms.
	Debounce time.Duration
	// TrialTimeout aborts a trial that never sees both marks. Default 10s.
	TrialTimeout time.Duration
	// WaitForSignal waits for the run signal before each trial so the
	// robot can be repositioned.
	WaitForSignal bool
}

func (c Config) withDefaults() Config {
	if c.Model.Denominator == 0 {
		c.Model = motion.DefaultModel()
	}
	if c.LoopDelay <= 0 {
		c.LoopDelay = 3 * time.Millisecond
	}
	if c.OffTrackThreshold == 0 {
		c.OffTrackThreshold = 25
	}
	if c.NoLineHoldCycles <= 0 {
		c.NoLineHoldCycles = 1
	}
	if c.DanceSteps <= 0 {
		c.DanceSteps = 80
	}
	if c.DanceInterval <= 0 {
		c.DanceInterval = 20 * time.Millisecond
	}
	if c.DanceSpeed == 0 {
		c.DanceSpeed = 40
	}
	if c.Calibration.CommandA == 0 {
		c.Calibration.CommandA = 40
	}
	if c.Calibration.CommandB == 0 {
		c.Calibration.CommandB = 80
	}
	if c.Calibration.Distance <= 0 {
		c.Calibration.Distance = 2000
	}
	if c.Calibration.Debounce <= 0 {
		c.Calibration.Debounce = 200 * time.Millisecond
	}
	if c.Calibration.TrialTimeout <= 0 {
		c.Calibration.TrialTimeout = 10 * time.Second
	}
	if c.HomeTurnSpeed == 0 {
		c.HomeTurnSpeed = 40
	}
	if c.HomeDriveSpeed == 0 {
		c.HomeDriveSpeed = c.Steering.BaseSpeed
	}
	if c.HomeStep <= 0 {
		c.HomeStep = 10 * time.Millisecond
	}
	if c.HomeSettle <= 0 {
		c.HomeSettle = 250 * time.Millisecond
	}
	return c
}

// FrameRecorder receives every raw frame read, for later replay.
type FrameRecorder interface {
	RecordFrame(at time.Time, f linesensor.Frame) error
}

// Deps are the collaborators. Sensors and Motors are required.
type Deps struct {
	Sensors  robot.SensorArray
	Motors   robot.Motors
	Clock    robot.Clock
	Run      robot.RunSignal
	Sink     telemetry.Sink
	Recorder FrameRecorder
	// RunID names the run; zero picks a random one.
	RunID uuid.UUID
}

// State is everything the loop mutates between cycles.
type State struct {
	RunID uuid.UUID
	Phase Phase

	Bounds   linesensor.Bounds
	Position int
	// Misses counts consecutive cycles without a line.
	Misses int

	Model    motion.Model
	Tracker  *deadreckon.Tracker
	Steering *steering.Controller

	// LastRead is the time of the previous frame read; zero before the
	// first cycle of a follow run.
	LastRead time.Time
	Cycles   uint64

	SensorErrors uint64
	MotorErrors  uint64
	RecordErrors uint64

	Degenerate []int
}

// ErrTrialTimeout is returned when a calibration trial never sees both marks.
var ErrTrialTimeout = errors.New("control: calibration trial timed out")

// Loop drives one robot.
type Loop struct {
	cfg Config

	sensors  robot.SensorArray
	motors   robot.Motors
	clock    robot.Clock
	run      robot.RunSignal
	sink     telemetry.Sink
	recorder FrameRecorder

	st State
}

// New validates the collaborators and builds a loop with fresh state.
func New(cfg Config, deps Deps) (*Loop, error) {
	if deps.Sensors == nil {
		return nil, fmt.Errorf("control: sensors is nil")
	}
	if deps.Motors == nil {
		return nil, fmt.Errorf("control: motors is nil")
	}
	if deps.Clock == nil {
		deps.Clock = robot.SystemClock{}
	}
	if deps.Run == nil {
		deps.Run = robot.NoSignal{}
	}
	if deps.Sink == nil {
		deps.Sink = telemetry.Discard
	}
	if deps.RunID == uuid.Nil {
		deps.RunID = uuid.New()
	}
	cfg = cfg.withDefaults()
	if cfg.Steering.MaxMotor < cfg.Steering.MinMotor {
		return nil, fmt.Errorf("control: max motor %d below min motor %d", cfg.Steering.MaxMotor, cfg.Steering.MinMotor)
	}

	l := &Loop{
		cfg:      cfg,
		sensors:  deps.Sensors,
		motors:   deps.Motors,
		clock:    deps.Clock,
		run:      deps.Run,
		sink:     deps.Sink,
		recorder: deps.Recorder,
	}
	l.st = State{
		RunID:    deps.RunID,
		Bounds:   linesensor.NewBounds(),
		Model:    cfg.Model,
		Tracker:  deadreckon.NewTracker(cfg.Model),
		Steering: steering.New(cfg.Steering),
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Loop) Config() Config { return l.cfg }

// State returns a copy of the loop state. The tracker and controller
// pointers are shared.
func (l *Loop) State() State { return l.st }

// RunID identifies this run in logs, traces and the status API.
func (l *Loop) RunID() uuid.UUID { return l.st.RunID }

// SetBounds replaces the calibration bounds, for runs that skip the dance.
func (l *Loop) SetBounds(b linesensor.Bounds) { l.st.Bounds = b }

func (l *Loop) setPhase(p Phase) {
	l.st.Phase = p
	l.sink.Show(telemetry.Phase, int64(p))
}
