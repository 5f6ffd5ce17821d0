package control

import (
	"context"
	"errors"
	"log"
	"time"

	"turtle/internal/deadreckon"
	"turtle/internal/homing"
	"turtle/internal/linesensor"
	"turtle/internal/steering"
	"turtle/internal/telemetry"
)

// Run performs a complete run: optional wait for the run signal, the
// calibration dance, optional speed calibration, line following until the
// line is lost, then the return-home maneuver. Motors are stopped on return.
//
// I/O errors never end a run; only ctx does, or a return-home plan that
// cannot be built.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopMotors()
	log.Printf("control: run %s starting", l.st.RunID)

	if l.cfg.WaitForStart {
		l.setPhase(PhaseWaiting)
		if err := l.waitForSignal(ctx); err != nil {
			return err
		}
	}

	if err := l.Dance(ctx); err != nil {
		var de *linesensor.DegenerateError
		if !errors.As(err, &de) {
			return err
		}
		// Degenerate channels are skipped by the estimator.
	}

	if l.cfg.Calibration.Enable {
		err := l.CalibrateSpeed(ctx, l.cfg.Calibration.CommandA, l.cfg.Calibration.CommandB)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			log.Printf("control: speed calibration failed, keeping %s: %v", l.st.Model, err)
		}
	}

	if l.cfg.AutoFollow {
		l.st.Steering.SetMode(steering.ModeFollowing)
		l.st.Steering.Reset()
	}
	pose, err := l.Follow(ctx)
	if err != nil {
		return err
	}

	if err := l.ReturnHome(ctx, pose); err != nil {
		return err
	}
	l.setPhase(PhaseDone)
	log.Printf("control: run %s done", l.st.RunID)
	return nil
}

// waitForSignal idles with motors stopped until the run signal toggles.
func (l *Loop) waitForSignal(ctx context.Context) error {
	l.stopMotors()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.run.Toggled() {
			return nil
		}
		l.clock.Sleep(l.cfg.LoopDelay)
	}
}

// Dance sweeps the sensor bar over the line with point turns while widening
// the calibration bounds: clockwise for the first and last quarter of the
// steps, counter-clockwise in between, ending at the starting heading.
//
// A *linesensor.DegenerateError is returned (and logged) when some channel
// saw no dynamic range; the bounds are kept either way.
func (l *Loop) Dance(ctx context.Context) error {
	l.setPhase(PhaseDancing)
	defer l.stopMotors()

	n := l.cfg.DanceSteps
	s := l.cfg.DanceSpeed
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		left, right := -s, s
		if i < n/4 || i >= n-n/4 {
			left, right = s, -s
		}
		l.setMotors(left, right)
		if f, ok := l.read(); ok {
			l.st.Bounds.Update(f)
		}
		l.clock.Sleep(l.cfg.DanceInterval)
	}

	if err := l.st.Bounds.Validate(); err != nil {
		var de *linesensor.DegenerateError
		if errors.As(err, &de) {
			l.st.Degenerate = de.Channels
			l.sink.Show(telemetry.Degenerate, int64(len(de.Channels)))
		}
		log.Printf("control: calibration: %v", err)
		return err
	}
	l.st.Degenerate = nil
	l.sink.Show(telemetry.Degenerate, 0)
	log.Printf("control: calibration bounds min=%v max=%v", l.st.Bounds.Min, l.st.Bounds.Max)
	return nil
}

// Follow runs the closed loop until the line is lost while Following, then
// returns the frozen pose. It resets the tracker first. The controller
// starts in whatever mode it is in; the run signal toggles it each cycle.
func (l *Loop) Follow(ctx context.Context) (deadreckon.Pose, error) {
	l.setPhase(PhaseFollowing)
	l.st.Tracker.Reset()
	l.st.LastRead = time.Time{}
	l.st.Misses = 0

	for {
		if err := ctx.Err(); err != nil {
			l.stopMotors()
			return l.st.Tracker.Pose(), err
		}
		if l.Cycle() {
			pose := l.st.Tracker.Pose()
			log.Printf("control: line lost after %d cycles at %s", l.st.Cycles, pose)
			return pose, nil
		}
		l.clock.Sleep(l.cfg.LoopDelay)
	}
}

// Cycle runs one control cycle and reports whether the line was lost.
//
// Order: sample the run signal, read a frame, estimate the position (holding
// the last one on a no-line frame), check for track loss while Following,
// then steer, integrate and actuate.
func (l *Loop) Cycle() bool {
	st := &l.st
	if l.run.Toggled() {
		mode := st.Steering.Toggle()
		st.Misses = 0
		log.Printf("control: run signal, mode=%s", mode)
		l.sink.Show(telemetry.Mode, int64(mode))
		if mode == steering.ModeIdle {
			l.stopMotors()
		}
	}

	now := l.clock.Now()
	f, ok := l.read()
	if !ok {
		return false
	}
	var dtMS int64
	if !st.LastRead.IsZero() {
		dtMS = now.Sub(st.LastRead).Milliseconds()
	}
	st.LastRead = now
	st.Cycles++

	if l.cfg.TrackBoundsWhileFollowing {
		st.Bounds.Update(f)
	}

	reading, err := linesensor.Estimate(f, st.Bounds)
	noLine := errors.Is(err, linesensor.ErrNoLineDetected)
	if noLine {
		st.Misses++
	} else {
		st.Position = reading.Position
		st.Misses = 0
	}
	l.noteDegenerate(reading.Degenerate)
	l.sink.Show(telemetry.Position, int64(st.Position))
	l.sink.Show(telemetry.Misses, int64(st.Misses))

	if st.Steering.Mode() != steering.ModeFollowing {
		l.sink.Show(telemetry.Bars, packBars(linesensor.Bars(f, st.Bounds)))
		return false
	}

	if !noLine || st.Misses > l.cfg.NoLineHoldCycles {
		// A run of no-line frames escalates to the full array.
		centerOnly := l.cfg.CenterOnly && !noLine
		if linesensor.OffTrack(f, st.Bounds, centerOnly, l.cfg.OffTrackThreshold) {
			st.Tracker.Freeze()
			st.Steering.SetMode(steering.ModeIdle)
			l.stopMotors()
			return true
		}
	}

	cmd := st.Steering.Step(st.Position)
	st.Tracker.Update(cmd, dtMS)
	l.setMotors(cmd.Left, cmd.Right)

	pose := st.Tracker.Pose()
	l.sink.Show(telemetry.Left, int64(cmd.Left))
	l.sink.Show(telemetry.Right, int64(cmd.Right))
	l.sink.Show(telemetry.Heading, int64(pose.Heading))
	l.sink.Show(telemetry.X, pose.X)
	l.sink.Show(telemetry.Y, pose.Y)
	l.sink.Show(telemetry.CycleMS, dtMS)
	return false
}

// ReturnHome plans from the frozen pose and drives the plan open-loop. The
// run signal is not sampled until it finishes.
func (l *Loop) ReturnHome(ctx context.Context, pose deadreckon.Pose) error {
	l.setPhase(PhaseReturning)
	plan, err := homing.NewPlan(pose, l.st.Model, l.cfg.HomeTurnSpeed, l.cfg.HomeDriveSpeed)
	if err != nil {
		log.Printf("control: return home from %s: %v", pose, err)
		return err
	}
	log.Printf("control: returning home from %s: %d segments, %s", pose, len(plan.Segments), plan.Total())
	for i, s := range plan.Segments {
		log.Printf("control:   %d %s cmd=%+v for %s", i, s.Kind, s.Command, s.Duration)
	}
	motors := motorCounter{l}
	return homing.Execute(ctx, plan, motors, l.clock, l.cfg.HomeStep, l.cfg.HomeSettle)
}

// read fetches one frame, recording it when a recorder is attached. Sensor
// errors are counted and rate-limited in the log.
func (l *Loop) read() (linesensor.Frame, bool) {
	f, err := l.sensors.ReadFrame()
	if err != nil {
		l.st.SensorErrors++
		if l.st.SensorErrors == 1 || l.st.SensorErrors%100 == 0 {
			log.Printf("control: sensor read failed (%d so far): %v", l.st.SensorErrors, err)
		}
		return f, false
	}
	if l.recorder != nil {
		if err := l.recorder.RecordFrame(l.clock.Now(), f); err != nil {
			l.st.RecordErrors++
			if l.st.RecordErrors == 1 {
				log.Printf("control: frame record failed: %v", err)
			}
		}
	}
	return f, true
}

func (l *Loop) setMotors(left, right int) {
	if err := l.motors.SetMotors(left, right); err != nil {
		l.st.MotorErrors++
		if l.st.MotorErrors == 1 || l.st.MotorErrors%100 == 0 {
			log.Printf("control: set motors failed (%d so far): %v", l.st.MotorErrors, err)
		}
	}
}

func (l *Loop) stopMotors() { l.setMotors(0, 0) }

func (l *Loop) noteDegenerate(ch []int) {
	if equalInts(ch, l.st.Degenerate) {
		return
	}
	l.st.Degenerate = append([]int(nil), ch...)
	l.sink.Show(telemetry.Degenerate, int64(len(ch)))
	if len(ch) > 0 {
		log.Printf("control: skipping degenerate channels %v", ch)
	}
}

// motorCounter routes homing output through the loop's error accounting.
type motorCounter struct{ l *Loop }

func (m motorCounter) SetMotors(left, right int) error {
	m.l.setMotors(left, right)
	return nil
}

// packBars folds five 0..8 levels into one decimal value, channel 0 first.
func packBars(b [linesensor.Channels]int) int64 {
	var v int64
	for _, c := range b {
		v = v*10 + int64(c)
	}
	return v
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
