package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"periph.io/x/conn/v3/physic"

	"turtle/internal/actuators/pca9685"
	"turtle/internal/actuators/qik"
	"turtle/internal/button"
	"turtle/internal/config"
	"turtle/internal/control"
	"turtle/internal/i2c"
	"turtle/internal/motion"
	"turtle/internal/robot"
	"turtle/internal/sensors/qtr"
	"turtle/internal/sim"
	"turtle/internal/steering"
	"turtle/internal/telemetry"
	"turtle/internal/trace"
	"turtle/internal/web"
)

type runtime struct {
	cfg         config.Config
	loop        *control.Loop
	status      *web.Status
	broadcaster *web.Broadcaster
	simBot      *sim.Robot
	udp         *telemetry.UDPSink

	closers []io.Closer
}

func controlConfig(cfg config.Config) control.Config {
	c := cfg.Controller
	return control.Config{
		Steering: steering.Config{
			Kp:        c.Kp,
			Kd:        c.Kd,
			Ki:        c.Ki,
			BaseSpeed: c.BaseSpeed,
			MinMotor:  c.MinMotor,
			MaxMotor:  c.MaxMotor,
		},
		Model: motion.Model{
			Numerator:   cfg.Motion.Numerator,
			Denominator: cfg.Motion.Denominator,
			Intercept:   cfg.Motion.Intercept,
		},
		LoopDelay:                 c.LoopDelay,
		OffTrackThreshold:         c.OffTrackThreshold,
		CenterOnly:                c.CenterOnly,
		NoLineHoldCycles:          c.NoLineHoldCycles,
		TrackBoundsWhileFollowing: c.TrackBoundsWhileFollowing,
		WaitForStart:              c.WaitForStart,
		AutoFollow:                c.AutoFollow,
		DanceSteps:                c.Dance.Steps,
		DanceInterval:             c.Dance.Interval,
		DanceSpeed:                c.Dance.Speed,
		Calibration: control.CalibrationConfig{
			Enable:        cfg.Calibration.Enable,
			CommandA:      cfg.Calibration.CommandA,
			CommandB:      cfg.Calibration.CommandB,
			Distance:      cfg.Calibration.Distance,
			Debounce:      cfg.Calibration.Debounce,
			TrialTimeout:  cfg.Calibration.TrialTimeout,
			WaitForSignal: cfg.Calibration.WaitForSignal,
		},
		HomeTurnSpeed:  cfg.Homing.TurnSpeed,
		HomeDriveSpeed: cfg.Homing.DriveSpeed,
		HomeStep:       cfg.Homing.Step,
		HomeSettle:     cfg.Homing.Settle,
	}
}

// pacedClock runs a virtual clock at wall-clock pace.
type pacedClock struct {
	robot.Clock
}

func (p pacedClock) Sleep(d time.Duration) {
	p.Clock.Sleep(d)
	time.Sleep(d)
}

type hardware struct {
	sensors robot.SensorArray
	motors  robot.Motors
	clock   robot.Clock
	signal  robot.RunSignal
}

func (r *runtime) openSim(cfg config.Config) (hardware, error) {
	script := sim.DefaultScript()
	if cfg.Sim.Script != "" {
		s, err := sim.LoadScript(cfg.Sim.Script)
		if err != nil {
			return hardware{}, fmt.Errorf("sim script: %w", err)
		}
		script = s
	}
	if len(cfg.Sim.Presses) > 0 {
		script.Presses = cfg.Sim.Presses
	}
	bot, err := sim.New(script)
	if err != nil {
		return hardware{}, err
	}
	r.simBot = bot
	hw := hardware{sensors: bot, motors: bot, clock: bot, signal: bot}
	if !cfg.Sim.Fast {
		hw.clock = pacedClock{bot}
	}
	return hw, nil
}

var (
	openSensorsFn = func(c qtr.Config) (robot.SensorArray, io.Closer, error) {
		a, err := qtr.Open(c)
		if err != nil {
			return nil, nil, err
		}
		return a, a, nil
	}
	openButtonFn = func(c button.Config) (robot.RunSignal, io.Closer, error) {
		b, err := button.Open(c)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	}
)

func openMotors(mc config.MotorConfig) (robot.Motors, []io.Closer, error) {
	switch mc.Driver {
	case "qik":
		q := mc.Qik
		m, err := qik.Open(q.Port, qik.Config{
			Baud:        q.Baud,
			Device:      q.Device,
			SwapMotors:  q.SwapMotors,
			InvertLeft:  q.InvertLeft,
			InvertRight: q.InvertRight,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, []io.Closer{m}, nil
	default:
		p := mc.PCA9685
		bus, err := i2c.Open(p.Bus)
		if err != nil {
			return nil, nil, err
		}
		m, err := pca9685.New(bus.Dev(p.Addr), pca9685.Config{
			Frequency:   physic.Frequency(p.FrequencyHz) * physic.Hertz,
			Left:        p.Left,
			Right:       p.Right,
			InvertLeft:  p.InvertLeft,
			InvertRight: p.InvertRight,
		})
		if err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		// Motors close before the bus.
		return m, []io.Closer{m, bus}, nil
	}
}

var openMotorsFn = openMotors

func (r *runtime) openGPIO(cfg config.Config) (hardware, error) {
	hc := cfg.Hardware
	qc := qtr.Config{Chip: hc.Sensors.Chip, Emitter: hc.Sensors.Emitter, Timeout: hc.Sensors.Timeout}
	copy(qc.Pins[:], hc.Sensors.Pins)
	sensors, c, err := openSensorsFn(qc)
	if err != nil {
		return hardware{}, err
	}
	r.closers = append(r.closers, c)

	motors, cs, err := openMotorsFn(hc.Motors)
	if err != nil {
		return hardware{}, err
	}
	r.closers = append(r.closers, cs...)

	hw := hardware{sensors: sensors, motors: motors, clock: robot.SystemClock{}, signal: robot.NoSignal{}}
	if hc.Button.Enable {
		b, c, err := openButtonFn(button.Config{Chip: hc.Button.Chip, Pin: hc.Button.Pin, Debounce: hc.Button.Debounce})
		if err != nil {
			return hardware{}, err
		}
		r.closers = append(r.closers, c)
		hw.signal = b
	}
	return hw, nil
}

func newRuntime(cfg config.Config, latch *web.RunLatch) (rt *runtime, err error) {
	r := &runtime{
		cfg:         cfg,
		status:      web.NewStatus(),
		broadcaster: web.NewBroadcaster(),
	}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	var hw hardware
	switch cfg.Hardware.Backend {
	case "gpio":
		hw, err = r.openGPIO(cfg)
	default:
		hw, err = r.openSim(cfg)
	}
	if err != nil {
		return nil, err
	}

	sinks := []telemetry.Sink{r.status, r.broadcaster}
	if cfg.Telemetry.LogEvery > 0 {
		sinks = append(sinks, telemetry.NewLogSink(cfg.Telemetry.LogEvery, log.Default()))
	}
	if cfg.Telemetry.UDPDest != "" {
		u, err := telemetry.NewUDPSink(cfg.Telemetry.UDPDest)
		if err != nil {
			return nil, err
		}
		r.udp = u
		r.closers = append(r.closers, u)
		sinks = append(sinks, u)
	}

	runID := uuid.New()
	deps := control.Deps{
		Sensors: hw.sensors,
		Motors:  hw.motors,
		Clock:   hw.clock,
		Run:     robot.AnySignal{hw.signal, latch},
		Sink:    telemetry.Multi(sinks...),
		RunID:   runID,
	}
	if cfg.Telemetry.RecordPath != "" {
		w, err := trace.CreateWriter(cfg.Telemetry.RecordPath, runID)
		if err != nil {
			return nil, err
		}
		// The trace is flushed before the hardware closes.
		r.closers = append([]io.Closer{w}, r.closers...)
		deps.Recorder = w
	}

	loop, err := control.New(controlConfig(cfg), deps)
	if err != nil {
		return nil, err
	}
	r.loop = loop
	r.status.SetStatic(runID.String(), cfg.Hardware.Backend)
	return r, nil
}

func (r *runtime) logResult() {
	st := r.loop.State()
	log.Printf("run %s: cycles=%d sensor_errors=%d motor_errors=%d record_errors=%d model=%s",
		st.RunID, st.Cycles, st.SensorErrors, st.MotorErrors, st.RecordErrors, st.Model)
	if r.simBot != nil {
		x, y, h := r.simBot.Pose()
		log.Printf("sim: final pose x=%.1fmm y=%.1fmm heading=%.1f elapsed=%s", x, y, h, r.simBot.Elapsed())
	}
	if r.udp != nil {
		if n, err := r.udp.Errors(); n > 0 {
			log.Printf("telemetry: %d udp send errors, last: %v", n, err)
		}
	}
}

func (r *runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
