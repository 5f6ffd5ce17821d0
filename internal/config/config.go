package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Controller  ControllerConfig  `yaml:"controller"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Motion      MotionConfig      `yaml:"motion"`
	Homing      HomingConfig      `yaml:"homing"`
	Hardware    HardwareConfig    `yaml:"hardware"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Web         WebConfig         `yaml:"web"`
	Sim         SimConfig         `yaml:"sim"`
}

type ControllerConfig struct {
	Kp        int `yaml:"kp"`
	Kd        int `yaml:"kd"`
	Ki        int `yaml:"ki"`
	BaseSpeed int `yaml:"base_speed"`
	MinMotor  int `yaml:"min_motor"`
	MaxMotor  int `yaml:"max_motor"`

	LoopDelay                 time.Duration `yaml:"loop_delay"`
	OffTrackThreshold         int           `yaml:"off_track_threshold"`
	CenterOnly                bool          `yaml:"center_only"`
	NoLineHoldCycles          int           `yaml:"no_line_hold_cycles"`
	TrackBoundsWhileFollowing bool          `yaml:"track_bounds_while_following"`
	WaitForStart              bool          `yaml:"wait_for_start"`
	AutoFollow                bool          `yaml:"auto_follow"`

	Dance DanceConfig `yaml:"dance"`
}

type DanceConfig struct {
	Steps    int           `yaml:"steps"`
	Interval time.Duration `yaml:"interval"`
	Speed    int           `yaml:"speed"`
}

type CalibrationConfig struct {
	Enable   bool `yaml:"enable"`
	CommandA int  `yaml:"command_a"`
	CommandB int  `yaml:"command_b"`
	// Distance between the marks, in 0.1 mm.
	Distance      int64         `yaml:"distance"`
	Debounce      time.Duration `yaml:"debounce"`
	TrialTimeout  time.Duration `yaml:"trial_timeout"`
	WaitForSignal bool          `yaml:"wait_for_signal"`
}

type MotionConfig struct {
	Numerator   int64 `yaml:"numerator"`
	Denominator int64 `yaml:"denominator"`
	Intercept   int64 `yaml:"intercept"`
}

type HomingConfig struct {
	TurnSpeed  int           `yaml:"turn_speed"`
	DriveSpeed int           `yaml:"drive_speed"`
	Step       time.Duration `yaml:"step"`
	Settle     time.Duration `yaml:"settle"`
}

type HardwareConfig struct {
	Backend string       `yaml:"backend"`
	Sensors SensorConfig `yaml:"sensors"`
	Button  ButtonConfig `yaml:"button"`
	Motors  MotorConfig  `yaml:"motors"`
}

type SensorConfig struct {
	Chip    string        `yaml:"chip"`
	Pins    []int         `yaml:"pins"`
	Emitter int           `yaml:"emitter"`
	Timeout time.Duration `yaml:"timeout"`
}

type ButtonConfig struct {
	Enable   bool          `yaml:"enable"`
	Chip     string        `yaml:"chip"`
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
}

type MotorConfig struct {
	Driver  string        `yaml:"driver"`
	PCA9685 PCA9685Config `yaml:"pca9685"`
	Qik     QikConfig     `yaml:"qik"`
}

type PCA9685Config struct {
	Bus         string `yaml:"bus"`
	Addr        uint16 `yaml:"addr"`
	FrequencyHz int    `yaml:"frequency_hz"`
	Left        int    `yaml:"left"`
	Right       int    `yaml:"right"`
	InvertLeft  bool   `yaml:"invert_left"`
	InvertRight bool   `yaml:"invert_right"`
}

type QikConfig struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	Device      byte   `yaml:"device"`
	SwapMotors  bool   `yaml:"swap_motors"`
	InvertLeft  bool   `yaml:"invert_left"`
	InvertRight bool   `yaml:"invert_right"`
}

type TelemetryConfig struct {
	UDPDest    string `yaml:"udp_dest"`
	RecordPath string `yaml:"record_path"`
	LogEvery   int    `yaml:"log_every"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type SimConfig struct {
	// Script is an optional sim scenario YAML; empty uses the built-in
	// straight track.
	Script string `yaml:"script"`
	// Fast runs simulated time as fast as possible instead of at
	// wall-clock pace.
	Fast bool `yaml:"fast"`
	// Presses overrides the script's scripted button presses when set.
	Presses []time.Duration `yaml:"presses"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes strict YAML (unknown keys are errors) and applies defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills zero values with defaults and rejects
// inconsistent settings.
func DefaultAndValidate(cfg *Config) error {
	c := &cfg.Controller
	if c.Kp == 0 && c.Kd == 0 && c.Ki == 0 {
		c.Kp, c.Kd, c.Ki = 20, 25, 50
	}
	if c.BaseSpeed == 0 {
		c.BaseSpeed = 40
	}
	if c.MaxMotor == 0 && c.MinMotor == 0 {
		c.MaxMotor = 80
	}
	if c.Kp < 0 || c.Kd < 0 || c.Ki < 0 {
		return fmt.Errorf("controller gains must be >= 0")
	}
	if c.MaxMotor <= c.MinMotor {
		return fmt.Errorf("controller.max_motor must be > controller.min_motor")
	}
	if c.MaxMotor > 255 || c.MinMotor < -255 {
		return fmt.Errorf("controller motor limits must be within [-255,255]")
	}
	if c.LoopDelay <= 0 {
		c.LoopDelay = 3 * time.Millisecond
	}
	// Zero selects the default.
	if c.OffTrackThreshold == 0 {
		c.OffTrackThreshold = 25
	}
	if c.OffTrackThreshold <= 0 || c.OffTrackThreshold >= 100 {
		return fmt.Errorf("controller.off_track_threshold must be in (0,100)")
	}
	if c.NoLineHoldCycles <= 0 {
		c.NoLineHoldCycles = 1
	}
	if c.Dance.Steps <= 0 {
		c.Dance.Steps = 80
	}
	if c.Dance.Interval <= 0 {
		c.Dance.Interval = 20 * time.Millisecond
	}
	if c.Dance.Speed == 0 {
		c.Dance.Speed = 40
	}

	cal := &cfg.Calibration
	if cal.CommandA == 0 {
		cal.CommandA = 40
	}
	if cal.CommandB == 0 {
		cal.CommandB = 80
	}
	if cal.CommandA == cal.CommandB {
		return fmt.Errorf("calibration.command_a and calibration.command_b must differ")
	}
	if cal.Distance <= 0 {
		cal.Distance = 2000
	}
	if cal.Debounce <= 0 {
		cal.Debounce = 200 * time.Millisecond
	}
	if cal.TrialTimeout <= 0 {
		cal.TrialTimeout = 10 * time.Second
	}

	m := &cfg.Motion
	if m.Numerator == 0 && m.Denominator == 0 && m.Intercept == 0 {
		m.Numerator, m.Denominator, m.Intercept = 238, 5, -330
	}
	if m.Denominator == 0 {
		return fmt.Errorf("motion.denominator must be non-zero")
	}

	h := &cfg.Homing
	if h.TurnSpeed == 0 {
		h.TurnSpeed = 40
	}
	if h.DriveSpeed == 0 {
		h.DriveSpeed = c.BaseSpeed
	}
	if h.Step <= 0 {
		h.Step = 10 * time.Millisecond
	}
	if h.Settle <= 0 {
		h.Settle = 250 * time.Millisecond
	}

	if err := defaultHardware(&cfg.Hardware); err != nil {
		return err
	}

	if cfg.Telemetry.LogEvery < 0 {
		return fmt.Errorf("telemetry.log_every must be >= 0")
	}
	if strings.TrimSpace(cfg.Web.Listen) == "" {
		cfg.Web.Listen = ":8080"
	}
	return nil
}

func defaultHardware(hw *HardwareConfig) error {
	hw.Backend = strings.ToLower(strings.TrimSpace(hw.Backend))
	if hw.Backend == "" {
		hw.Backend = "sim"
	}
	switch hw.Backend {
	case "sim":
		return nil
	case "gpio":
	default:
		return fmt.Errorf("hardware.backend must be one of: sim, gpio")
	}

	s := &hw.Sensors
	if len(s.Pins) == 0 {
		s.Pins = []int{5, 6, 13, 19, 26}
	}
	if len(s.Pins) != 5 {
		return fmt.Errorf("hardware.sensors.pins must list 5 pins")
	}
	if s.Timeout <= 0 {
		s.Timeout = 2000 * time.Microsecond
	}
	// Frames carry microseconds in 16 bits.
	if s.Timeout > 65535*time.Microsecond {
		return fmt.Errorf("hardware.sensors.timeout must be <= 65535us")
	}

	if hw.Button.Enable && hw.Button.Pin <= 0 {
		return fmt.Errorf("hardware.button.pin is required when hardware.button.enable is true")
	}
	if hw.Button.Debounce <= 0 {
		hw.Button.Debounce = 50 * time.Millisecond
	}

	mc := &hw.Motors
	mc.Driver = strings.ToLower(strings.TrimSpace(mc.Driver))
	if mc.Driver == "" {
		mc.Driver = "pca9685"
	}
	switch mc.Driver {
	case "pca9685":
		p := &mc.PCA9685
		if p.Bus == "" {
			p.Bus = "/dev/i2c-1"
		}
		if p.Addr == 0 {
			p.Addr = 0x60
		}
		if p.FrequencyHz <= 0 {
			p.FrequencyHz = 1600
		}
		if p.Left == 0 {
			p.Left = 1
		}
		if p.Right == 0 {
			p.Right = 2
		}
		if p.Left < 1 || p.Left > 4 || p.Right < 1 || p.Right > 4 || p.Left == p.Right {
			return fmt.Errorf("hardware.motors.pca9685 left/right must be distinct motors 1..4")
		}
	case "qik":
		q := &mc.Qik
		if q.Port == "" {
			return fmt.Errorf("hardware.motors.qik.port is required")
		}
		if q.Baud <= 0 {
			q.Baud = 38400
		}
	default:
		return fmt.Errorf("hardware.motors.driver must be one of: pca9685, qik")
	}
	return nil
}
