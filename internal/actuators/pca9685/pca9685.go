// Package pca9685 drives two DC motors through a PCA9685 16-channel PWM
// controller wired like the Adafruit DC Motor HAT (TB6612 H-bridges).
package pca9685

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddr is the HAT's factory I2C address.
const DefaultAddr = 0x60

const (
	regMode1    = 0x00
	regMode2    = 0x01
	regLED0OnL  = 0x06
	regAllOnL   = 0xFA
	regPrescale = 0xFE

	mode1Restart = 0x80
	mode1AI      = 0x20
	mode1Sleep   = 0x10
	mode1AllCall = 0x01
	mode2OutDrv  = 0x04

	oscHz    = 25_000_000
	fullBit  = 4096
	maxDuty  = 4095
	maxSpeed = 255
)

var sleepFn = time.Sleep

// channels is one H-bridge: PWM input plus the two direction inputs.
type channels struct {
	pwm, in1, in2 int
}

// hatMotors is the HAT's M1..M4 pin map.
var hatMotors = [4]channels{
	{pwm: 8, in2: 9, in1: 10},
	{pwm: 13, in2: 12, in1: 11},
	{pwm: 2, in2: 3, in1: 4},
	{pwm: 7, in2: 6, in1: 5},
}

type Config struct {
	// Frequency is the PWM frequency. Default 1600 Hz.
	Frequency physic.Frequency
	// Left and Right pick HAT terminals M1..M4 as 1..4. Defaults 1 and 2.
	Left  int
	Right int
	// Invert flips a motor's forward direction.
	InvertLeft  bool
	InvertRight bool
}

// Motors is a pair of HAT motors. It implements robot.Motors.
type Motors struct {
	mu    sync.Mutex
	c     conn.Conn
	left  channels
	right channels
	invL  bool
	invR  bool
}

// New resets the controller, sets the PWM frequency and stops both motors.
func New(c conn.Conn, cfg Config) (*Motors, error) {
	if c == nil {
		return nil, errors.New("pca9685: conn is nil")
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = 1600 * physic.Hertz
	}
	if cfg.Left == 0 {
		cfg.Left = 1
	}
	if cfg.Right == 0 {
		cfg.Right = 2
	}
	if cfg.Left < 1 || cfg.Left > 4 || cfg.Right < 1 || cfg.Right > 4 || cfg.Left == cfg.Right {
		return nil, fmt.Errorf("pca9685: motors M%d/M%d must be distinct and in 1..4", cfg.Left, cfg.Right)
	}

	m := &Motors{
		c:     c,
		left:  hatMotors[cfg.Left-1],
		right: hatMotors[cfg.Right-1],
		invL:  cfg.InvertLeft,
		invR:  cfg.InvertRight,
	}
	if err := m.init(cfg.Frequency); err != nil {
		return nil, err
	}
	if err := m.SetMotors(0, 0); err != nil {
		return nil, err
	}
	return m, nil
}

// Prescale returns the PRE_SCALE register value for f.
func Prescale(f physic.Frequency) (byte, error) {
	hz := float64(f) / float64(physic.Hertz)
	if hz <= 0 {
		return 0, fmt.Errorf("pca9685: invalid frequency %s", f)
	}
	p := math.Round(oscHz/(fullBit*hz)) - 1
	if p < 3 || p > 255 {
		return 0, fmt.Errorf("pca9685: frequency %s out of range", f)
	}
	return byte(p), nil
}

func (m *Motors) init(f physic.Frequency) error {
	pre, err := Prescale(f)
	if err != nil {
		return err
	}
	// All channels off, then totem-pole outputs.
	if err := m.c.Tx([]byte{regAllOnL, 0, 0, 0, 0}, nil); err != nil {
		return fmt.Errorf("pca9685: clear outputs: %w", err)
	}
	if err := m.c.Tx([]byte{regMode2, mode2OutDrv}, nil); err != nil {
		return fmt.Errorf("pca9685: mode2: %w", err)
	}
	if err := m.c.Tx([]byte{regMode1, mode1AllCall | mode1AI}, nil); err != nil {
		return fmt.Errorf("pca9685: mode1: %w", err)
	}
	sleepFn(5 * time.Millisecond)

	var mode [1]byte
	if err := m.c.Tx([]byte{regMode1}, mode[:]); err != nil {
		return fmt.Errorf("pca9685: read mode1: %w", err)
	}
	old := mode[0] &^ mode1Restart
	// The prescaler can only be written while the oscillator sleeps.
	if err := m.c.Tx([]byte{regMode1, old | mode1Sleep}, nil); err != nil {
		return fmt.Errorf("pca9685: sleep: %w", err)
	}
	if err := m.c.Tx([]byte{regPrescale, pre}, nil); err != nil {
		return fmt.Errorf("pca9685: prescale: %w", err)
	}
	if err := m.c.Tx([]byte{regMode1, old}, nil); err != nil {
		return fmt.Errorf("pca9685: wake: %w", err)
	}
	sleepFn(5 * time.Millisecond)
	if err := m.c.Tx([]byte{regMode1, old | mode1Restart}, nil); err != nil {
		return fmt.Errorf("pca9685: restart: %w", err)
	}
	return nil
}

// SetMotors drives both bridges. Commands are clamped to ±255 and scaled onto
// the 12-bit duty cycle; 0 releases the motor.
func (m *Motors) SetMotors(left, right int) error {
	if m.invL {
		left = -left
	}
	if m.invR {
		right = -right
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.c == nil {
		return errors.New("pca9685: closed")
	}
	return errors.Join(m.drive(m.left, left), m.drive(m.right, right))
}

func (m *Motors) drive(ch channels, cmd int) error {
	var in1, in2 bool
	switch {
	case cmd > 0:
		in1 = true
	case cmd < 0:
		in2 = true
		cmd = -cmd
	}
	if cmd > maxSpeed {
		cmd = maxSpeed
	}
	if err := m.setPin(ch.in2, in2); err != nil {
		return err
	}
	if err := m.setPin(ch.in1, in1); err != nil {
		return err
	}
	return m.setPWM(ch.pwm, 0, uint16(cmd*16))
}

func (m *Motors) setPin(ch int, high bool) error {
	if high {
		return m.setPWM(ch, fullBit, 0)
	}
	return m.setPWM(ch, 0, fullBit)
}

func (m *Motors) setPWM(ch int, on, off uint16) error {
	if off > maxDuty && off != fullBit {
		off = maxDuty
	}
	reg := byte(regLED0OnL + 4*ch)
	w := []byte{reg, byte(on), byte(on >> 8), byte(off), byte(off >> 8)}
	if err := m.c.Tx(w, nil); err != nil {
		return fmt.Errorf("pca9685: channel %d: %w", ch, err)
	}
	return nil
}

// Close releases both motors. The conn is left open.
func (m *Motors) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.c == nil {
		return nil
	}
	err := errors.Join(m.drive(m.left, 0), m.drive(m.right, 0))
	m.c = nil
	return err
}
