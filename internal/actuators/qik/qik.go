// Package qik drives two DC motors through a Pololu qik serial motor
// controller (2s9v1 / 2s12v10) using 8-bit speed commands.
package qik

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	autobaud = 0xAA

	cmdM0Forward = 0x88
	cmdM0Reverse = 0x8A
	cmdM1Forward = 0x8C
	cmdM1Reverse = 0x8E
	cmdGetErrors = 0x82

	maxSpeed = 255
)

// ErrorBits decodes the qik error byte into a go error.
func ErrorBits(val byte) error {
	names := []string{
		"",                   // bit 0 unused
		"",                   // bit 1 unused
		"",                   // bit 2 unused
		"data overrun error", // bit 3
		"frame error",        // bit 4
		"crc error",          // bit 5
		"format error",       // bit 6
		"serial timeout",     // bit 7
	}
	var s []string
	for i, n := range names {
		if n != "" && val&(1<<i) != 0 {
			s = append(s, n)
		}
	}
	if len(s) == 0 {
		return nil
	}
	return errors.New("qik: " + strings.Join(s, ","))
}

type Config struct {
	// Baud is the serial rate; the qik autodetects it. Default 38400.
	Baud int
	// Device selects the Pololu protocol addressed at this device number.
	// 0 uses the compact protocol.
	Device byte
	// SwapMotors puts the left wheel on M1 instead of M0.
	SwapMotors  bool
	InvertLeft  bool
	InvertRight bool
}

type port interface {
	io.ReadWriteCloser
}

var openPortFn = func(path string, baud int) (port, error) {
	p, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Motors is a qik on a serial port. It implements robot.Motors.
type Motors struct {
	mu  sync.Mutex
	p   port
	cfg Config
}

// Open opens the serial device and initializes the controller.
func Open(path string, cfg Config) (*Motors, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 38400
	}
	p, err := openPortFn(path, cfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("qik: open %s: %w", path, err)
	}
	m, err := New(p, cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return m, nil
}

// New sends the autobaud byte and stops both motors.
func New(p io.ReadWriteCloser, cfg Config) (*Motors, error) {
	if p == nil {
		return nil, errors.New("qik: port is nil")
	}
	m := &Motors{p: p, cfg: cfg}
	if _, err := p.Write([]byte{autobaud}); err != nil {
		return nil, fmt.Errorf("qik: autobaud: %w", err)
	}
	if err := m.SetMotors(0, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Motors) preamble(cmd byte) []byte {
	if m.cfg.Device == 0 {
		return []byte{cmd}
	}
	return []byte{autobaud, m.cfg.Device, cmd & 0x7F}
}

// speedCommand encodes one motor command. Speeds above 127 set the low
// command bit and send the remaining 7 bits.
func (m *Motors) speedCommand(motor, cmd int) []byte {
	fwd, rev := byte(cmdM0Forward), byte(cmdM0Reverse)
	if motor == 1 {
		fwd, rev = cmdM1Forward, cmdM1Reverse
	}
	op := fwd
	if cmd < 0 {
		op = rev
		cmd = -cmd
	}
	if cmd > maxSpeed {
		cmd = maxSpeed
	}
	if cmd > 127 {
		op |= 1
		cmd -= 128
	}
	return append(m.preamble(op), byte(cmd))
}

func (m *Motors) SetMotors(left, right int) error {
	if m.cfg.InvertLeft {
		left = -left
	}
	if m.cfg.InvertRight {
		right = -right
	}
	lm, rm := 0, 1
	if m.cfg.SwapMotors {
		lm, rm = 1, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return errors.New("qik: closed")
	}
	buf := append(m.speedCommand(lm, left), m.speedCommand(rm, right)...)
	if _, err := m.p.Write(buf); err != nil {
		return fmt.Errorf("qik: set motors: %w", err)
	}
	return nil
}

// Errors reads and clears the controller error byte.
func (m *Motors) Errors() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return errors.New("qik: closed")
	}
	if _, err := m.p.Write(m.preamble(cmdGetErrors)); err != nil {
		return fmt.Errorf("qik: get errors: %w", err)
	}
	var b [1]byte
	n, err := m.p.Read(b[:])
	if err != nil {
		return fmt.Errorf("qik: get errors: %w", err)
	}
	if n == 0 {
		return errors.New("qik: get errors: no reply")
	}
	return ErrorBits(b[0])
}

// Close stops both motors and closes the port.
func (m *Motors) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return nil
	}
	_, werr := m.p.Write(append(m.speedCommand(0, 0), m.speedCommand(1, 0)...))
	cerr := m.p.Close()
	m.p = nil
	return errors.Join(werr, cerr)
}
