// Package qtr reads a Pololu QTR-RC style reflectance array. Each sensor
// capacitor is charged through its GPIO, the line is released, and the time
// until it reads low is the raw value: short over a bright surface, long over
// a dark line.
package qtr

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"turtle/internal/linesensor"
)

const (
	DefaultTimeout = 2000 * time.Microsecond
	DefaultCharge  = 10 * time.Microsecond
	// MaxTimeout is the longest discharge a frame value can hold.
	MaxTimeout = 65535 * time.Microsecond
)

type Config struct {
	// Chip is the gpiochip device path; empty probes the usual Pi chips.
	Chip string
	// Pins are BCM GPIO numbers, left to right.
	Pins [linesensor.Channels]int
	// Emitter is the IR LED enable pin; 0 means always on.
	Emitter int
	Timeout time.Duration
	Charge  time.Duration
}

// pins is one group of sensor lines plus the optional emitter.
type pins interface {
	charge() error
	release() error
	values(v []int) error
	emitter(on bool) error
	close() error
}

var (
	nowFn   = time.Now
	sleepFn = time.Sleep
)

// Array implements robot.SensorArray.
type Array struct {
	mu  sync.Mutex
	p   pins
	cfg Config
}

// Open requests the sensor lines.
func Open(cfg Config) (*Array, error) {
	for i, pin := range cfg.Pins {
		if pin <= 0 {
			return nil, fmt.Errorf("qtr: sensor %d: invalid gpio pin %d", i, pin)
		}
	}
	p, err := openPinsFn(cfg)
	if err != nil {
		return nil, err
	}
	return newArray(p, cfg), nil
}

func newArray(p pins, cfg Config) *Array {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout > MaxTimeout {
		cfg.Timeout = MaxTimeout
	}
	if cfg.Charge <= 0 {
		cfg.Charge = DefaultCharge
	}
	return &Array{p: p, cfg: cfg}
}

// ReadFrame returns discharge times in microseconds, capped at the timeout.
func (a *Array) ReadFrame() (linesensor.Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var f linesensor.Frame
	if a.p == nil {
		return f, errors.New("qtr: closed")
	}
	limit := uint16(a.cfg.Timeout / time.Microsecond)
	for i := range f {
		f[i] = limit
	}

	if err := a.p.emitter(true); err != nil {
		return f, fmt.Errorf("qtr: emitter: %w", err)
	}
	defer func() { _ = a.p.emitter(false) }()

	if err := a.p.charge(); err != nil {
		return f, fmt.Errorf("qtr: charge: %w", err)
	}
	sleepFn(a.cfg.Charge)
	start := nowFn()
	if err := a.p.release(); err != nil {
		return f, fmt.Errorf("qtr: release: %w", err)
	}

	v := make([]int, linesensor.Channels)
	var done [linesensor.Channels]bool
	pending := linesensor.Channels
	for pending > 0 {
		if err := a.p.values(v); err != nil {
			return f, fmt.Errorf("qtr: read: %w", err)
		}
		el := nowFn().Sub(start)
		if el >= a.cfg.Timeout {
			break
		}
		us := uint16(el / time.Microsecond)
		for i := range v {
			if !done[i] && v[i] == 0 {
				done[i] = true
				f[i] = us
				pending--
			}
		}
	}
	return f, nil
}

func (a *Array) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.p == nil {
		return nil
	}
	err := a.p.close()
	a.p = nil
	return err
}
