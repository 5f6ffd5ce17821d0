// Package button turns a momentary push button into the run/stop signal.
package button

import (
	"sync"
	"time"
)

const DefaultDebounce = 50 * time.Millisecond

type Config struct {
	Chip string
	// Pin is the BCM GPIO number. The button pulls it to ground.
	Pin      int
	Debounce time.Duration
}

// Button latches falling edges until Toggled consumes them. It implements
// robot.RunSignal.
type Button struct {
	mu       sync.Mutex
	debounce time.Duration
	last     time.Duration
	seen     bool
	pending  bool
	presses  uint64
	closer   func() error
}

func newButton(debounce time.Duration) *Button {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Button{debounce: debounce}
}

// Open requests the GPIO line and starts watching for presses.
func Open(cfg Config) (*Button, error) {
	b := newButton(cfg.Debounce)
	closer, err := watchFn(cfg, b.edge)
	if err != nil {
		return nil, err
	}
	b.closer = closer
	return b, nil
}

// edge records a falling edge at the given monotonic timestamp. Edges
// closer than the debounce period to the previous accepted one are dropped.
func (b *Button) edge(at time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen && at-b.last < b.debounce {
		return
	}
	b.seen = true
	b.last = at
	b.pending = true
	b.presses++
}

func (b *Button) Toggled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.pending
	b.pending = false
	return t
}

// Presses is the number of accepted presses since Open.
func (b *Button) Presses() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presses
}

func (b *Button) Close() error {
	b.mu.Lock()
	c := b.closer
	b.closer = nil
	b.mu.Unlock()
	if c == nil {
		return nil
	}
	return c()
}
