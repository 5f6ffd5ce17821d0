//go:build linux && (arm || arm64)

package qtr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "turtle-qtr"

func chipCandidates(chip string) []string {
	if chip != "" {
		return []string{chip}
	}
	c := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			c = append(c, filepath.Join("/dev", e.Name()))
		}
	}
	return c
}

func findOffsets(chip *gpiocdev.Chip, pins []int) ([]int, error) {
	offs := make([]int, len(pins))
	for i, pin := range pins {
		o, err := chip.FindLine(fmt.Sprintf("GPIO%d", pin))
		if err != nil {
			return nil, err
		}
		offs[i] = o
	}
	return offs, nil
}

func openPins(cfg Config) (pins, error) {
	for _, path := range chipCandidates(cfg.Chip) {
		chip, err := gpiocdev.NewChip(path, gpiocdev.WithConsumer(consumer))
		if err != nil {
			continue
		}
		offs, err := findOffsets(chip, cfg.Pins[:])
		if err != nil {
			_ = chip.Close()
			continue
		}
		lines, err := chip.RequestLines(offs, gpiocdev.AsInput)
		if err != nil {
			_ = chip.Close()
			return nil, fmt.Errorf("qtr: request lines on %s: %w", path, err)
		}
		g := &gpiodPins{chip: chip, lines: lines, high: make([]int, len(offs))}
		for i := range g.high {
			g.high[i] = 1
		}
		if cfg.Emitter > 0 {
			eo, err := chip.FindLine(fmt.Sprintf("GPIO%d", cfg.Emitter))
			if err == nil {
				g.led, err = chip.RequestLine(eo, gpiocdev.AsOutput(0))
			}
			if err != nil {
				_ = g.close()
				return nil, fmt.Errorf("qtr: emitter GPIO%d: %w", cfg.Emitter, err)
			}
		}
		return g, nil
	}
	return nil, fmt.Errorf("qtr: sensor lines %v not found (or busy)", cfg.Pins)
}

var openPinsFn = openPins

type gpiodPins struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	led   *gpiocdev.Line
	high  []int
}

func (g *gpiodPins) charge() error {
	return g.lines.Reconfigure(gpiocdev.AsOutput(g.high...))
}

func (g *gpiodPins) release() error {
	return g.lines.Reconfigure(gpiocdev.AsInput)
}

func (g *gpiodPins) values(v []int) error {
	return g.lines.Values(v)
}

func (g *gpiodPins) emitter(on bool) error {
	if g.led == nil {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	return g.led.SetValue(v)
}

func (g *gpiodPins) close() error {
	var err error
	if g.led != nil {
		_ = g.led.SetValue(0)
		err = g.led.Close()
		g.led = nil
	}
	if g.lines != nil {
		if cerr := g.lines.Close(); err == nil {
			err = cerr
		}
		g.lines = nil
	}
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
