//go:build linux && (arm || arm64)

package button

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

func watch(cfg Config, onEdge func(time.Duration)) (func() error, error) {
	if cfg.Pin <= 0 {
		return nil, fmt.Errorf("button: invalid gpio pin %d", cfg.Pin)
	}
	lineName := fmt.Sprintf("GPIO%d", cfg.Pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	if cfg.Chip != "" {
		chipCandidates = []string{cfg.Chip}
	} else {
		entries, _ := os.ReadDir("/dev")
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "gpiochip") {
				chipCandidates = append(chipCandidates, filepath.Join("/dev", e.Name()))
			}
		}
	}

	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type == gpiocdev.LineEventFallingEdge {
			onEdge(evt.Timestamp)
		}
	}
	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset,
			gpiocdev.WithConsumer("turtle-button"),
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(5*time.Millisecond),
			gpiocdev.WithEventHandler(handler))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return func() error {
			err := line.Close()
			_ = chip.Close()
			return err
		}, nil
	}
	return nil, fmt.Errorf("button: gpio line %q not found (or busy)", lineName)
}

var watchFn = watch
