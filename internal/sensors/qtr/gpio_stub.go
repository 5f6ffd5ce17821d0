//go:build !linux || (!arm && !arm64)

package qtr

import "fmt"

func openPins(cfg Config) (pins, error) {
	return nil, fmt.Errorf("qtr: gpio unsupported on this platform")
}

var openPinsFn = openPins
