//go:build !linux || (!arm && !arm64)

package button

import (
	"fmt"
	"time"
)

func watch(cfg Config, onEdge func(time.Duration)) (func() error, error) {
	return nil, fmt.Errorf("button: gpio unsupported on this platform")
}

var watchFn = watch
