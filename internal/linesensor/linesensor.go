// Package linesensor turns raw reflectance readings from a five channel array
// into a signed line offset.
//
// Polarity: a larger raw reading means a darker surface, i.e. more line under
// that channel (QTR-RC discharge time). After normalization 0 means "floor"
// and 100 means "line".
package linesensor

import (
	"errors"
	"fmt"
	"strings"
)

// Channels is the number of sensors in the array, left to right.
const Channels = 5

// Center is the index of the middle channel.
const Center = 2

// FullScale is the normalized reading of a channel at its calibrated maximum.
const FullScale = 100

// openMin is the starting minimum; every real reading is below it.
const openMin = 65000

// weights are symmetric around the middle channel. The middle weight is a 1,
// not 0, so a line seen only by the centre channel still yields a non-zero sum.
var weights = [Channels]int64{-2000, -1000, 1, 1000, 2000}

var (
	// ErrNoLineDetected is returned when no channel sees anything line-like.
	ErrNoLineDetected = errors.New("linesensor: no line detected")
	// ErrCalibrationDegenerate marks channels with zero dynamic range.
	ErrCalibrationDegenerate = errors.New("linesensor: calibration degenerate")
)

// Frame is one snapshot of raw readings, left to right.
type Frame [Channels]uint16

// DegenerateError lists the channels whose calibrated max equals min.
type DegenerateError struct {
	Channels []int
}

func (e *DegenerateError) Error() string {
	parts := make([]string, 0, len(e.Channels))
	for _, c := range e.Channels {
		parts = append(parts, fmt.Sprintf("%d", c))
	}
	return fmt.Sprintf("linesensor: zero dynamic range on channel(s) %s", strings.Join(parts, ","))
}

func (e *DegenerateError) Unwrap() error { return ErrCalibrationDegenerate }

// Bounds holds the observed per-channel min and max. Bounds only ever widen.
type Bounds struct {
	Min [Channels]uint16
	Max [Channels]uint16
}

// NewBounds returns open bounds: min at the sentinel, max at zero.
func NewBounds() Bounds {
	var b Bounds
	for i := range b.Min {
		b.Min[i] = openMin
	}
	return b
}

// Update widens the bounds to include f.
func (b *Bounds) Update(f Frame) {
	for i, v := range f {
		if v < b.Min[i] {
			b.Min[i] = v
		}
		if v > b.Max[i] {
			b.Max[i] = v
		}
	}
}

// Validate reports channels that never saw more than a single value,
// including channels that were never updated at all.
func (b Bounds) Validate() error {
	var bad []int
	for i := 0; i < Channels; i++ {
		if b.Max[i] <= b.Min[i] {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return &DegenerateError{Channels: bad}
	}
	return nil
}

// Normalize scales each reading to 0..100 against the bounds. Channels with no
// dynamic range read 0 and are listed in degenerate.
func (b Bounds) Normalize(f Frame) (vals [Channels]int, degenerate []int) {
	for i := 0; i < Channels; i++ {
		lo := int64(b.Min[i])
		hi := int64(b.Max[i])
		if hi <= lo {
			degenerate = append(degenerate, i)
			continue
		}
		v := FullScale * (int64(f[i]) - lo) / (hi - lo)
		// Bounds may be frozen, so live readings can fall outside them.
		if v < 0 {
			v = 0
		} else if v > FullScale {
			v = FullScale
		}
		vals[i] = int(v)
	}
	return vals, degenerate
}

// Reading is the outcome of one position estimate.
type Reading struct {
	// Position is the weighted line offset, about -2000..2000.
	// Negative means the line is to the left.
	Position   int
	Normalized [Channels]int
	Degenerate []int
}

// Estimate computes the weighted-average line position for f.
//
// Degenerate channels contribute nothing. ErrNoLineDetected is returned (with
// the normalized values still filled in) when the normalized sum is zero.
func Estimate(f Frame, b Bounds) (Reading, error) {
	vals, degenerate := b.Normalize(f)
	r := Reading{Normalized: vals, Degenerate: degenerate}

	var sum, count int64
	for i, v := range vals {
		sum += int64(v) * weights[i]
		count += int64(v)
	}
	if count == 0 {
		return r, ErrNoLineDetected
	}
	r.Position = int(sum / count)
	return r, nil
}

// OffTrack reports whether every monitored channel reads at or below
// threshold. With centerOnly only the middle channel is monitored.
func OffTrack(f Frame, b Bounds, centerOnly bool, threshold int) bool {
	vals, _ := b.Normalize(f)
	if centerOnly {
		return vals[Center] <= threshold
	}
	for _, v := range vals {
		if v > threshold {
			return false
		}
	}
	return true
}

// Bars maps each channel onto a 0..8 bar-graph level for small displays.
func Bars(f Frame, b Bounds) [Channels]int {
	var out [Channels]int
	for i := 0; i < Channels; i++ {
		lo := int(b.Min[i])
		hi := int(b.Max[i])
		if hi <= lo {
			continue
		}
		c := (int(f[i]) - lo) * 9 / (hi - lo)
		if c < 0 {
			c = 0
		} else if c > 8 {
			c = 8
		}
		out[i] = c
	}
	return out
}
