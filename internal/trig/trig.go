// Package trig provides integer sine and cosine over whole degrees,
// scaled by 1000, backed by fixed lookup tables.
package trig

// Scale is the fixed-point factor applied to every Sin/Cos result.
const Scale = 1000

// Normalize maps any integer angle into [0, 360).
//
// Negative angles are shifted up by whole turns first; Go's % keeps the sign
// of the dividend so it cannot be used on its own.
func Normalize(deg int) int {
	for deg < 0 {
		deg += 360
	}
	return deg % 360
}

// Sin returns 1000*sin(deg).
func Sin(deg int) int {
	return sinTable[Normalize(deg)]
}

// Cos returns 1000*cos(deg).
func Cos(deg int) int {
	return cosTable[Normalize(deg)]
}
