package trig

import (
	"math"
	"testing"
)

func TestSin_Periodic(t *testing.T) {
	for a := -1080; a <= 1080; a++ {
		if Sin(a) != Sin(a+360) {
			t.Fatalf("Sin(%d)=%d Sin(%d)=%d", a, Sin(a), a+360, Sin(a+360))
		}
		if Cos(a) != Cos(a+360) {
			t.Fatalf("Cos(%d)=%d Cos(%d)=%d", a, Cos(a), a+360, Cos(a+360))
		}
	}
}

func TestSin_NegativeShiftsByWholeTurns(t *testing.T) {
	for a := -1; a >= -800; a-- {
		k := 0
		for a+360*k < 0 {
			k++
		}
		if got, want := Sin(a), Sin(a+360*k); got != want {
			t.Fatalf("Sin(%d)=%d want %d", a, got, want)
		}
	}
	if got := Sin(-90); got != Sin(270) {
		t.Fatalf("Sin(-90)=%d want %d", got, Sin(270))
	}
}

func TestUnitCircle(t *testing.T) {
	for a := 0; a < 360; a++ {
		s := float64(Sin(a))
		c := float64(Cos(a))
		mag := math.Sqrt(s*s + c*c)
		if math.Abs(mag-Scale) > 20 {
			t.Fatalf("angle=%d |(sin,cos)|=%v want ~1000", a, mag)
		}
	}
}

func TestKnownValues(t *testing.T) {
	cases := []struct {
		deg      int
		sin, cos int
	}{
		{0, 0, 1000},
		{30, 500, 866},
		{90, 999, -1},
		{180, -1, -1000},
		{270, -1000, 0},
		{-90, -1000, 0},
		{450, 999, -1},
	}
	for _, tc := range cases {
		if got := Sin(tc.deg); got != tc.sin {
			t.Fatalf("Sin(%d)=%d want %d", tc.deg, got, tc.sin)
		}
		if got := Cos(tc.deg); got != tc.cos {
			t.Fatalf("Cos(%d)=%d want %d", tc.deg, got, tc.cos)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[int]int{0: 0, 359: 359, 360: 0, 725: 5, -1: 359, -360: 0, -721: 359}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%d)=%d want %d", in, got, want)
		}
	}
}
