package linesensor

import (
	"errors"
	"testing"
)

func testBounds() Bounds {
	b := NewBounds()
	b.Update(Frame{0, 0, 0, 0, 0})
	b.Update(Frame{1000, 1000, 1000, 1000, 1000})
	return b
}

func TestBounds_UpdateOnlyWidens(t *testing.T) {
	b := NewBounds()
	b.Update(Frame{500, 400, 300, 200, 100})
	b.Update(Frame{600, 300, 300, 250, 50})
	b.Update(Frame{550, 350, 300, 225, 75})

	wantMin := [Channels]uint16{500, 300, 300, 200, 50}
	wantMax := [Channels]uint16{600, 400, 300, 250, 100}
	if b.Min != wantMin {
		t.Fatalf("min=%v want %v", b.Min, wantMin)
	}
	if b.Max != wantMax {
		t.Fatalf("max=%v want %v", b.Max, wantMax)
	}
}

func TestBounds_ValidateReportsDegenerateChannels(t *testing.T) {
	b := NewBounds()
	b.Update(Frame{100, 100, 100, 100, 100})
	b.Update(Frame{900, 900, 100, 900, 900})

	err := b.Validate()
	var de *DegenerateError
	if !errors.As(err, &de) {
		t.Fatalf("err=%v want *DegenerateError", err)
	}
	if len(de.Channels) != 1 || de.Channels[0] != 2 {
		t.Fatalf("channels=%v want [2]", de.Channels)
	}
	if !errors.Is(err, ErrCalibrationDegenerate) {
		t.Fatalf("err=%v want ErrCalibrationDegenerate", err)
	}
	if err := testBounds().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEstimate_Centered(t *testing.T) {
	b := testBounds()
	cases := []struct {
		name  string
		frame Frame
		want  int
	}{
		{"symmetric", Frame{0, 500, 1000, 500, 0}, 0},
		{"outerPairs", Frame{1000, 1000, 0, 1000, 1000}, 0},
		{"centerOnlyBias", Frame{0, 0, 1000, 0, 0}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Estimate(tc.frame, b)
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if r.Position != tc.want {
				t.Fatalf("position=%d want %d", r.Position, tc.want)
			}
		})
	}
}

func TestEstimate_Sign(t *testing.T) {
	b := testBounds()
	left, err := Estimate(Frame{1000, 200, 0, 0, 0}, b)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if left.Position >= 0 {
		t.Fatalf("left position=%d want <0", left.Position)
	}
	right, err := Estimate(Frame{0, 0, 0, 200, 1000}, b)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if right.Position <= 0 {
		t.Fatalf("right position=%d want >0", right.Position)
	}
	far, err := Estimate(Frame{0, 0, 0, 0, 1000}, b)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if far.Position != 2000 {
		t.Fatalf("far right position=%d want 2000", far.Position)
	}
}

func TestEstimate_NoLine(t *testing.T) {
	b := testBounds()
	_, err := Estimate(Frame{0, 0, 0, 0, 0}, b)
	if !errors.Is(err, ErrNoLineDetected) {
		t.Fatalf("err=%v want ErrNoLineDetected", err)
	}
}

func TestEstimate_SkipsDegenerateChannel(t *testing.T) {
	b := testBounds()
	b.Min[0], b.Max[0] = 400, 400

	r, err := Estimate(Frame{400, 0, 1000, 0, 0}, b)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if len(r.Degenerate) != 1 || r.Degenerate[0] != 0 {
		t.Fatalf("degenerate=%v want [0]", r.Degenerate)
	}
	if r.Normalized[0] != 0 {
		t.Fatalf("normalized[0]=%d want 0", r.Normalized[0])
	}
	if r.Position != 1 {
		t.Fatalf("position=%d want 1", r.Position)
	}
}

func TestNormalize_ClampsOutsideFrozenBounds(t *testing.T) {
	b := NewBounds()
	b.Update(Frame{200, 200, 200, 200, 200})
	b.Update(Frame{600, 600, 600, 600, 600})

	vals, _ := b.Normalize(Frame{100, 200, 400, 600, 900})
	want := [Channels]int{0, 0, 50, 100, 100}
	if vals != want {
		t.Fatalf("vals=%v want %v", vals, want)
	}
}

func TestOffTrack(t *testing.T) {
	b := testBounds()
	cases := []struct {
		name       string
		frame      Frame
		centerOnly bool
		want       bool
	}{
		{"allDark", Frame{100, 100, 100, 100, 100}, false, true},
		{"centerSeesLine", Frame{100, 100, 600, 100, 100}, false, false},
		{"edgeSeesLine", Frame{100, 100, 100, 100, 600}, false, false},
		{"atThresholdIsDark", Frame{250, 250, 250, 250, 250}, false, true},
		{"centerOnlyIgnoresEdges", Frame{900, 100, 100, 100, 900}, true, true},
		{"centerOnlySeesLine", Frame{100, 100, 600, 100, 100}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OffTrack(tc.frame, b, tc.centerOnly, 25); got != tc.want {
				t.Fatalf("OffTrack=%v want %v", got, tc.want)
			}
		})
	}
}

func TestBars(t *testing.T) {
	b := testBounds()
	got := Bars(Frame{0, 500, 1000, 999, 50}, b)
	want := [Channels]int{0, 4, 8, 8, 0}
	if got != want {
		t.Fatalf("bars=%v want %v", got, want)
	}
}
