package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"turtle/internal/linesensor"
	"turtle/internal/trace"
)

type traceSummary struct {
	Segments    int
	Frames      int
	NoLine      int
	MaxDuration time.Duration
	MinPosition int
	MaxPosition int
}

func summarizeTrace(records []trace.Record, est []trace.Estimate) traceSummary {
	var s traceSummary
	hasFrames := false
	for _, r := range records {
		if r.Start {
			s.Segments++
			continue
		}
		hasFrames = true
		s.Frames++
		if r.At > s.MaxDuration {
			s.MaxDuration = r.At
		}
	}
	if s.Segments == 0 && hasFrames {
		s.Segments = 1
	}

	first := true
	for _, e := range est {
		if e.NoLine {
			s.NoLine++
			continue
		}
		if first || e.Position < s.MinPosition {
			s.MinPosition = e.Position
		}
		if first || e.Position > s.MaxPosition {
			s.MaxPosition = e.Position
		}
		first = false
	}
	return s
}

func formatBounds(b linesensor.Bounds) string {
	s := fmt.Sprintf("min=%v max=%v", b.Min, b.Max)
	var de *linesensor.DegenerateError
	if errors.As(b.Validate(), &de) {
		s += fmt.Sprintf(" degenerate=%v", de.Channels)
	}
	return s
}

// replayTrace prints one position per recorded frame, then a summary.
func replayTrace(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rd := trace.NewReader(f)
	recs, err := rd.ReadAll()
	if err != nil {
		return err
	}
	bounds, est, err := trace.Estimates(recs)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# run %s\n", rd.RunID)
	fmt.Fprintf(out, "# bounds %s\n", formatBounds(bounds))
	for _, e := range est {
		if e.NoLine {
			fmt.Fprintf(out, "%d,no_line\n", e.At.Milliseconds())
			continue
		}
		fmt.Fprintf(out, "%d,%d\n", e.At.Milliseconds(), e.Position)
	}

	s := summarizeTrace(recs, est)
	fmt.Fprintf(out, "# segments=%d frames=%d no_line=%d duration=%s position=[%d,%d]\n",
		s.Segments, s.Frames, s.NoLine, s.MaxDuration, s.MinPosition, s.MaxPosition)
	return nil
}
