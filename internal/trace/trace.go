package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"turtle/internal/linesensor"
)

// Trace format: line-oriented text.
//
// - Blank lines ignored.
// - "# run <uuid>" names the run; other '#' lines are ignored.
// - Line "START" resets the origin.
// - Data lines are: <t_ns>,<r0> <r1> <r2> <r3> <r4>
//   where t_ns is nanoseconds since START and r0..r4 are raw sensor readings,
//   left to right.

type Record struct {
	At    time.Duration
	Start bool
	Frame linesensor.Frame
}

type Reader struct {
	r     io.Reader
	RunID uuid.UUID
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func parseFrame(s string) (linesensor.Frame, error) {
	var f linesensor.Frame
	fields := strings.Fields(s)
	if len(fields) != linesensor.Channels {
		return f, fmt.Errorf("trace: want %d readings, got %d", linesensor.Channels, len(fields))
	}
	for i, fs := range fields {
		v, err := strconv.ParseUint(fs, 10, 16)
		if err != nil {
			return f, fmt.Errorf("trace: reading %d: %w", i, err)
		}
		f[i] = uint16(v)
	}
	return f, nil
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	recs := make([]Record, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if rest, ok := strings.CutPrefix(line, "# run "); ok {
				id, err := uuid.Parse(strings.TrimSpace(rest))
				if err != nil {
					return nil, fmt.Errorf("trace: run id: %w", err)
				}
				rr.RunID = id
			}
			continue
		}
		if line == "START" {
			recs = append(recs, Record{Start: true})
			continue
		}

		tsStr, frameStr, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("trace: invalid line (missing comma): %q", line)
		}
		tsNs, err := strconv.ParseInt(strings.TrimSpace(tsStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("trace: invalid timestamp %q: %w", tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("trace: invalid timestamp (negative): %d", tsNs)
		}
		f, err := parseFrame(frameStr)
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, line)
		}
		recs = append(recs, Record{At: time.Duration(tsNs), Frame: f})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// Writer records raw frames. It implements control.FrameRecorder. The first
// recorded frame sets the origin.
type Writer struct {
	mu     sync.Mutex
	c      io.Closer
	w      *bufio.Writer
	start  time.Time
	begun  bool
	closed bool
}

func CreateWriter(path string, run uuid.UUID) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	w, err := NewWriter(f, run)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func NewWriter(wc io.WriteCloser, run uuid.UUID) (*Writer, error) {
	bw := bufio.NewWriterSize(wc, 64*1024)
	if _, err := fmt.Fprintf(bw, "# run %s\nSTART\n", run); err != nil {
		return nil, fmt.Errorf("trace: header: %w", err)
	}
	return &Writer{c: wc, w: bw}, nil
}

func (ww *Writer) RecordFrame(at time.Time, f linesensor.Frame) error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return errors.New("trace: writer is closed")
	}
	if !ww.begun {
		ww.start = at
		ww.begun = true
	}
	d := at.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%d %d %d %d %d\n", d.Nanoseconds(), f[0], f[1], f[2], f[3], f[4])
	return err
}

func (ww *Writer) Flush() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	ww.mu.Lock()
	defer ww.mu.Unlock()
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.c.Close()
		return err
	}
	return ww.c.Close()
}

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Play replays frames with their relative timing. START markers reset the
// origin. speed 2.0 halves every wait.
func Play(records []Record, speed float64, sleeper Sleeper, cb func(Record) error) error {
	if speed <= 0 {
		return fmt.Errorf("trace: speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("trace: callback is nil")
	}

	var lastAt time.Duration
	var haveLast bool
	for _, r := range records {
		if r.Start {
			haveLast = false
			continue
		}
		if haveLast {
			wait := r.At - lastAt
			if wait > 0 {
				sleeper.Sleep(time.Duration(float64(wait) / speed))
			}
		}
		if err := cb(r); err != nil {
			return err
		}
		lastAt = r.At
		haveLast = true
	}
	return nil
}

// Estimate is one replayed position.
type Estimate struct {
	At       time.Duration
	Position int
	NoLine   bool
}

// Estimates calibrates bounds over every frame in the trace, then runs the
// position estimator over each frame in order. Channels without dynamic
// range are skipped by the estimator; callers can list them with
// Bounds.Validate.
func Estimates(records []Record) (linesensor.Bounds, []Estimate, error) {
	b := linesensor.NewBounds()
	n := 0
	for _, r := range records {
		if !r.Start {
			b.Update(r.Frame)
			n++
		}
	}
	if n == 0 {
		return b, nil, errors.New("trace: no frames")
	}

	out := make([]Estimate, 0, n)
	err := Play(records, 1, noSleep{}, func(r Record) error {
		rd, err := linesensor.Estimate(r.Frame, b)
		switch {
		case errors.Is(err, linesensor.ErrNoLineDetected):
			out = append(out, Estimate{At: r.At, NoLine: true})
		case err != nil:
			return err
		default:
			out = append(out, Estimate{At: r.At, Position: rd.Position})
		}
		return nil
	})
	return b, out, err
}

type noSleep struct{}

func (noSleep) Sleep(time.Duration) {}
