package control

import (
	"context"
	"fmt"
	"log"
	"time"

	"turtle/internal/linesensor"
	"turtle/internal/motion"
)

// CalibrateSpeed times two straight runs between a pair of off-track marks
// (gaps in the line, Calibration.Distance apart) at cmdA and cmdB, and
// refits the motor model from them. On any error the model is unchanged.
//
// Requires calibrated bounds, so it runs after the dance.
func (l *Loop) CalibrateSpeed(ctx context.Context, cmdA, cmdB int) error {
	l.setPhase(PhaseCalibrating)
	defer l.stopMotors()

	a, err := l.timeTrial(ctx, cmdA)
	if err != nil {
		return err
	}
	b, err := l.timeTrial(ctx, cmdB)
	if err != nil {
		return err
	}

	m := l.st.Model
	if err := m.Recalibrate(a, b, l.cfg.Calibration.Distance); err != nil {
		return fmt.Errorf("control: recalibrate: %w", err)
	}
	l.st.Model = m
	l.st.Tracker.SetModel(m)
	log.Printf("control: speed calibration %dms@%d %dms@%d -> %s", a.TransitMS, a.Command, b.TransitMS, b.Command, m)
	return nil
}

// timeTrial drives straight at cmd and measures the time between two
// on-to-off track transitions at least Debounce apart.
func (l *Loop) timeTrial(ctx context.Context, cmd int) (motion.Trial, error) {
	cc := l.cfg.Calibration
	if cc.WaitForSignal {
		if err := l.waitForSignal(ctx); err != nil {
			return motion.Trial{}, err
		}
	}
	defer func() {
		l.stopMotors()
		l.clock.Sleep(l.cfg.HomeSettle)
	}()

	start := l.clock.Now()
	var first time.Time
	// Starting on a mark must not count as crossing it.
	wasOff := true
	l.setMotors(cmd, cmd)
	for {
		if err := ctx.Err(); err != nil {
			return motion.Trial{}, err
		}
		now := l.clock.Now()
		if now.Sub(start) > cc.TrialTimeout {
			return motion.Trial{}, fmt.Errorf("%w: command %d after %s", ErrTrialTimeout, cmd, cc.TrialTimeout)
		}
		if f, ok := l.read(); ok {
			off := linesensor.OffTrack(f, l.st.Bounds, false, l.cfg.OffTrackThreshold)
			if off && !wasOff {
				switch {
				case first.IsZero():
					first = now
				case now.Sub(first) > cc.Debounce:
					return motion.Trial{Command: cmd, TransitMS: now.Sub(first).Milliseconds()}, nil
				}
			}
			wasOff = off
		}
		l.clock.Sleep(l.cfg.LoopDelay)
	}
}
