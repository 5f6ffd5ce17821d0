package web

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"turtle/internal/control"
	"turtle/internal/steering"
	"turtle/internal/telemetry"
)

// Status keeps the latest value of every telemetry label. It implements
// telemetry.Sink.
type Status struct {
	startUnixNano int64
	updates       uint64
	lastNano      int64
	runID         atomic.Value // string
	backend       atomic.Value // string

	mu     sync.RWMutex
	values map[string]int64
}

func NewStatus() *Status {
	s := &Status{values: map[string]int64{}}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.runID.Store("")
	s.backend.Store("")
	return s
}

func (s *Status) SetStatic(runID, backend string) {
	if runID != "" {
		s.runID.Store(runID)
	}
	if backend != "" {
		s.backend.Store(backend)
	}
}

func (s *Status) Show(label string, value int64) {
	s.mu.Lock()
	s.values[label] = value
	s.mu.Unlock()
	atomic.AddUint64(&s.updates, 1)
	atomic.StoreInt64(&s.lastNano, time.Now().UTC().UnixNano())
}

// Value returns the latest value for label.
func (s *Status) Value(label string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[label]
	return v, ok
}

type StatusSnapshot struct {
	Service       string           `json:"service"`
	NowUTC        string           `json:"now_utc"`
	UptimeSec     int64            `json:"uptime_sec"`
	GoVersion     string           `json:"go_version"`
	Commit        string           `json:"commit,omitempty"`
	Backend       string           `json:"backend"`
	RunID         string           `json:"run_id"`
	Phase         string           `json:"phase,omitempty"`
	Mode          string           `json:"mode,omitempty"`
	Updates       uint64           `json:"updates"`
	LastUpdateUTC string           `json:"last_update_utc,omitempty"`
	Values        map[string]int64 `json:"values"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "turtle",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		GoVersion: runtime.Version(),
		Commit:    commit(),
		Backend:   s.backend.Load().(string),
		RunID:     s.runID.Load().(string),
		Updates:   atomic.LoadUint64(&s.updates),
		Values:    map[string]int64{},
	}
	if last := atomic.LoadInt64(&s.lastNano); last != 0 {
		snap.LastUpdateUTC = time.Unix(0, last).UTC().Format(time.RFC3339Nano)
	}

	s.mu.RLock()
	for k, v := range s.values {
		snap.Values[k] = v
	}
	s.mu.RUnlock()

	if v, ok := snap.Values[telemetry.Phase]; ok {
		snap.Phase = control.Phase(v).String()
	}
	if v, ok := snap.Values[telemetry.Mode]; ok {
		snap.Mode = steering.Mode(v).String()
	}
	return snap
}

func commit() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return ""
	}
	for _, kv := range bi.Settings {
		if kv.Key == "vcs.revision" {
			return kv.Value
		}
	}
	return ""
}
