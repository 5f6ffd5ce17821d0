package telemetry

import (
	"log"
	"sync"
)

// LogSink writes every Nth value of each label through the standard logger.
// It stands in for the robot's LCD when running headless.
type LogSink struct {
	every  int
	logger *log.Logger

	mu     sync.Mutex
	counts map[string]int
}

// NewLogSink logs one in every values per label. every <= 1 logs everything.
// A nil logger uses the standard logger.
func NewLogSink(every int, logger *log.Logger) *LogSink {
	if every < 1 {
		every = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{every: every, logger: logger, counts: make(map[string]int)}
}

func (s *LogSink) Show(label string, value int64) {
	s.mu.Lock()
	n := s.counts[label]
	s.counts[label] = n + 1
	s.mu.Unlock()
	if n%s.every != 0 {
		return
	}
	s.logger.Printf("telemetry: %s=%d", label, value)
}
