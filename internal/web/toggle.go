package web

import (
	"net/http"
	"sync"
)

// RunLatch is a software run/stop button. It implements robot.RunSignal.
type RunLatch struct {
	mu      sync.Mutex
	pending bool
	presses uint64
}

func (l *RunLatch) Press() {
	l.mu.Lock()
	l.pending = true
	l.presses++
	l.mu.Unlock()
}

func (l *RunLatch) Toggled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.pending
	l.pending = false
	return t
}

func (l *RunLatch) Presses() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.presses
}

func (l *RunLatch) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		l.Press()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})
}
