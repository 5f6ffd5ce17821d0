package web

import (
	"sync"
	"time"
)

// Sample is one telemetry value as streamed to websocket clients.
type Sample struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	AtUTC string `json:"at_utc"`
}

// Broadcaster fans telemetry out to any listeners. Slow listeners drop
// samples rather than stall the control loop. It implements telemetry.Sink.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan Sample
	nextID int
	last   map[string]Sample
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan Sample),
		last: make(map[string]Sample),
	}
}

// Subscribe registers a listener. The latest value of every label is queued
// immediately, as far as the buffer allows.
func (b *Broadcaster) Subscribe(buffer int) (int, <-chan Sample) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Sample, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	for _, s := range b.last {
		select {
		case ch <- s:
		default:
		}
	}
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers is the number of live listeners.
func (b *Broadcaster) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) Show(label string, value int64) {
	if b == nil {
		return
	}
	s := Sample{Label: label, Value: value, AtUTC: time.Now().UTC().Format(time.RFC3339Nano)}
	b.mu.Lock()
	b.last[label] = s
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
	b.mu.Unlock()
}
