package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-window limiter for a single process. It is used when no
// Redis is configured.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewMemory(limit int, win time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  win,
		windows: make(map[string]window),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		w = window{start: now}
	}
	w.count++
	m.windows[key] = w
	return w.count <= m.limit, nil
}

// Prune drops windows that have already closed so idle keys do not
// accumulate.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, k)
			n++
		}
	}
	return n
}
