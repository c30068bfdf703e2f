// Package history keeps an append-only log of finished and started rooms.
// It never feeds state back into the engine.
package history

import (
	"context"
	"sync"
	"time"
)

type Event string

const (
	EventStarted   Event = "started"
	EventEnded     Event = "ended"
	EventAbandoned Event = "abandoned"
)

// Entry is one row of match history.
type Entry struct {
	RoomCode   string    `json:"roomCode"`
	Kind       string    `json:"kind"`
	Event      Event     `json:"event"`
	Players    []string  `json:"players"`
	Winner     string    `json:"winner,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Recorder accepts entries without blocking the caller.
type Recorder interface {
	Record(entry Entry)
}

// Store records entries and serves them back.
type Store interface {
	Recorder
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Memory keeps the most recent entries in process memory. It is used when no
// database is configured.
type Memory struct {
	max     int
	entries []Entry
	mu      sync.RWMutex
}

func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 100
	}
	return &Memory{max: max}
}

func (m *Memory) Record(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
}

// Recent returns up to limit entries, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.entries) {
		limit = len(m.entries)
	}

	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
