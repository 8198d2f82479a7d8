// Package hallog defines the hallucination log record and its sinks.
//
// The router emits one Entry per resolved request; durable storage belongs
// to whoever hosts the router. A Sink is that boundary: the default
// MemorySink keeps a bounded in-process window, and SQLiteSink is a
// self-contained durable implementation for hosts that want one.
package hallog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a request was answered.
type Outcome string

const (
	OutcomeRedirected Outcome = "redirected"
	OutcomeNotFound   Outcome = "404"
	OutcomeAliasUsed  Outcome = "alias-used"
)

// Entry is one hallucination log record.
type Entry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	HallucinatedPath string    `json:"hallucinatedPath"`
	MatchedPath      string    `json:"matchedPath,omitempty"`
	Confidence       float64   `json:"confidence"`
	AgentType        string    `json:"agentType,omitempty"`
	Outcome          Outcome   `json:"outcome"`
	LatencyMs        float64   `json:"latencyMs"`
}

// NewEntry stamps an entry with a fresh id and the current time.
func NewEntry(path, matched string, confidence float64, agentType string, outcome Outcome, latency time.Duration) Entry {
	return Entry{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		HallucinatedPath: path,
		MatchedPath:      matched,
		Confidence:       confidence,
		AgentType:        agentType,
		Outcome:          outcome,
		LatencyMs:        float64(latency.Microseconds()) / 1000,
	}
}

// Sink receives log entries. Implementations must tolerate concurrent
// Record calls.
type Sink interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// DefaultMemoryCapacity bounds the in-memory sink.
const DefaultMemoryCapacity = 1000

// MemorySink keeps the most recent entries in memory, oldest evicted
// first. It is the default sink and the one tests use.
type MemorySink struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewMemorySink creates a memory sink holding up to capacity entries
// (DefaultMemoryCapacity when <= 0).
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity}
}

// Record implements Sink.
func (s *MemorySink) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	return nil
}

// Entries returns a copy of the retained entries, oldest first.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }
