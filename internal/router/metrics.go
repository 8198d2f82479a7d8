package router

import (
	"sort"
	"sync"
	"time"
)

// latencyHistorySize bounds the rolling latency window.
const latencyHistorySize = 1000

// ring is a fixed-capacity FIFO buffer. Callers provide their own
// locking; Metrics guards it with its mutex.
type ring[T any] struct {
	items    []T
	head     int
	size     int
	capacity int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity), capacity: capacity}
}

func (b *ring[T]) add(item T) {
	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// values returns the buffered items, oldest first.
func (b *ring[T]) values() []T {
	out := make([]T, b.size)
	if b.size < b.capacity {
		copy(out, b.items[:b.size])
		return out
	}
	copy(out, b.items[b.head:])
	copy(out[b.capacity-b.head:], b.items[:b.head])
	return out
}

// Snapshot is the exported metrics view, consumable by an external
// observability collaborator.
type Snapshot struct {
	TotalRequests    uint64  `json:"totalRequests"`
	ExactMatches     uint64  `json:"exactMatches"`
	FuzzyMatches     uint64  `json:"fuzzyMatches"`
	AliasMatches     uint64  `json:"aliasMatches"`
	NotFound         uint64  `json:"notFound"`
	TimedOut         uint64  `json:"timedOut"`
	AverageLatencyMs float64 `json:"averageLatencyMs"`
	P99LatencyMs     float64 `json:"p99LatencyMs"`
}

// outcome is the metrics classification of one request.
type outcome int

const (
	outcomeExact outcome = iota
	outcomeFuzzy
	outcomeAlias
	outcomeNotFound
)

// Metrics tracks router counters and a bounded latency history. Every
// record is atomic with respect to the whole structure, so concurrent
// resolutions cannot skew the conservation invariant
// (exact+fuzzy+alias+notFound == total).
type Metrics struct {
	mu sync.Mutex

	total    uint64
	exact    uint64
	fuzzy    uint64
	alias    uint64
	notFound uint64
	timedOut uint64

	latencies *ring[time.Duration]
	avgMs     float64
	p99Ms     float64
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{latencies: newRing[time.Duration](latencyHistorySize)}
}

// record counts one request and folds its latency into the rolling
// average and p99.
func (m *Metrics) record(o outcome, latency time.Duration, timedOut bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	switch o {
	case outcomeExact:
		m.exact++
	case outcomeFuzzy:
		m.fuzzy++
	case outcomeAlias:
		m.alias++
	case outcomeNotFound:
		m.notFound++
	}
	if timedOut {
		m.timedOut++
	}

	m.latencies.add(latency)
	m.recompute()
}

// recompute derives average and p99 from the latency window.
// Called with the lock held.
func (m *Metrics) recompute() {
	samples := m.latencies.values()
	if len(samples) == 0 {
		m.avgMs, m.p99Ms = 0, 0
		return
	}

	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	m.avgMs = durationMs(sum) / float64(len(samples))

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	idx := (len(samples)*99 + 99) / 100 // ceil(0.99·n)
	if idx > len(samples) {
		idx = len(samples)
	}
	m.p99Ms = durationMs(samples[idx-1])
}

// Snapshot returns a consistent copy of all counters and gauges.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		TotalRequests:    m.total,
		ExactMatches:     m.exact,
		FuzzyMatches:     m.fuzzy,
		AliasMatches:     m.alias,
		NotFound:         m.notFound,
		TimedOut:         m.timedOut,
		AverageLatencyMs: m.avgMs,
		P99LatencyMs:     m.p99Ms,
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
