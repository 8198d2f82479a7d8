package router

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.record(outcomeExact, time.Millisecond, false)
	m.record(outcomeExact, time.Millisecond, false)
	m.record(outcomeFuzzy, 5*time.Millisecond, false)
	m.record(outcomeAlias, time.Millisecond, false)
	m.record(outcomeNotFound, 200*time.Millisecond, true)

	s := m.Snapshot()
	assert.Equal(t, uint64(5), s.TotalRequests)
	assert.Equal(t, uint64(2), s.ExactMatches)
	assert.Equal(t, uint64(1), s.FuzzyMatches)
	assert.Equal(t, uint64(1), s.AliasMatches)
	assert.Equal(t, uint64(1), s.NotFound)
	assert.Equal(t, uint64(1), s.TimedOut)
	assert.Equal(t, s.TotalRequests, s.ExactMatches+s.FuzzyMatches+s.AliasMatches+s.NotFound)
}

func TestMetricsLatencyStats(t *testing.T) {
	m := NewMetrics()

	// 100 samples: 1ms..100ms.
	for i := 1; i <= 100; i++ {
		m.record(outcomeExact, time.Duration(i)*time.Millisecond, false)
	}

	s := m.Snapshot()
	assert.InDelta(t, 50.5, s.AverageLatencyMs, 0.01)
	// ceil(0.99 * 100) = 99th sorted sample.
	assert.InDelta(t, 99.0, s.P99LatencyMs, 0.01)
}

func TestMetricsSingleSample(t *testing.T) {
	m := NewMetrics()
	m.record(outcomeFuzzy, 7*time.Millisecond, false)

	s := m.Snapshot()
	assert.InDelta(t, 7.0, s.AverageLatencyMs, 0.01)
	assert.InDelta(t, 7.0, s.P99LatencyMs, 0.01)
}

func TestMetricsRingEviction(t *testing.T) {
	m := NewMetrics()

	// Overfill the history: one slow outlier followed by enough fast
	// samples to push it out of the window.
	m.record(outcomeExact, time.Second, false)
	for i := 0; i < latencyHistorySize; i++ {
		m.record(outcomeExact, time.Millisecond, false)
	}

	s := m.Snapshot()
	assert.Equal(t, uint64(latencyHistorySize+1), s.TotalRequests,
		"counters are cumulative, not windowed")
	assert.InDelta(t, 1.0, s.AverageLatencyMs, 0.01,
		"latency stats cover only the retained window")
	assert.InDelta(t, 1.0, s.P99LatencyMs, 0.01)
}

func TestMetricsZeroState(t *testing.T) {
	s := NewMetrics().Snapshot()
	assert.Zero(t, s.TotalRequests)
	assert.Zero(t, s.AverageLatencyMs)
	assert.Zero(t, s.P99LatencyMs)
}

func TestMetricsConcurrentRecord(t *testing.T) {
	m := NewMetrics()

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				m.record(outcomeExact, time.Millisecond, false)
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	require.Equal(t, uint64(goroutines*perGoroutine), s.TotalRequests)
	assert.Equal(t, s.TotalRequests, s.ExactMatches)
}

func TestRingOrder(t *testing.T) {
	r := newRing[int](3)
	r.add(1)
	r.add(2)
	assert.Equal(t, []int{1, 2}, r.values())

	r.add(3)
	r.add(4) // evicts 1
	assert.Equal(t, []int{2, 3, 4}, r.values())
}
