package hallog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	e := NewEntry("/prodcts", "/products", 0.91, "gpt-crawler", OutcomeRedirected, 3*time.Millisecond)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "/prodcts", e.HallucinatedPath)
	assert.Equal(t, "/products", e.MatchedPath)
	assert.Equal(t, OutcomeRedirected, e.Outcome)
	assert.InDelta(t, 3.0, e.LatencyMs, 0.01)

	e2 := NewEntry("/x", "", 0, "", OutcomeNotFound, 0)
	assert.NotEqual(t, e.ID, e2.ID, "ids must be unique")
}

func TestMemorySink_BoundedRetention(t *testing.T) {
	s := NewMemorySink(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{ID: fmt.Sprintf("e%d", i)}))
	}

	got := s.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "e2", got[0].ID, "oldest entries evicted first")
	assert.Equal(t, "e4", got[2].ID)
}

func TestSQLiteSink_RoundTrip(t *testing.T) {
	s, err := NewSQLiteSink("")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	first := NewEntry("/prodcts", "/products", 0.88, "claude", OutcomeRedirected, 2*time.Millisecond)
	require.NoError(t, s.Record(ctx, first))

	time.Sleep(time.Millisecond) // distinct timestamps for ordering
	second := NewEntry("/nope", "", 0, "", OutcomeNotFound, time.Millisecond)
	require.NoError(t, s.Record(ctx, second))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, first.ID, recent[1].ID)
	assert.Equal(t, "/products", recent[1].MatchedPath)
	assert.Equal(t, OutcomeRedirected, recent[1].Outcome)
	assert.InDelta(t, 0.88, recent[1].Confidence, 1e-9)
}

func TestSQLiteSink_BoundedRetention(t *testing.T) {
	s, err := NewSQLiteSink("")
	require.NoError(t, err)
	defer s.Close()
	s.retain = 3

	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		e := Entry{ID: fmt.Sprintf("e%d", i), Timestamp: base.Add(time.Duration(i) * time.Second), Outcome: OutcomeNotFound}
		require.NoError(t, s.Record(ctx, e))
	}

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3, "rows past the cap are trimmed")

	// Newest kept, oldest gone.
	assert.Equal(t, "e4", recent[0].ID)
	assert.Equal(t, "e2", recent[2].ID)
}

func TestSQLiteSink_FileBacked(t *testing.T) {
	path := t.TempDir() + "/log.db"

	s, err := NewSQLiteSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), NewEntry("/a", "", 0, "", OutcomeNotFound, 0)))
	require.NoError(t, s.Close())

	// Reopen and read back.
	s2, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer s2.Close()

	recent, err := s2.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
