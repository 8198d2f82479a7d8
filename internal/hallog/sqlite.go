package hallog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/pathmend/pathmend/internal/xerrors"
)

const schema = `
CREATE TABLE IF NOT EXISTS hallucination_log (
	id          TEXT PRIMARY KEY,
	ts          TEXT NOT NULL,
	path        TEXT NOT NULL,
	matched     TEXT,
	confidence  REAL NOT NULL,
	agent_type  TEXT,
	outcome     TEXT NOT NULL,
	latency_ms  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hallucination_log_ts ON hallucination_log(ts);
`

// DefaultSQLiteRetention bounds the durable log the way the memory
// sink's ring does: past the cap, the oldest rows are trimmed.
const DefaultSQLiteRetention = 10000

// SQLiteSink persists log entries to a local SQLite database.
// An empty path opens an in-memory database, which tests rely on.
type SQLiteSink struct {
	db     *sql.DB
	retain int
}

// NewSQLiteSink opens (or creates) the database at path and bootstraps
// the schema. WAL mode is set so a reader (the dashboard, a report
// script) can tail the log while the router writes.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, xerrors.New(xerrors.ErrCodeStoreOpen, fmt.Sprintf("open %s", dsn), err)
	}

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params are
	// not honored for it.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, xerrors.New(xerrors.ErrCodeStoreOpen, "set WAL", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, xerrors.New(xerrors.ErrCodeStoreOpen, "create schema", err)
	}

	return &SQLiteSink{db: db, retain: DefaultSQLiteRetention}, nil
}

// Record implements Sink.
func (s *SQLiteSink) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hallucination_log (id, ts, path, matched, confidence, agent_type, outcome, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Format(time.RFC3339Nano), e.HallucinatedPath, e.MatchedPath,
		e.Confidence, e.AgentType, string(e.Outcome), e.LatencyMs,
	)
	if err != nil {
		return xerrors.StoreError("insert log entry", err)
	}

	// Trim past the retention cap. The subquery keeps the newest rows;
	// the DELETE matches nothing until the table overflows.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM hallucination_log WHERE id IN (
		   SELECT id FROM hallucination_log ORDER BY ts DESC LIMIT -1 OFFSET ?)`,
		s.retain,
	); err != nil {
		return xerrors.StoreError("trim log", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, path, matched, confidence, agent_type, outcome, latency_ms
		 FROM hallucination_log ORDER BY ts DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("hallog: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var matched, agent sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.HallucinatedPath, &matched, &e.Confidence, &agent, &e.Outcome, &e.LatencyMs); err != nil {
			return nil, fmt.Errorf("hallog: scan: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		e.MatchedPath = matched.String
		e.AgentType = agent.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close implements Sink.
func (s *SQLiteSink) Close() error { return s.db.Close() }
