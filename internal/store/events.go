package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// EventLog is the append-only SQLite log of LLM calls and graded answers.
// It sits next to the JSON documents and is never read by the tutoring
// flow itself.
type EventLog struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ EventRepo = (*EventLog)(nil)

const eventSchema = `
CREATE TABLE IF NOT EXISTS llm_request_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence      INTEGER NOT NULL,
	timestamp     INTEGER NOT NULL,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	purpose       TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	success       INTEGER NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	request_body  TEXT NOT NULL DEFAULT '',
	response_body TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_llm_request_events_purpose ON llm_request_events (purpose);
CREATE TABLE IF NOT EXISTS evaluation_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence      INTEGER NOT NULL,
	timestamp     INTEGER NOT NULL,
	ref           TEXT NOT NULL,
	score         INTEGER NOT NULL,
	correct       INTEGER NOT NULL,
	freshness     REAL NOT NULL,
	fallback      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluation_events_ref ON evaluation_events (ref);
`

// OpenEventLog opens (or creates) the SQLite event log at dsn.
// It applies recommended pragmas and creates the tables.
func OpenEventLog(dsn string) (*EventLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(eventSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event log: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &EventLog{db: db, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (l *EventLog) DB() *sql.DB {
	return l.db
}

// Close closes the database connection.
func (l *EventLog) Close() error {
	return l.db.Close()
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// sqlite returns a statement builder for the event log's dialect.
func sqlite() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// AppendLLMRequest records an LLM API call.
func (l *EventLog) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := l.seq.Next(ctx)
	if err != nil {
		return err
	}

	q, args := sqlite().Insert("llm_request_events").
		Columns("sequence", "timestamp", "provider", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "success",
			"error_message", "request_body", "response_body").
		Values(seqNum, time.Now().UnixNano(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := l.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body",
}

// QueryLLMEvents returns LLM events, newest first.
func (l *EventLog) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := sqlite().Select(llmEventColumns...).
		From(entsql.Table("llm_request_events")).
		OrderBy(entsql.Desc("sequence"))
	if preds := opts.predicates(); len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	q, args := sel.Query()

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetLLMEvent returns one LLM event, or nil when id is unknown.
func (l *EventLog) GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error) {
	q, args := sqlite().Select(llmEventColumns...).
		From(entsql.Table("llm_request_events")).
		Where(entsql.EQ("id", id)).
		Query()
	e, err := scanLLMEvent(l.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(row scanner) (*LLMEvent, error) {
	var (
		e  LLMEvent
		ts int64
	)
	err := row.Scan(&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	e.Timestamp = time.Unix(0, ts)
	return &e, nil
}

// coalesce wraps an aggregate so empty tables read as zero.
func coalesce(expr string) string {
	return "COALESCE(" + expr + ", 0)"
}

// LLMUsageByPurpose aggregates token usage per purpose.
func (l *EventLog) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	q, args := sqlite().Select(
		"purpose",
		entsql.Count("*"),
		coalesce(entsql.Sum("input_tokens")),
		coalesce(entsql.Sum("output_tokens")),
		"CAST("+coalesce(entsql.Avg("latency_ms"))+" AS INTEGER)",
	).
		From(entsql.Table("llm_request_events")).
		GroupBy("purpose").
		OrderBy(entsql.Desc(entsql.Count("*")), "purpose").
		Query()

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates token usage per model.
func (l *EventLog) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	q, args := sqlite().Select(
		"model",
		entsql.Count("*"),
		coalesce(entsql.Sum("input_tokens")),
		coalesce(entsql.Sum("output_tokens")),
	).
		From(entsql.Table("llm_request_events")).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AppendEvaluation records a graded answer.
func (l *EventLog) AppendEvaluation(ctx context.Context, data EvaluationEventData) error {
	seqNum, err := l.seq.Next(ctx)
	if err != nil {
		return err
	}

	q, args := sqlite().Insert("evaluation_events").
		Columns("sequence", "timestamp", "ref", "score", "correct", "freshness", "fallback").
		Values(seqNum, time.Now().UnixNano(), data.Ref, data.Score,
			data.Correct, data.Freshness, data.Fallback).
		Query()
	if _, err := l.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save evaluation event: %w", err)
	}
	return nil
}

// EvaluationStats summarizes every recorded evaluation.
func (l *EventLog) EvaluationStats(ctx context.Context) (EvaluationStats, error) {
	q, args := sqlite().Select(
		entsql.Count("*"),
		coalesce(entsql.Sum("correct")),
		coalesce(entsql.Avg("score")),
		"COUNT(DISTINCT ref)",
	).
		From(entsql.Table("evaluation_events")).
		Query()

	var st EvaluationStats
	err := l.db.QueryRowContext(ctx, q, args...).Scan(&st.Total, &st.Correct, &st.AvgScore, &st.Concepts)
	if err != nil {
		return EvaluationStats{}, fmt.Errorf("query evaluation stats: %w", err)
	}
	return st, nil
}

func (o QueryOpts) predicates() []*entsql.Predicate {
	var preds []*entsql.Predicate
	if o.After > 0 {
		preds = append(preds, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		preds = append(preds, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", o.From.UnixNano()))
	}
	if !o.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", o.To.UnixNano()))
	}
	if o.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", o.Purpose))
	}
	return preds
}

// sequenceCounter assigns one increasing sequence across both event
// tables so LLM calls and evaluations can be ordered against each other.
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
