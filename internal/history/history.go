package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Run is one recorded analysis run.
type Run struct {
	ID           int64
	Query        string
	Language     string
	Timestamp    time.Time
	NumRequested int
	NumProcessed int
	NumFailed    int
	SummaryPath  string
	Duration     time.Duration
}

// Store is the SQLite-backed run ledger. It is strictly best-effort from the
// pipeline's point of view: callers log recording failures and move on.
type Store struct {
	db *sql.DB

	insertRun *sql.Stmt
}

// Open opens (or creates) the ledger database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			query             TEXT NOT NULL,
			language          TEXT NOT NULL,
			ts                DATETIME NOT NULL,
			num_requested     INTEGER NOT NULL,
			num_processed     INTEGER NOT NULL,
			num_failed        INTEGER NOT NULL,
			summary_json_path TEXT NOT NULL DEFAULT '',
			duration_ms       INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *Store) prepareStatements() error {
	var err error
	s.insertRun, err = s.db.Prepare(`
		INSERT INTO runs (query, language, ts, num_requested, num_processed, num_failed, summary_json_path, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return err
}

// Record appends one run to the ledger.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.insertRun.ExecContext(ctx,
		r.Query, r.Language, r.Timestamp.UTC().Format(time.RFC3339),
		r.NumRequested, r.NumProcessed, r.NumFailed,
		r.SummaryPath, r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, language, ts, num_requested, num_processed, num_failed, summary_json_path, duration_ms
		FROM runs ORDER BY ts DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ts string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Query, &r.Language, &ts,
			&r.NumRequested, &r.NumProcessed, &r.NumFailed,
			&r.SummaryPath, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			log.Warn().Str("ts", ts).Err(err).Msg("unparseable run timestamp")
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	if s.insertRun != nil {
		s.insertRun.Close()
	}
	return s.db.Close()
}
