// Package audit implements the operations log (A6): a best-effort,
// non-authoritative record of every ingest and delete operation, kept
// outside the four durable artifacts and their referential-integrity
// invariants. The ensureDB/releaseDB lifecycle lets Close() wait for
// in-flight operations to drain before closing the database handle.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the operations log. It is intentionally separate from the
// corpus and retrieval stores: losing it never affects the referential-integrity invariants, so its
// writes are fire-and-forget from the caller's point of view.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB

	activeOps int
	closing   bool
	cond      *sync.Cond
}

func NewStore(path string) *Store {
	s := &Store{path: path}
	s.cond = sync.NewCond(&s.mu)
	return s
}

const schema = `
CREATE TABLE IF NOT EXISTS operations (
  op_id INTEGER PRIMARY KEY AUTOINCREMENT,
  op_kind TEXT NOT NULL,
  file_id TEXT NOT NULL,
  filename TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  detail TEXT NOT NULL DEFAULT '',
  occurred_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_file_id ON operations(file_id);
CREATE INDEX IF NOT EXISTS idx_operations_occurred ON operations(occurred_unix);
`

// Kind enumerates the operations recorded in the log.
type Kind string

const (
	KindIngest Kind = "ingest"
	KindDelete Kind = "delete"
)

// Status is the outcome recorded for one operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Record is one row of the operations log.
type Record struct {
	OpID         int64
	Kind         Kind
	FileID       string
	Filename     string
	Status       Status
	Detail       string
	OccurredUnix int64
}

// initLocked opens the database and creates the schema if needed; the
// caller must already hold s.mu.
func (s *Store) initLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *Store) ensureDB(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return nil, errors.New("audit db is closing")
	}
	if s.db == nil {
		if err := s.initLocked(ctx); err != nil {
			return nil, err
		}
	}
	s.activeOps++
	return s.db, nil
}

func (s *Store) releaseDB() {
	s.mu.Lock()
	if s.activeOps > 0 {
		s.activeOps--
	}
	if s.activeOps == 0 {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

// Close waits for in-flight operations to complete, then closes the
// database handle. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	for s.closing {
		s.cond.Wait()
	}
	if s.db == nil {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	db := s.db
	s.db = nil
	for s.activeOps > 0 {
		s.cond.Wait()
	}
	s.mu.Unlock()

	err := db.Close()

	s.mu.Lock()
	s.closing = false
	s.cond.Broadcast()
	s.mu.Unlock()
	return err
}

// Record appends one entry to the operations log. Failures here are
// never surfaced as a corpus/retrieval error: the HTTP boundary logs
// them and the CLI commands discard them.
func (s *Store) Record(ctx context.Context, kind Kind, fileID, filename string, status Status, detail string) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}
	defer s.releaseDB()

	_, err = db.ExecContext(ctx,
		`INSERT INTO operations(op_kind, file_id, filename, status, detail, occurred_unix) VALUES(?, ?, ?, ?, ?, ?)`,
		string(kind), fileID, filename, string(status), detail, time.Now().Unix(),
	)
	return err
}

// RecentAcrossFiles returns the most recent operations recorded for any
// file, newest first, for the status dashboard (A7).
func (s *Store) RecentAcrossFiles(ctx context.Context, limit int) ([]Record, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return nil, err
	}
	defer s.releaseDB()

	rows, err := db.QueryContext(ctx,
		`SELECT op_id, op_kind, file_id, filename, status, detail, occurred_unix
		 FROM operations ORDER BY occurred_unix DESC, op_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var kind, status string
		if err := rows.Scan(&r.OpID, &kind, &r.FileID, &r.Filename, &status, &r.Detail, &r.OccurredUnix); err != nil {
			return nil, err
		}
		r.Kind, r.Status = Kind(kind), Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentForFile returns the most recent operations recorded for a file,
// newest first, for status/debug display.
func (s *Store) RecentForFile(ctx context.Context, fileID string, limit int) ([]Record, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return nil, err
	}
	defer s.releaseDB()

	rows, err := db.QueryContext(ctx,
		`SELECT op_id, op_kind, file_id, filename, status, detail, occurred_unix
		 FROM operations WHERE file_id = ? ORDER BY occurred_unix DESC, op_id DESC LIMIT ?`,
		fileID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var kind, status string
		if err := rows.Scan(&r.OpID, &kind, &r.FileID, &r.Filename, &status, &r.Detail, &r.OccurredUnix); err != nil {
			return nil, err
		}
		r.Kind, r.Status = Kind(kind), Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
