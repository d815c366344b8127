package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	action      TEXT NOT NULL,
	status      TEXT NOT NULL,
	result      TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	started_at  INTEGER,
	finished_at INTEGER
)`

// SQLiteStore keeps job history in a local sqlite database so records survive
// restarts and registry pruning.
type SQLiteStore struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the jobs database at path.
func OpenStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create jobs db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open jobs db: %w", err)
	}
	// sqlite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init jobs schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveJob(job Job) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO jobs (id, name, action, status, result, created_at, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, string(job.Action), string(job.Status), job.Result,
		job.CreatedAt.Unix(), unixOrNil(job.StartedAt), unixOrNil(job.FinishedAt),
	)
	return err
}

// UpdateJob rewrites the whole record; the id is stable so an upsert is the
// simplest correct update.
func (s *SQLiteStore) UpdateJob(job Job) error { return s.SaveJob(job) }

func (s *SQLiteStore) GetJob(id string) (Job, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, name, action, status, result, created_at, started_at, finished_at
		 FROM jobs WHERE id = ?`, id)

	var (
		job               Job
		action, status    string
		created           int64
		started, finished sql.NullInt64
	)
	err := row.Scan(&job.ID, &job.Name, &action, &status, &job.Result, &created, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, false, nil
		}
		return Job{}, false, err
	}
	job.Action = Action(action)
	job.Status = Status(status)
	job.CreatedAt = time.Unix(created, 0).UTC()
	job.StartedAt = timeOrNil(started)
	job.FinishedAt = timeOrNil(finished)
	return job, true, nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
