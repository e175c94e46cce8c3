// Package state persists scrape progress between runs: the latest course
// payloads per school, the completed-key set of the current refine pass
// and the active term. Backed by SQLite so a container restart resumes
// where the previous pass stopped.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperschedule/scrapers/internal/course"
)

// Store is the SQLite-backed scrape state. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed creates) the state database. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		school TEXT NOT NULL,
		key TEXT NOT NULL,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (school, key)
	);
	CREATE TABLE IF NOT EXISTS completed (
		school TEXT NOT NULL,
		key TEXT NOT NULL,
		PRIMARY KEY (school, key)
	);
	CREATE TABLE IF NOT EXISTS terms (
		school TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Courses returns the stored course payloads for school, keyed by course
// key.
func (s *Store) Courses(ctx context.Context, school string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, payload FROM courses WHERE school = ?", school)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("scan course row: %w", err)
		}
		out[key] = json.RawMessage(payload)
	}
	return out, rows.Err()
}

// PutCourse stores or replaces one course payload.
func (s *Store) PutCourse(ctx context.Context, school, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO courses (school, key, payload, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(school, key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		school, key, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store course %s/%s: %w", school, key, err)
	}
	return nil
}

// PruneCourses removes courses (and their completed marks) whose keys are
// no longer offered by the school.
func (s *Store) PruneCourses(ctx context.Context, school string, keep map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known, err := s.keys(ctx, "courses", school)
	if err != nil {
		return err
	}
	var stale []string
	for _, k := range known {
		if _, ok := keep[k]; !ok {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, k := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE school = ? AND key = ?", school, k); err != nil {
			return fmt.Errorf("prune course %s/%s: %w", school, k, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM completed WHERE school = ? AND key = ?", school, k); err != nil {
			return fmt.Errorf("prune completed %s/%s: %w", school, k, err)
		}
	}
	return tx.Commit()
}

// Completed returns the keys finished in the current refine pass.
func (s *Store) Completed(ctx context.Context, school string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, err := s.keys(ctx, "completed", school)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out, nil
}

// MarkCompleted records that key finished in the current pass.
func (s *Store) MarkCompleted(ctx context.Context, school, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO completed (school, key) VALUES (?, ?)", school, key)
	if err != nil {
		return fmt.Errorf("mark completed %s/%s: %w", school, key, err)
	}
	return nil
}

// ResetCompleted starts a new refine pass.
func (s *Store) ResetCompleted(ctx context.Context, school string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM completed WHERE school = ?", school); err != nil {
		return fmt.Errorf("reset completed for %s: %w", school, err)
	}
	return nil
}

// SetTerm records the active term for school.
func (s *Store) SetTerm(ctx context.Context, school string, t *course.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode term: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO terms (school, payload, updated_at) VALUES (?, ?, ?) ON CONFLICT(school) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at",
		school, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store term for %s: %w", school, err)
	}
	return nil
}

// Term returns the active term for school, or nil when no pass has run.
func (s *Store) Term(ctx context.Context, school string) (*course.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM terms WHERE school = ?", school).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query term for %s: %w", school, err)
	}
	var t course.Term
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode stored term for %s: %w", school, err)
	}
	return &t, nil
}

// keys lists the key column for school in table. Caller holds the lock.
func (s *Store) keys(ctx context.Context, table, school string) ([]string, error) {
	if table != "courses" && table != "completed" {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	query := strings.Replace("SELECT key FROM TBL WHERE school = ?", "TBL", table, 1)
	rows, err := s.db.QueryContext(ctx, query, school)
	if err != nil {
		return nil, fmt.Errorf("query %s keys: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", table, err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
