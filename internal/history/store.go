// Package history records build attempts. Backing storage is a JSON file by
// default, or Postgres when a DSN is configured; per-project reads are
// cached in the database mode.
package history

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Record is one build attempt.
type Record struct {
	ProjectName string    `json:"project_name"`
	BoardType   string    `json:"board_type"`
	Success     bool      `json:"success"`
	ProjectPath string    `json:"project_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	path string
	db   *sql.DB

	mu       sync.Mutex
	loadOnce sync.Once
	records  []Record

	schemaOnce sync.Once
	schemaErr  error

	byProject *lru.Cache[string, []Record]
}

// New returns a file-backed store at path.
func New(path string) *Store {
	return &Store{path: path}
}

// NewPostgres returns a database-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []Record](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, byProject: cache}, nil
}

// NewFromEnv prefers Postgres when dsn is set and reachable, falling back to
// the file store at path.
func NewFromEnv(dsn, path string) *Store {
	if strings.TrimSpace(dsn) == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		log.Printf("history: postgres unavailable, using file store: %v", err)
		return New(path)
	}
	return s
}

// Append records one build attempt.
func (s *Store) Append(r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if s.db != nil {
		if err := s.ensureSchema(); err != nil {
			return err
		}
		_, err := s.db.Exec(
			`INSERT INTO build_history (project_name, board_type, success, project_path, error, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ProjectName, r.BoardType, r.Success, r.ProjectPath, r.Error, r.CreatedAt,
		)
		if err == nil {
			s.byProject.Remove(r.ProjectName)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	s.records = append(s.records, r)
	return s.saveLocked()
}

// ByProject returns every recorded attempt for a project, oldest first.
func (s *Store) ByProject(projectName string) ([]Record, error) {
	if s.db != nil {
		if hit, ok := s.byProject.Get(projectName); ok {
			return hit, nil
		}
		if err := s.ensureSchema(); err != nil {
			return nil, err
		}
		rows, err := s.db.Query(
			`SELECT project_name, board_type, success, project_path, error, created_at
			 FROM build_history WHERE project_name = $1 ORDER BY created_at`,
			projectName,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out, err := scanRecords(rows)
		if err != nil {
			return nil, err
		}
		s.byProject.Add(projectName, out)
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	var out []Record
	for _, r := range s.records {
		if r.ProjectName == projectName {
			out = append(out, r)
		}
	}
	return out, nil
}

// Recent returns up to limit most recent attempts, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.db != nil {
		if err := s.ensureSchema(); err != nil {
			return nil, err
		}
		rows, err := s.db.Query(
			`SELECT project_name, board_type, success, project_path, error, created_at
			 FROM build_history ORDER BY created_at DESC LIMIT $1`, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanRecords(rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Close releases the database handle, if any.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`CREATE TABLE IF NOT EXISTS build_history (
			id BIGSERIAL PRIMARY KEY,
			project_name TEXT NOT NULL,
			board_type TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			project_path TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`)
	})
	return s.schemaErr
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ProjectName, &r.BoardType, &r.Success, &r.ProjectPath, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ensureLoadedLocked() {
	s.loadOnce.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		if err := json.Unmarshal(data, &s.records); err != nil {
			log.Printf("history: %s unreadable, starting fresh: %v", s.path, err)
			s.records = nil
		}
	})
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
