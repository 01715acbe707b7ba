package intercept

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ZaguanLabs/trailcache"
)

// SQLiteStore persists cached responses so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a resource store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		name       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS resources (
		generation TEXT NOT NULL REFERENCES generations(name) ON DELETE CASCADE,
		key        TEXT NOT NULL,
		status     INTEGER NOT NULL,
		header     TEXT NOT NULL,
		body       BLOB NOT NULL,
		stored_at  TEXT NOT NULL,
		PRIMARY KEY (generation, key)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Open(ctx context.Context, generation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO generations (name, created_at) VALUES (?, ?)`,
		generation, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &trailcache.StoreError{Op: "open", Message: "insert generation", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, generation, key string) (CachedResource, bool, error) {
	var (
		res       CachedResource
		headerRaw string
		storedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, header, body, stored_at FROM resources WHERE generation = ? AND key = ?`,
		generation, key).Scan(&res.Status, &headerRaw, &res.Body, &storedAt)
	if err == sql.ErrNoRows {
		return CachedResource{}, false, nil
	}
	if err != nil {
		return CachedResource{}, false, &trailcache.StoreError{Op: "get", Message: "query resource", Cause: err}
	}
	res.Header = make(http.Header)
	if err := json.Unmarshal([]byte(headerRaw), &res.Header); err != nil {
		return CachedResource{}, false, &trailcache.StoreError{Op: "get", Message: "decode header", Cause: err}
	}
	res.StoredAt, _ = time.Parse(time.RFC3339Nano, storedAt)
	return res, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, generation, key string, res CachedResource) error {
	header, err := json.Marshal(res.Header)
	if err != nil {
		return &trailcache.StoreError{Op: "put", Message: "encode header", Cause: err}
	}
	if err := s.Open(ctx, generation); err != nil {
		return err
	}
	body := res.Body
	if body == nil {
		body = []byte{}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resources (generation, key, status, header, body, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(generation, key) DO UPDATE SET
		   status = excluded.status, header = excluded.header,
		   body = excluded.body, stored_at = excluded.stored_at`,
		generation, key, res.Status, string(header), body, res.StoredAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &trailcache.StoreError{Op: "put", Message: "upsert resource", Cause: err}
	}
	return nil
}

func (s *SQLiteStore) Generations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM generations ORDER BY name`)
	if err != nil {
		return nil, &trailcache.StoreError{Op: "list", Message: "query generations", Cause: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &trailcache.StoreError{Op: "list", Message: "scan generation", Cause: err}
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteGeneration(ctx context.Context, generation string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &trailcache.StoreError{Op: "delete", Message: "begin", Cause: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE generation = ?`, generation); err != nil {
		return &trailcache.StoreError{Op: "delete", Message: "delete resources", Cause: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM generations WHERE name = ?`, generation); err != nil {
		return &trailcache.StoreError{Op: "delete", Message: "delete generation", Cause: err}
	}
	if err := tx.Commit(); err != nil {
		return &trailcache.StoreError{Op: "delete", Message: "commit", Cause: err}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ResourceStore = (*SQLiteStore)(nil)
