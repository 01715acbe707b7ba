package vault

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/ZaguanLabs/trailcache"
)

// SQLiteVault stores translation records in a SQLite database.
type SQLiteVault struct {
	db *sql.DB

	entropyMu sync.Mutex
	entropy   *rand.Rand
}

// NewSQLiteVault opens or creates a SQLite vault at the given path.
func NewSQLiteVault(dbPath string) (*SQLiteVault, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite vault: empty path")
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	v := &SQLiteVault{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := v.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return v, nil
}

func (v *SQLiteVault) newID() string {
	v.entropyMu.Lock()
	defer v.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), v.entropy).String()
}

// The cache_key index is deliberately non-unique; callers check before adding.
func (v *SQLiteVault) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		id              TEXT PRIMARY KEY,
		cache_key       TEXT NOT NULL,
		original_text   TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		from_lang       TEXT NOT NULL,
		to_lang         TEXT NOT NULL,
		timestamp       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_translations_cache_key ON translations(cache_key);
	CREATE INDEX IF NOT EXISTS idx_translations_to_lang ON translations(to_lang);
	`
	_, err := v.db.Exec(schema)
	return err
}

// Get returns the newest record stored under key.
func (v *SQLiteVault) Get(ctx context.Context, key string) (trailcache.TranslationRecord, bool, error) {
	var rec trailcache.TranslationRecord
	err := v.db.QueryRowContext(ctx,
		`SELECT cache_key, original_text, translated_text, from_lang, to_lang, timestamp
		 FROM translations WHERE cache_key = ?
		 ORDER BY rowid DESC LIMIT 1`, key).
		Scan(&rec.CacheKey, &rec.OriginalText, &rec.TranslatedText, &rec.FromLang, &rec.ToLang, &rec.Timestamp)
	if err == sql.ErrNoRows {
		return trailcache.TranslationRecord{}, false, nil
	}
	if err != nil {
		return trailcache.TranslationRecord{}, false, storeErr("get", "query translation", err)
	}
	return rec, true, nil
}

// Add inserts a record.
func (v *SQLiteVault) Add(ctx context.Context, rec trailcache.TranslationRecord) error {
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO translations (id, cache_key, original_text, translated_text, from_lang, to_lang, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.newID(), rec.CacheKey, rec.OriginalText, rec.TranslatedText, rec.FromLang, rec.ToLang, rec.Timestamp)
	if err != nil {
		return storeErr("add", "insert translation", err)
	}
	return nil
}

// Count returns the number of stored records.
func (v *SQLiteVault) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, storeErr("count", "count translations", err)
	}
	return n, nil
}

// CountKey returns how many records share a cache key. Read-check-then-add
// keeps this at one; it is exposed for diagnostics and tests.
func (v *SQLiteVault) CountKey(ctx context.Context, key string) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM translations WHERE cache_key = ?`, key).Scan(&n); err != nil {
		return 0, storeErr("count", "count key", err)
	}
	return n, nil
}

// Clear deletes every record.
func (v *SQLiteVault) Clear(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, `DELETE FROM translations`); err != nil {
		return storeErr("clear", "delete translations", err)
	}
	return nil
}

// Records returns all records in insertion order.
func (v *SQLiteVault) Records(ctx context.Context) ([]trailcache.TranslationRecord, error) {
	rows, err := v.db.QueryContext(ctx,
		`SELECT cache_key, original_text, translated_text, from_lang, to_lang, timestamp
		 FROM translations ORDER BY rowid`)
	if err != nil {
		return nil, storeErr("list", "query translations", err)
	}
	defer rows.Close()

	var out []trailcache.TranslationRecord
	for rows.Next() {
		var rec trailcache.TranslationRecord
		if err := rows.Scan(&rec.CacheKey, &rec.OriginalText, &rec.TranslatedText, &rec.FromLang, &rec.ToLang, &rec.Timestamp); err != nil {
			return nil, storeErr("list", "scan translation", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list", "iterate translations", err)
	}
	return out, nil
}

// Close closes the database.
func (v *SQLiteVault) Close() error {
	return v.db.Close()
}

var _ Store = (*SQLiteVault)(nil)
