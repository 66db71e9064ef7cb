// Package store caches extraction results in SQLite, keyed by the SHA-256
// of the document bytes, the parser that read them and the limits the
// extraction ran with.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no entry matches the key.
var ErrNotFound = errors.New("store: entry not found")

// Key identifies a cached extraction.
type Key struct {
	ContentHash string
	Parser      string // normalized file extension, e.g. ".pdf"
	MaxDepth    int
	MaxNodes    int
}

// Entry is one cached extraction. A nil Result records that the document
// has no outline.
type Entry struct {
	Key       Key
	Filename  string
	Result    *bookmarks.Result
	Hits      int
	CreatedAt time.Time
}

// Stats summarizes the cache.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
}

// Store wraps the SQLite database holding the cache.
type Store struct {
	db *sql.DB
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dumps (
	content_hash TEXT NOT NULL,
	max_depth INTEGER NOT NULL,
	max_nodes INTEGER NOT NULL,
	filename TEXT NOT NULL DEFAULT '',
	has_outline INTEGER NOT NULL,
	result TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (content_hash, max_depth, max_nodes)
);
`

// New opens (or creates) a SQLite database at the given path and applies
// pending migrations.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for key and counts the hit.
func (s *Store) Get(ctx context.Context, key Key) (*Entry, error) {
	var (
		e          = Entry{Key: key}
		hasOutline bool
		result     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT filename, has_outline, result, hits, created_at
		FROM dumps
		WHERE content_hash = ? AND parser = ? AND max_depth = ? AND max_nodes = ?
	`, key.ContentHash, key.Parser, key.MaxDepth, key.MaxNodes).Scan(&e.Filename, &hasOutline, &result, &e.Hits, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query dump: %w", err)
	}

	if hasOutline {
		e.Result = &bookmarks.Result{}
		if err := json.Unmarshal([]byte(result.String), e.Result); err != nil {
			return nil, fmt.Errorf("decode cached result: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE dumps SET hits = hits + 1
		WHERE content_hash = ? AND parser = ? AND max_depth = ? AND max_nodes = ?
	`, key.ContentHash, key.Parser, key.MaxDepth, key.MaxNodes); err != nil {
		return nil, fmt.Errorf("count hit: %w", err)
	}
	e.Hits++
	return &e, nil
}

// Put stores e, replacing any entry with the same key.
func (s *Store) Put(ctx context.Context, e Entry) error {
	var result sql.NullString
	if e.Result != nil {
		b, err := json.Marshal(e.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dumps (content_hash, parser, max_depth, max_nodes, filename, has_outline, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash, parser, max_depth, max_nodes) DO UPDATE SET
			filename = excluded.filename,
			has_outline = excluded.has_outline,
			result = excluded.result,
			created_at = CURRENT_TIMESTAMP
	`, e.Key.ContentHash, e.Key.Parser, e.Key.MaxDepth, e.Key.MaxNodes, e.Filename, e.Result != nil, result)
	if err != nil {
		return fmt.Errorf("insert dump: %w", err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM dumps WHERE created_at < ?", cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("prune dumps: %w", err)
	}
	return res.RowsAffected()
}

// Stats reports the number of entries and total hits.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM dumps").Scan(&st.Entries, &st.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
