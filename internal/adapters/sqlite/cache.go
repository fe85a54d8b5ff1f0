package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"backlog/internal/ports"
)

const schemaVersion = "2"

// Cache implements ports.ContentCache using SQLite. Entries are keyed by
// blob hash, so changed content is a new key and stale rows are only ever
// pruned, never invalidated.
type Cache struct {
	db          *sql.DB
	projectRoot string
	dbPath      string
	now         func() time.Time
}

// Ensure Cache implements ContentCache
var _ ports.ContentCache = (*Cache)(nil)

// Open opens (creating if needed) the cache database for a project
func Open(projectRoot string) (*Cache, error) {
	if strings.HasPrefix(projectRoot, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		projectRoot = filepath.Join(home, projectRoot[1:])
	}

	c := &Cache{
		projectRoot: projectRoot,
		dbPath:      databasePath(projectRoot),
		now:         time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+c.dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection serializes writers instead of surfacing SQLITE_BUSY
	db.SetMaxOpenConns(1)
	c.db = db

	if err := c.setup(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}
	return c, nil
}

func (c *Cache) setup() error {
	var version string
	err := c.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err == nil && version != schemaVersion {
		if _, err := c.db.Exec(`DROP TABLE IF EXISTS blobs; DROP TABLE IF EXISTS meta;`); err != nil {
			return err
		}
	}

	_, err = c.db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS blobs (
			hash TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blobs_fetched ON blobs(fetched_at);
	`)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
		INSERT OR REPLACE INTO meta (key, value) VALUES ('project_path_hash', ?);
	`, schemaVersion, hashProjectPath(c.projectRoot))
	return err
}

// Close closes the database connection
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file location
func (c *Cache) Path() string {
	return c.dbPath
}

// Get returns cached content for a blob hash
func (c *Cache) Get(ctx context.Context, blob string) (string, bool, error) {
	var content string
	err := c.db.QueryRowContext(ctx, `
		SELECT content FROM blobs WHERE hash = ?
	`, blob).Scan(&content)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// Put stores content under its blob hash
func (c *Cache) Put(ctx context.Context, blob, content string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO blobs (hash, content, fetched_at)
		VALUES (?, ?, ?)
	`, blob, content, c.now().UnixNano())
	return err
}

// databasePath returns the path for the SQLite database
func databasePath(projectRoot string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "backlog", hashProjectPath(projectRoot)+".db")
}

// hashProjectPath returns a short hash of the project path
func hashProjectPath(projectRoot string) string {
	h := sha256.Sum256([]byte(projectRoot))
	return hex.EncodeToString(h[:8])
}
