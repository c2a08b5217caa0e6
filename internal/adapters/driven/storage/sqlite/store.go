package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/timeport-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/timeport-cli/internal/core/ports/driven"
)

// Store is the unified SQLite-backed storage providing the secret store
// and the durable cache tier through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.timeport/data/timeport.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".timeport", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "timeport.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SecretStore returns a SecretStore interface backed by this store.
func (s *Store) SecretStore() driven.SecretStore {
	return &secretStore{store: s}
}

// Cache returns the durable cache tier backed by this store.
func (s *Store) Cache() driven.Cache {
	return &cacheStore{store: s, now: time.Now}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Secret Store ====================

// secretStore implements driven.SecretStore.
type secretStore struct {
	store *Store
}

var _ driven.SecretStore = (*secretStore)(nil)

// Get retrieves a secret by key.
func (s *secretStore) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("scanning secret: %w", err)
	}
	return value, true, nil
}

// Set stores a secret, overwriting any previous value.
func (s *secretStore) Set(ctx context.Context, key, value string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO secrets (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving secret: %w", err)
	}
	return nil
}

// Delete removes a secret by key.
func (s *secretStore) Delete(ctx context.Context, key string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting secret: %w", err)
	}
	return nil
}

// ==================== Durable Cache ====================

// cacheStore implements driven.Cache on the cache table with lazy expiry.
type cacheStore struct {
	store *Store
	now   func() time.Time
}

var _ driven.Cache = (*cacheStore)(nil)

// Get retrieves a live entry, purging it if expired.
func (c *cacheStore) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM cache WHERE namespace = ? AND key = ?
	`, namespace, key)

	var value []byte
	var expiresAt time.Time
	if err := row.Scan(&value, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scanning cache entry: %w", err)
	}

	if c.now().After(expiresAt) {
		if err := c.Invalidate(ctx, namespace, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores an entry. A non-positive TTL stores nothing.
func (c *cacheStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache (namespace, key, value, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, namespace, key, value, c.now().Add(ttl).UTC())
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Invalidate removes one entry.
func (c *cacheStore) Invalidate(ctx context.Context, namespace, key string) error {
	_, err := c.store.db.ExecContext(ctx, `
		DELETE FROM cache WHERE namespace = ? AND key = ?
	`, namespace, key)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// InvalidateNamespace removes every entry in a namespace.
func (c *cacheStore) InvalidateNamespace(ctx context.Context, namespace string) error {
	_, err := c.store.db.ExecContext(ctx, `DELETE FROM cache WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("deleting cache namespace: %w", err)
	}
	return nil
}
