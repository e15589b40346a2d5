// Package store keeps visitor preferences in SQLite. Visitor ids are salted
// and hashed before they touch the database.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zachkp/folio/internal/theme"
)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	visitor TEXT NOT NULL,    -- hashed visitor id, never the raw cookie
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (visitor, key)
);

CREATE INDEX IF NOT EXISTS idx_preferences_updated ON preferences(updated_at);
`

// DB is the preference database.
type DB struct {
	db   *sql.DB
	salt string
}

// Open creates or opens the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return newDB(sqlDB)
}

// OpenMemory opens an in-memory database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	return newDB(sqlDB)
}

func newDB(sqlDB *sql.DB) (*DB, error) {
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating preferences table: %w", err)
	}
	return &DB{db: sqlDB, salt: generateSalt()}, nil
}

// WithSalt fixes the hashing salt so hashed ids survive restarts.
func (d *DB) WithSalt(salt string) *DB {
	if salt != "" {
		d.salt = salt
	}
	return d
}

func generateSalt() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate hashing salt:", err)
	}
	return hex.EncodeToString(bytes)
}

// hashVisitor is consistent per visitor for a given salt.
func (d *DB) hashVisitor(visitor string) string {
	hash := sha256.New()
	hash.Write([]byte(visitor + d.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// For returns the preference storage of one visitor.
func (d *DB) For(visitor string) theme.Storage {
	return &Preferences{db: d.db, visitor: d.hashVisitor(visitor)}
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Cleanup drops preferences not touched within retention.
func (d *DB) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC()
	result, err := d.db.ExecContext(ctx, `DELETE FROM preferences WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up preferences: %w", err)
	}
	rowsDeleted, _ := result.RowsAffected()
	if rowsDeleted > 0 {
		log.Printf("Privacy cleanup: Removed %d preferences older than %s", rowsDeleted, retention)
	}
	return rowsDeleted, nil
}

// Count returns the number of stored preferences.
func (d *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM preferences`).Scan(&n)
	return n, err
}

// Preferences is the theme.Storage of one hashed visitor.
type Preferences struct {
	db      *sql.DB
	visitor string
}

func (p *Preferences) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE visitor = ? AND key = ?`, p.visitor, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Preferences) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (visitor, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(visitor, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, p.visitor, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving preference %s: %w", key, err)
	}
	return nil
}

func (p *Preferences) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE visitor = ? AND key = ?`, p.visitor, key,
	); err != nil {
		return fmt.Errorf("removing preference %s: %w", key, err)
	}
	return nil
}
