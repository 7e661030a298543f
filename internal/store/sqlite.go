package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id    INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	education  TEXT    NOT NULL DEFAULT '',
	skills     TEXT    NOT NULL DEFAULT '',
	sector     TEXT    NOT NULL DEFAULT '',
	location   TEXT    NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS shortlisted_internships (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	internship_id TEXT    NOT NULL DEFAULT '',
	title         TEXT    NOT NULL,
	company       TEXT    NOT NULL DEFAULT '',
	sector        TEXT    NOT NULL DEFAULT '',
	location      TEXT    NOT NULL DEFAULT '',
	duration      TEXT    NOT NULL DEFAULT '',
	stipend       TEXT    NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shortlisted_user ON shortlisted_internships(user_id);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT    PRIMARY KEY,
	data       BLOB    NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`

// SQLite is the modernc.org/sqlite backed Store.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dbPath and applies
// the schema. An empty dbPath falls back to INTERNMATCH_DB, then
// data/users.db under the working directory.
func OpenSQLite(ctx context.Context, dbPath string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dbPath == "" {
		if env := os.Getenv("INTERNMATCH_DB"); env != "" {
			dbPath = env
		} else {
			dbPath = filepath.Join("data", "users.db")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serializes writes anyway
	db.SetMaxOpenConns(1)

	err = retry.Do(ctx, retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond)), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Debug("Database not ready", zap.String("path", dbPath), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("Opened database", zap.String("path", dbPath))
	return &SQLite{db: db, logger: logger, now: time.Now}, nil
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// sqliteDSN builds a file: URI for dbPath. The path is percent-escaped so
// '?', '#' and '%' stay part of the file name.
func sqliteDSN(dbPath string) string {
	return "file:" + (&url.URL{Path: filepath.ToSlash(dbPath)}).EscapedPath() + "?" + sqlitePragmas
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
