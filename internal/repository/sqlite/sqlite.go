// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// toolchain, works everywhere Go compiles. The database is a single
// file (or ":memory:" in tests), which is all a single-server community
// site needs.
//
// Cascading mutations (user deletion, section deletion, application
// review) run inside transactions via withTx. SQLite allows one writer
// at a time, so a transaction that reads and then writes (the founder
// bootstrap's count-and-insert) cannot interleave with another writer.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
// Use ":memory:" for a throwaway database in tests.
func New(path string) (*DB, error) {
	// _txlock=immediate makes BeginTx take the write lock up front, so
	// a read-then-write transaction (the founder bootstrap's
	// count-and-insert) serializes against other writers instead of
	// failing with SQLITE_BUSY at its first write. busy_timeout makes
	// the waiting writer block rather than error.
	dsn := path + "?_txlock=immediate&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows reads to proceed during a write; without it every
	// feed request would queue behind admin mutations.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The comment/reaction
	// tables rely on ON DELETE CASCADE from posts.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. The server defers this on shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                  TEXT PRIMARY KEY,
			username            TEXT NOT NULL UNIQUE,
			email               TEXT NOT NULL UNIQUE,
			password_hash       TEXT NOT NULL DEFAULT '',
			role                TEXT NOT NULL,
			avatar_url          TEXT NOT NULL DEFAULT '',
			background_url      TEXT NOT NULL DEFAULT '',
			bio                 TEXT NOT NULL DEFAULT '',
			theme               TEXT NOT NULL DEFAULT '',
			is_banned           INTEGER NOT NULL DEFAULT 0,
			github_id           INTEGER NOT NULL DEFAULT 0,
			partner_description TEXT NOT NULL DEFAULT '',
			partner_links       TEXT NOT NULL DEFAULT '[]',
			created_at          DATETIME NOT NULL,
			updated_at          DATETIME NOT NULL
		)`,
		// Partial index: github_id 0 means "no GitHub account linked"
		// and must not collide between password accounts.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0`,

		`CREATE TABLE IF NOT EXISTS posts (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			content         TEXT NOT NULL DEFAULT '',
			author_id       TEXT NOT NULL,
			author_username TEXT NOT NULL,
			created_at      DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id              TEXT PRIMARY KEY,
			post_id         TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			author_id       TEXT NOT NULL,
			author_username TEXT NOT NULL,
			body            TEXT NOT NULL,
			created_at      DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id)`,

		`CREATE TABLE IF NOT EXISTS reactions (
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			emoji   TEXT NOT NULL,
			user_id TEXT NOT NULL,
			PRIMARY KEY (post_id, emoji, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS sections (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			created_by TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS submissions (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			code        TEXT NOT NULL,
			language    TEXT NOT NULL DEFAULT '',
			author_id   TEXT NOT NULL,
			author_name TEXT NOT NULL,
			section_id  TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			approved_by TEXT NOT NULL DEFAULT '',
			approved_at DATETIME,
			created_at  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_author ON submissions(author_id)`,

		`CREATE TABLE IF NOT EXISTS applications (
			id           TEXT PRIMARY KEY,
			applicant_id TEXT NOT NULL,
			status       TEXT NOT NULL,
			answers      TEXT NOT NULL DEFAULT '[]',
			reviewed_by  TEXT NOT NULL DEFAULT '',
			reviewed_at  DATETIME,
			created_at   DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status)`,

		`CREATE TABLE IF NOT EXISTS questions (
			id       TEXT PRIMARY KEY,
			prompt   TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS videos (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			youtube_link     TEXT NOT NULL,
			youtube_video_id TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			thumbnail_url    TEXT NOT NULL DEFAULT '',
			author_id        TEXT NOT NULL,
			created_at       DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reset_tokens (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
