package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chatapp schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT UNIQUE NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chats (
			id            TEXT PRIMARY KEY,
			user_a        TEXT NOT NULL REFERENCES users(id),
			user_b        TEXT NOT NULL REFERENCES users(id),
			latest_text   TEXT NOT NULL DEFAULT '',
			latest_sender TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL,
			UNIQUE (user_a, user_b),
			CHECK (user_a < user_b)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			chat_id         TEXT NOT NULL REFERENCES chats(id),
			sender_id       TEXT NOT NULL REFERENCES users(id),
			text            TEXT NOT NULL DEFAULT '',
			image_url       TEXT,
			image_public_id TEXT,
			kind            TEXT NOT NULL DEFAULT 'text',
			seen            BOOLEAN NOT NULL DEFAULT FALSE,
			seen_at         DATETIME,
			created_at      DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_a ON chats(user_a);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_b ON chats(user_b);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
