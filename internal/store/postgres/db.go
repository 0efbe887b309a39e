package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chatapp schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT         PRIMARY KEY,
			name       VARCHAR(100) NOT NULL,
			email      VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		// Chats: one row per unordered user pair, pair stored sorted
		`CREATE TABLE IF NOT EXISTS chats (
			id            TEXT        PRIMARY KEY,
			user_a        TEXT        NOT NULL REFERENCES users(id),
			user_b        TEXT        NOT NULL REFERENCES users(id),
			latest_text   TEXT        NOT NULL DEFAULT '',
			latest_sender TEXT        NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_a, user_b),
			CHECK (user_a < user_b)
		)`,

		// Messages
		`CREATE TABLE IF NOT EXISTS messages (
			id              TEXT        PRIMARY KEY,
			chat_id         TEXT        NOT NULL REFERENCES chats(id),
			sender_id       TEXT        NOT NULL REFERENCES users(id),
			text            TEXT        NOT NULL DEFAULT '',
			image_url       TEXT,
			image_public_id TEXT,
			kind            TEXT        NOT NULL DEFAULT 'text',
			seen            BOOLEAN     NOT NULL DEFAULT FALSE,
			seen_at         TIMESTAMPTZ,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_a ON chats(user_a)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_b ON chats(user_b)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_unseen ON messages(chat_id, seen) WHERE seen = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
