package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New opens the local SQLite database used for forum-post tracking,
// creating the parent directory if needed.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ SQLite database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS forum_posts (
			thread_id      TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			author_id      TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'open',
			classification TEXT NOT NULL DEFAULT '',
			solved         INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP NOT NULL,
			closed_at      TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_forum_posts_status ON forum_posts(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create forum_posts table: %w", err)
	}

	log.Println("✅ Database initialized successfully")
	return nil
}
