package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supportboard/internal/database"
	"supportboard/internal/models"
)

// ErrPostNotFound is returned when a thread is not being tracked.
var ErrPostNotFound = errors.New("forum post not found")

// ForumTrackerService records which support forum threads the bot is
// watching. This data lives in local SQLite and carries no durability
// guarantee beyond the host disk; it is intentionally not part of the
// KV snapshot.
type ForumTrackerService struct {
	db *database.DB
}

// NewForumTrackerService creates a new forum tracker service
func NewForumTrackerService(db *database.DB) *ForumTrackerService {
	return &ForumTrackerService{db: db}
}

// Track starts tracking a thread. Re-tracking an existing thread
// refreshes its title and bumps updated_at but keeps its lifecycle.
func (s *ForumTrackerService) Track(ctx context.Context, post models.TrackedPost) (*models.TrackedPost, error) {
	now := time.Now().UTC()
	if post.Status == "" {
		post.Status = models.ForumPostOpen
	}
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forum_posts (thread_id, title, author_id, status, classification, solved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		post.ThreadID, post.Title, post.AuthorID, post.Status, post.Classification, post.Solved, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to track post: %w", err)
	}

	return s.Get(ctx, post.ThreadID)
}

// Get returns one tracked thread.
func (s *ForumTrackerService) Get(ctx context.Context, threadID string) (*models.TrackedPost, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, title, author_id, status, classification, solved, created_at, updated_at, closed_at
		FROM forum_posts WHERE thread_id = ?`, threadID)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateStatus transitions a thread's lifecycle. Closing a thread
// stamps closed_at; any other status clears it.
func (s *ForumTrackerService) UpdateStatus(ctx context.Context, threadID, status string, solved bool) (*models.TrackedPost, error) {
	now := time.Now().UTC()

	var closedAt any
	if status == models.ForumPostClosed {
		closedAt = now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE forum_posts SET status = ?, solved = ?, updated_at = ?, closed_at = ? WHERE thread_id = ?`,
		status, solved, now, closedAt, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrPostNotFound
	}

	return s.Get(ctx, threadID)
}

// List returns tracked threads, optionally filtered by status, newest
// first.
func (s *ForumTrackerService) List(ctx context.Context, status string) ([]models.TrackedPost, error) {
	query := `
		SELECT thread_id, title, author_id, status, classification, solved, created_at, updated_at, closed_at
		FROM forum_posts`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.TrackedPost{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// PruneClosed deletes closed threads older than the retention window
// and returns how many were removed.
func (s *ForumTrackerService) PruneClosed(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM forum_posts WHERE status = ? AND closed_at IS NOT NULL AND closed_at < ?",
		models.ForumPostClosed, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune posts: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.TrackedPost, error) {
	var post models.TrackedPost
	var closedAt sql.NullTime
	err := row.Scan(&post.ThreadID, &post.Title, &post.AuthorID, &post.Status,
		&post.Classification, &post.Solved, &post.CreatedAt, &post.UpdatedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		post.ClosedAt = &t
	}
	return &post, nil
}
