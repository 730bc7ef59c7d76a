package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"supportboard/internal/database"
	"supportboard/internal/models"
)

func newTestTracker(t *testing.T) *ForumTrackerService {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "forum.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	return NewForumTrackerService(db)
}

func TestForumTracker_TrackAndGet(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	post, err := tracker.Track(ctx, models.TrackedPost{
		ThreadID: "thread-1",
		Title:    "Macro will not run",
		AuthorID: "user-42",
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if post.Status != models.ForumPostOpen {
		t.Errorf("New post should default to open, got %s", post.Status)
	}

	got, err := tracker.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Macro will not run" || got.AuthorID != "user-42" {
		t.Errorf("Unexpected post: %+v", got)
	}
}

func TestForumTracker_RetrackUpdatesTitle(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	if _, err := tracker.Track(ctx, models.TrackedPost{ThreadID: "thread-1", Title: "Old title", AuthorID: "u"}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tracker.UpdateStatus(ctx, "thread-1", models.ForumPostAnswered, true); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	post, err := tracker.Track(ctx, models.TrackedPost{ThreadID: "thread-1", Title: "New title", AuthorID: "u"})
	if err != nil {
		t.Fatalf("Re-track failed: %v", err)
	}
	if post.Title != "New title" {
		t.Errorf("Re-track should refresh the title, got %s", post.Title)
	}
	if post.Status != models.ForumPostAnswered {
		t.Errorf("Re-track must not reset the lifecycle, got %s", post.Status)
	}
}

func TestForumTracker_UpdateStatus(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	if _, err := tracker.Track(ctx, models.TrackedPost{ThreadID: "thread-1", Title: "t", AuthorID: "u"}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	post, err := tracker.UpdateStatus(ctx, "thread-1", models.ForumPostClosed, true)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if post.Status != models.ForumPostClosed || !post.Solved {
		t.Errorf("Unexpected post after close: %+v", post)
	}
	if post.ClosedAt == nil {
		t.Error("Closing a post must stamp closed_at")
	}

	post, err = tracker.UpdateStatus(ctx, "thread-1", models.ForumPostOpen, false)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if post.ClosedAt != nil {
		t.Error("Reopening a post must clear closed_at")
	}
}

func TestForumTracker_UpdateUnknownThread(t *testing.T) {
	tracker := newTestTracker(t)

	_, err := tracker.UpdateStatus(context.Background(), "missing", models.ForumPostClosed, false)
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}
}

func TestForumTracker_ListWithFilter(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := tracker.Track(ctx, models.TrackedPost{ThreadID: id, Title: id, AuthorID: "u"}); err != nil {
			t.Fatalf("Track failed: %v", err)
		}
	}
	if _, err := tracker.UpdateStatus(ctx, "b", models.ForumPostAnswered, true); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	all, err := tracker.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 posts, got %d", len(all))
	}

	answered, err := tracker.List(ctx, models.ForumPostAnswered)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(answered) != 1 || answered[0].ThreadID != "b" {
		t.Errorf("Unexpected filtered list: %+v", answered)
	}
}

func TestForumTracker_PruneClosed(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()

	if _, err := tracker.Track(ctx, models.TrackedPost{ThreadID: "stale", Title: "t", AuthorID: "u"}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tracker.Track(ctx, models.TrackedPost{ThreadID: "fresh", Title: "t", AuthorID: "u"}); err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if _, err := tracker.UpdateStatus(ctx, "stale", models.ForumPostClosed, true); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	// Retention of zero treats anything closed before now as stale.
	time.Sleep(5 * time.Millisecond)
	pruned, err := tracker.PruneClosed(ctx, 0)
	if err != nil {
		t.Fatalf("PruneClosed failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned post, got %d", pruned)
	}

	if _, err := tracker.Get(ctx, "fresh"); err != nil {
		t.Errorf("Open post must survive pruning: %v", err)
	}
	if _, err := tracker.Get(ctx, "stale"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Closed post should be gone, got %v", err)
	}
}
