package models

import "time"

// Forum post lifecycle states.
const (
	ForumPostOpen     = "open"
	ForumPostAnswered = "answered"
	ForumPostClosed   = "closed"
)

// TrackedPost is a support forum thread the bot is watching. Tracking
// lives in the local SQLite database, deliberately outside the KV
// snapshot and its durability guarantees.
type TrackedPost struct {
	ThreadID       string     `json:"threadId"`
	Title          string     `json:"title"`
	AuthorID       string     `json:"authorId"`
	Status         string     `json:"status"`
	Classification string     `json:"classification,omitempty"`
	Solved         bool       `json:"solved"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
}
