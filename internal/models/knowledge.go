package models

import "time"

// KnowledgeEntry is a stored troubleshooting article used for
// retrieval-augmented responses. Entries are immutable once created;
// edits happen by full replacement through the data endpoint.
type KnowledgeEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// PendingKnowledgeEntry is a candidate entry awaiting admin approval,
// typically produced by the solve-and-summarize flow. It is promoted
// to a KnowledgeEntry or discarded; it never participates in retrieval.
type PendingKnowledgeEntry struct {
	KnowledgeEntry
	Source              string `json:"source"`
	ThreadID            string `json:"threadId"`
	ConversationPreview string `json:"conversationPreview"`
}

// Promote converts a pending entry into a regular knowledge entry.
func (p PendingKnowledgeEntry) Promote() KnowledgeEntry {
	return p.KnowledgeEntry
}
