package models

import "encoding/json"

// DataSnapshot is the aggregate unit of read/write for the knowledge
// store: every persisted collection plus the bot settings. Collection
// fields are always non-nil arrays and botSettings is always an object;
// Normalize enforces that after any decode.
type DataSnapshot struct {
	KnowledgeEntries []KnowledgeEntry        `json:"knowledgeEntries"`
	AutoResponses    []AutoResponse          `json:"autoResponses"`
	CommandDocs      []CommandDoc            `json:"commandDocs"`
	BotSettings      BotSettings             `json:"botSettings"`
	PendingEntries   []PendingKnowledgeEntry `json:"pendingEntries"`
}

// Normalize replaces nil collections with empty ones and a nil settings
// map with an empty object. It never substitutes seed data: an empty
// collection from a configured backend is a final answer.
func (s *DataSnapshot) Normalize() {
	if s.KnowledgeEntries == nil {
		s.KnowledgeEntries = []KnowledgeEntry{}
	}
	if s.AutoResponses == nil {
		s.AutoResponses = []AutoResponse{}
	}
	if s.CommandDocs == nil {
		s.CommandDocs = []CommandDoc{}
	}
	if s.BotSettings == nil {
		s.BotSettings = BotSettings{}
	}
	if s.PendingEntries == nil {
		s.PendingEntries = []PendingKnowledgeEntry{}
	}
}

// Clone returns a deep-enough copy for handler consumption: fresh
// slices and a fresh settings map. Entry structs are copied by value.
func (s *DataSnapshot) Clone() *DataSnapshot {
	out := &DataSnapshot{
		KnowledgeEntries: append([]KnowledgeEntry(nil), s.KnowledgeEntries...),
		AutoResponses:    append([]AutoResponse(nil), s.AutoResponses...),
		CommandDocs:      append([]CommandDoc(nil), s.CommandDocs...),
		BotSettings:      s.BotSettings.Clone(),
		PendingEntries:   append([]PendingKnowledgeEntry(nil), s.PendingEntries...),
	}
	out.Normalize()
	return out
}

// SnapshotPatch is a partial DataSnapshot as received from the
// dashboard. Fields stay raw so a field of the wrong shape can be
// ignored on its own without rejecting the rest of the write.
type SnapshotPatch struct {
	KnowledgeEntries json.RawMessage `json:"knowledgeEntries,omitempty"`
	AutoResponses    json.RawMessage `json:"autoResponses,omitempty"`
	CommandDocs      json.RawMessage `json:"commandDocs,omitempty"`
	BotSettings      json.RawMessage `json:"botSettings,omitempty"`
	PendingEntries   json.RawMessage `json:"pendingEntries,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p SnapshotPatch) IsEmpty() bool {
	return p.KnowledgeEntries == nil && p.AutoResponses == nil &&
		p.CommandDocs == nil && p.BotSettings == nil && p.PendingEntries == nil
}
