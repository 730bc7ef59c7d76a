package models

import "time"

// AutoResponse is a canned reply triggered by keyword containment.
// Auto-responses are checked before scored retrieval runs; the first
// one whose trigger appears in the query short-circuits the pipeline.
type AutoResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TriggerKeywords []string  `json:"triggerKeywords"`
	ResponseText    string    `json:"responseText"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CommandDoc is descriptive metadata for a slash command. It has no
// runtime behavior; the dashboard renders it and the bot publishes it
// as help text. Names are unique within the collection.
type CommandDoc struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}
