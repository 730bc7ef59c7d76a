// Package retrieval scores knowledge entries against free-text queries
// and resolves auto-response triggers. Everything here is pure and
// deterministic: no I/O, no shared state, safe for concurrent use.
package retrieval

import (
	"sort"
	"strings"

	"supportboard/internal/models"
)

// Weights tunes the relevance scoring. The defaults mirror the bot's
// long-standing behavior; they are configuration, not constants baked
// into the algorithm.
type Weights struct {
	Title          int `yaml:"title"`
	Keyword        int `yaml:"keyword"`
	Content        int `yaml:"content"`
	MaxResults     int `yaml:"maxResults"`
	MinTokenLength int `yaml:"minTokenLength"`
}

// DefaultWeights are used when no override is configured.
var DefaultWeights = Weights{
	Title:          5,
	Keyword:        3,
	Content:        1,
	MaxResults:     2,
	MinTokenLength: 3,
}

// ScoredEntry pairs a knowledge entry with its relevance score.
type ScoredEntry struct {
	Entry models.KnowledgeEntry `json:"entry"`
	Score int                   `json:"score"`
}

// MatchAutoResponse returns the first auto-response, in stored order,
// whose trigger keyword appears anywhere in the query. The match is a
// case-insensitive substring check; there is no ranking among
// auto-responses. Returns nil when none qualify.
func MatchAutoResponse(query string, responses []models.AutoResponse) *models.AutoResponse {
	lowered := strings.ToLower(query)
	for i := range responses {
		for _, trigger := range responses[i].TriggerKeywords {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if trigger != "" && strings.Contains(lowered, trigger) {
				return &responses[i]
			}
		}
	}
	return nil
}

// Rank scores every entry against the query and returns the best
// matches in descending score order, capped at MaxResults. Entries
// scoring zero are dropped; ties keep their input order.
func (w Weights) Rank(query string, entries []models.KnowledgeEntry) []ScoredEntry {
	tokens := w.tokenize(query)
	if len(tokens) == 0 {
		return []ScoredEntry{}
	}

	scored := make([]ScoredEntry, 0, len(entries))
	for _, entry := range entries {
		title := strings.ToLower(entry.Title)
		keywords := strings.ToLower(strings.Join(entry.Keywords, " "))
		content := strings.ToLower(entry.Content)

		score := 0
		for _, token := range tokens {
			if strings.Contains(title, token) {
				score += w.Title
			}
			if strings.Contains(keywords, token) {
				score += w.Keyword
			}
			if strings.Contains(content, token) {
				score += w.Content
			}
		}
		if score > 0 {
			scored = append(scored, ScoredEntry{Entry: entry, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > w.MaxResults {
		scored = scored[:w.MaxResults]
	}
	return scored
}

// tokenize lower-cases the query, splits on whitespace, and drops
// tokens shorter than MinTokenLength.
func (w Weights) tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= w.MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
