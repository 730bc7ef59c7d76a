package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"supportboard/internal/models"
	"supportboard/internal/retrieval"
)

// ErrSummarizerDisabled is returned when no API key is configured.
var ErrSummarizerDisabled = errors.New("summarizer: no API key configured")

const summarySystemPrompt = `You summarize resolved support conversations into short knowledge base articles.
Respond with exactly three lines:
TITLE: <one-line problem statement>
KEYWORDS: <comma-separated search keywords>
CONTENT: <the solution in two or three sentences>`

// ConversationMessage is one message of a solved thread, as sent by
// the bot process.
type ConversationMessage struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Summarizer turns solved support threads into pending knowledge
// entries. The model call itself is fire-and-forget: no retries, and a
// per-thread cache so a thread is only summarized once.
type Summarizer struct {
	client   *openai.Client
	model    string
	classify retrieval.Classifier
	limiter  *rate.Limiter
	recent   *cache.Cache // threadID -> models.PendingKnowledgeEntry
}

// NewSummarizer creates a summarizer. A nil client (empty API key)
// yields a disabled instance whose Summarize returns
// ErrSummarizerDisabled.
func NewSummarizer(apiKey, baseURL, model string) *Summarizer {
	s := &Summarizer{
		model:    model,
		classify: retrieval.ClassifyIssue,
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 3),
		recent:   cache.New(1*time.Hour, 10*time.Minute),
	}
	if apiKey == "" {
		return s
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	s.client = openai.NewClientWithConfig(config)
	return s
}

// SetClassifier swaps the issue classification heuristic.
func (s *Summarizer) SetClassifier(classify retrieval.Classifier) {
	if classify != nil {
		s.classify = classify
	}
}

// Enabled reports whether a model client is configured.
func (s *Summarizer) Enabled() bool {
	return s.client != nil
}

// Summarize produces a pending knowledge entry from a solved thread.
// Repeated calls for the same thread return the cached entry instead
// of calling the model again.
func (s *Summarizer) Summarize(ctx context.Context, threadID string, conversation []ConversationMessage) (*models.PendingKnowledgeEntry, error) {
	if s.client == nil {
		return nil, ErrSummarizerDisabled
	}
	if len(conversation) == 0 {
		return nil, errors.New("summarizer: empty conversation")
	}

	if cached, found := s.recent.Get(threadID); found {
		entry := cached.(models.PendingKnowledgeEntry)
		return &entry, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	transcript := buildTranscript(conversation)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarizer: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("summarizer: empty completion")
	}

	title, keywords, content := parseSummary(resp.Choices[0].Message.Content)
	if title == "" {
		title = "Solved: " + firstLine(conversation[0].Content)
	}
	if content == "" {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	entry := models.PendingKnowledgeEntry{
		KnowledgeEntry: models.KnowledgeEntry{
			ID:        uuid.New().String(),
			Title:     title,
			Content:   content,
			Keywords:  keywords,
			CreatedAt: time.Now().UTC(),
			CreatedBy: "summarizer",
		},
		Source:              string(s.classify(conversation[0].Content)),
		ThreadID:            threadID,
		ConversationPreview: preview(transcript, 280),
	}

	s.recent.Set(threadID, entry, cache.DefaultExpiration)
	log.Printf("📝 [SUMMARIZER] Queued summary for thread %s (%q)", threadID, title)
	return &entry, nil
}

func buildTranscript(conversation []ConversationMessage) string {
	var sb strings.Builder
	for _, msg := range conversation {
		sb.WriteString(msg.Author)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseSummary pulls the TITLE/KEYWORDS/CONTENT lines out of the model
// response. Missing lines come back empty; the caller fills fallbacks.
func parseSummary(text string) (title string, keywords []string, content string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "KEYWORDS:"):
			for _, kw := range strings.Split(strings.TrimPrefix(line, "KEYWORDS:"), ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					keywords = append(keywords, strings.ToLower(kw))
				}
			}
		case strings.HasPrefix(line, "CONTENT:"):
			content = strings.TrimSpace(strings.TrimPrefix(line, "CONTENT:"))
		}
	}
	return title, keywords, content
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func preview(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
