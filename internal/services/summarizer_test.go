package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseSummary(t *testing.T) {
	title, keywords, content := parseSummary(`TITLE: Antivirus blocks the macro
KEYWORDS: Antivirus, Firewall , quarantine
CONTENT: Add an exclusion for the install directory.`)

	if title != "Antivirus blocks the macro" {
		t.Errorf("Unexpected title: %q", title)
	}
	if len(keywords) != 3 || keywords[0] != "antivirus" || keywords[1] != "firewall" || keywords[2] != "quarantine" {
		t.Errorf("Unexpected keywords: %v", keywords)
	}
	if content != "Add an exclusion for the install directory." {
		t.Errorf("Unexpected content: %q", content)
	}
}

func TestParseSummary_MissingLines(t *testing.T) {
	title, keywords, content := parseSummary("The model rambled instead of following the format.")
	if title != "" || keywords != nil || content != "" {
		t.Errorf("Expected empty results, got %q %v %q", title, keywords, content)
	}
}

func TestParseSummary_IgnoresSurroundingNoise(t *testing.T) {
	title, _, content := parseSummary(`Sure, here is the summary:

TITLE: License key rejected
CONTENT: Re-enter the key without spaces.

Let me know if you need anything else.`)
	if title != "License key rejected" {
		t.Errorf("Unexpected title: %q", title)
	}
	if content != "Re-enter the key without spaces." {
		t.Errorf("Unexpected content: %q", content)
	}
}

func TestSummarizer_DisabledWithoutAPIKey(t *testing.T) {
	s := NewSummarizer("", "", "gpt-4o-mini")
	if s.Enabled() {
		t.Error("Summarizer without an API key must be disabled")
	}

	_, err := s.Summarize(context.Background(), "thread-1", []ConversationMessage{{Author: "u", Content: "help"}})
	if !errors.Is(err, ErrSummarizerDisabled) {
		t.Errorf("Expected ErrSummarizerDisabled, got %v", err)
	}
}

func TestBuildTranscript(t *testing.T) {
	got := buildTranscript([]ConversationMessage{
		{Author: "alice", Content: "the macro crashes"},
		{Author: "support", Content: "update to 2.4"},
	})
	want := "alice: the macro crashes\nsupport: update to 2.4\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPreview_Truncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := preview(long, 280)
	if len([]rune(got)) != 281 {
		t.Errorf("Expected 280 chars plus ellipsis, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("Truncated preview must end with an ellipsis")
	}

	if preview("short", 280) != "short" {
		t.Error("Short text must pass through unchanged")
	}
}

func TestPreview_KeepsRuneBoundaries(t *testing.T) {
	// 200 two-byte runes; a byte-index cut at 281 would land inside one.
	long := strings.Repeat("é", 200)
	got := preview(long, 281)
	if !utf8.ValidString(got) {
		t.Fatalf("Truncated preview is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("Truncated preview must end with an ellipsis")
	}

	if got := preview("aééé", 4); got != "aé…" {
		t.Errorf("Expected cut backed up to a rune boundary, got %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("first\nsecond"); got != "first" {
		t.Errorf("Expected first, got %q", got)
	}
	if got := firstLine("  only  "); got != "only" {
		t.Errorf("Expected only, got %q", got)
	}
}
