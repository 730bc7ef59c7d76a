package store

import (
	"testing"

	"supportboard/internal/models"
)

func TestFingerprint_Deterministic(t *testing.T) {
	snapshot := SeedSnapshot()

	first := Fingerprint(snapshot)
	second := Fingerprint(snapshot)

	if first == "" {
		t.Fatal("Fingerprint should not be empty")
	}
	if first != second {
		t.Errorf("Repeated fingerprints differ: %s vs %s", first, second)
	}
}

func TestFingerprint_SettingsInsertionOrderIndependent(t *testing.T) {
	a := &models.DataSnapshot{BotSettings: models.BotSettings{}}
	a.BotSettings["systemPrompt"] = "hello"
	a.BotSettings["confidenceThreshold"] = 0.5
	a.BotSettings["autoRespondEnabled"] = true
	a.Normalize()

	b := &models.DataSnapshot{BotSettings: models.BotSettings{}}
	b.BotSettings["autoRespondEnabled"] = true
	b.BotSettings["confidenceThreshold"] = 0.5
	b.BotSettings["systemPrompt"] = "hello"
	b.Normalize()

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Fingerprint must not depend on settings insertion order")
	}
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	a := SeedSnapshot()
	before := Fingerprint(a)

	a.KnowledgeEntries = append(a.KnowledgeEntries, models.KnowledgeEntry{ID: "new"})
	after := Fingerprint(a)

	if before == after {
		t.Error("Fingerprint must change when the snapshot changes")
	}
}
