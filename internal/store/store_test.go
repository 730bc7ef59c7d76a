package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"supportboard/internal/models"
)

// fakeBackend is an in-memory kv.Backend for store tests.
type fakeBackend struct {
	mu   sync.Mutex
	data map[string]json.RawMessage

	failSetKey string // Set on this key returns an error
	truncKey   string // values written to this key read back as []
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string]json.RawMessage{}}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Get(_ context.Context, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (f *fakeBackend) Set(_ context.Context, key string, value any) error {
	if key == f.failSetKey {
		return fmt.Errorf("simulated outage")
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.truncKey {
		encoded = []byte("[]")
	}
	f.data[key] = encoded
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeBackend) Ping(context.Context) error { return nil }
func (f *fakeBackend) Close() error               { return nil }

func newBackedStore(backend *fakeBackend) *Store {
	return New(Config{Backend: backend, VerifyDelay: time.Millisecond})
}

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestLoad_NoBackendReturnsSeeds(t *testing.T) {
	// Empty options: kv.Connect reports no backend available.
	s := New(Config{VerifyDelay: time.Millisecond})

	result, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Durable {
		t.Error("Memory fallback must not report durable")
	}
	if len(result.Snapshot.KnowledgeEntries) == 0 {
		t.Error("Memory fallback should start from seed data")
	}
	if len(result.Snapshot.BotSettings) == 0 {
		t.Error("Memory fallback should carry default settings")
	}
}

func TestLoad_EmptyBackendStaysEmpty(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	result, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !result.Durable {
		t.Error("Configured backend must report durable")
	}
	if len(result.Snapshot.KnowledgeEntries) != 0 {
		t.Errorf("Backend-empty must stay empty, got %d seeded entries", len(result.Snapshot.KnowledgeEntries))
	}
	if result.Snapshot.AutoResponses == nil || result.Snapshot.PendingEntries == nil {
		t.Error("Collections must be non-nil arrays")
	}
	// Settings alone fall back to defaults: an empty settings object
	// would break bot operation.
	if len(result.Snapshot.BotSettings) == 0 {
		t.Error("Absent settings should fall back to defaults")
	}
}

func TestLoad_CorruptValueTreatedAsMissing(t *testing.T) {
	backend := newFakeBackend()
	backend.data[keyKnowledgeEntries] = json.RawMessage(`{"not":"an array"}`)

	s := newBackedStore(backend)
	result, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Snapshot.KnowledgeEntries) != 0 {
		t.Errorf("Undecodable value must degrade to empty, got %d", len(result.Snapshot.KnowledgeEntries))
	}
}

func TestSave_RoundTrip(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	entries := []models.KnowledgeEntry{{ID: "kb-1", Title: "First"}}
	result, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, entries),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !result.Durable {
		t.Error("Backed save must report durable")
	}
	if result.Warning != "" {
		t.Errorf("Backed save must not warn, got %q", result.Warning)
	}
	if len(result.Snapshot.KnowledgeEntries) != 1 {
		t.Fatalf("Expected 1 entry after save, got %d", len(result.Snapshot.KnowledgeEntries))
	}

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Snapshot.KnowledgeEntries) != 1 || loaded.Snapshot.KnowledgeEntries[0].ID != "kb-1" {
		t.Errorf("Read-back disagrees with write: %+v", loaded.Snapshot.KnowledgeEntries)
	}
}

func TestSave_Idempotent(t *testing.T) {
	s := newBackedStore(newFakeBackend())
	patch := models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, []models.KnowledgeEntry{{ID: "kb-1"}}),
	}

	first, err := s.Save(context.Background(), patch)
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	second, err := s.Save(context.Background(), patch)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if first.Fingerprint != second.Fingerprint {
		t.Errorf("Idempotent saves must converge: %s vs %s", first.Fingerprint, second.Fingerprint)
	}
}

func TestSave_PartialUpdateIsolation(t *testing.T) {
	backend := newFakeBackend()
	s := newBackedStore(backend)

	if _, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, []models.KnowledgeEntry{{ID: "kb-1"}}),
		AutoResponses:    mustRaw(t, []models.AutoResponse{{ID: "ar-1"}}),
	}); err != nil {
		t.Fatalf("Seed save failed: %v", err)
	}

	entriesBefore := string(backend.data[keyKnowledgeEntries])
	autoBefore := string(backend.data[keyAutoResponses])
	pendingBefore := string(backend.data[keyPendingEntries])

	if _, err := s.Save(context.Background(), models.SnapshotPatch{
		BotSettings: mustRaw(t, models.BotSettings{"systemPrompt": "updated"}),
	}); err != nil {
		t.Fatalf("Settings-only save failed: %v", err)
	}

	if got := string(backend.data[keyKnowledgeEntries]); got != entriesBefore {
		t.Errorf("knowledgeEntries changed by settings-only write:\n before %s\n after  %s", entriesBefore, got)
	}
	if got := string(backend.data[keyAutoResponses]); got != autoBefore {
		t.Errorf("autoResponses changed by settings-only write")
	}
	if got := string(backend.data[keyPendingEntries]); got != pendingBefore {
		t.Errorf("pendingEntries changed by settings-only write")
	}
}

func TestSave_MalformedFieldIgnored(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	result, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: json.RawMessage(`"not an array"`),
		AutoResponses:    mustRaw(t, []models.AutoResponse{{ID: "ar-1"}}),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if len(result.IgnoredFields) != 1 || result.IgnoredFields[0] != "knowledgeEntries" {
		t.Errorf("Expected knowledgeEntries ignored, got %v", result.IgnoredFields)
	}
	if len(result.Snapshot.AutoResponses) != 1 {
		t.Error("Well-formed field must still be written")
	}
	if len(result.Snapshot.KnowledgeEntries) != 0 {
		t.Error("Malformed field must keep its previous value")
	}
}

func TestSave_MalformedSettingsIgnored(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	result, err := s.Save(context.Background(), models.SnapshotPatch{
		BotSettings: json.RawMessage(`[1, 2, 3]`),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(result.IgnoredFields) != 1 || result.IgnoredFields[0] != "botSettings" {
		t.Errorf("Expected botSettings ignored, got %v", result.IgnoredFields)
	}
}

func TestSave_WriteFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failSetKey = keyAutoResponses
	s := newBackedStore(backend)

	_, err := s.Save(context.Background(), models.SnapshotPatch{
		AutoResponses: mustRaw(t, []models.AutoResponse{{ID: "ar-1"}}),
	})

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected *WriteError, got %v", err)
	}
	if writeErr.Key != keyAutoResponses {
		t.Errorf("Expected failing key %q, got %q", keyAutoResponses, writeErr.Key)
	}
}

func TestSave_VerificationFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.truncKey = keyKnowledgeEntries
	s := newBackedStore(backend)

	_, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, []models.KnowledgeEntry{{ID: "kb-1"}, {ID: "kb-2"}}),
	})

	var verifyErr *VerificationError
	if !errors.As(err, &verifyErr) {
		t.Fatalf("Expected *VerificationError, got %v", err)
	}
	if len(verifyErr.Mismatches) != 1 {
		t.Fatalf("Expected 1 mismatch, got %d", len(verifyErr.Mismatches))
	}
	m := verifyErr.Mismatches[0]
	if m.Collection != "knowledgeEntries" || m.Wrote != 2 || m.ReadBack != 0 {
		t.Errorf("Unexpected mismatch detail: %+v", m)
	}
}

func TestSave_MemoryFallbackWarns(t *testing.T) {
	s := New(Config{VerifyDelay: time.Millisecond})

	result, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, []models.KnowledgeEntry{{ID: "kb-mem"}}),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if result.Durable {
		t.Error("Memory save must not report durable")
	}
	if result.Warning != MemoryWarning {
		t.Errorf("Expected memory warning, got %q", result.Warning)
	}

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Snapshot.KnowledgeEntries) != 1 || loaded.Snapshot.KnowledgeEntries[0].ID != "kb-mem" {
		t.Errorf("Memory save not visible to readers: %+v", loaded.Snapshot.KnowledgeEntries)
	}
}

func TestLoad_ConcurrentFirstUse(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Load(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}

func TestSave_NullFieldKeepsPrevious(t *testing.T) {
	s := newBackedStore(newFakeBackend())

	if _, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: mustRaw(t, []models.KnowledgeEntry{{ID: "kb-1"}}),
	}); err != nil {
		t.Fatalf("Seed save failed: %v", err)
	}

	result, err := s.Save(context.Background(), models.SnapshotPatch{
		KnowledgeEntries: json.RawMessage(`null`),
		BotSettings:      mustRaw(t, models.BotSettings{"systemPrompt": "x"}),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(result.Snapshot.KnowledgeEntries) != 1 {
		t.Errorf("JSON null must not clear a collection, got %d entries", len(result.Snapshot.KnowledgeEntries))
	}
}
