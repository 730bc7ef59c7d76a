// Package store owns the canonical snapshot of all persisted
// collections. It reads and writes through a kv.Backend when one is
// configured and degrades to a process-memory snapshot when none is,
// keeping the two modes strictly apart: backend-empty means empty,
// memory mode starts from seed data.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"supportboard/internal/kv"
	"supportboard/internal/models"
)

// Logical keys, one per collection.
const (
	keyKnowledgeEntries = "supportbot:knowledge_entries"
	keyAutoResponses    = "supportbot:auto_responses"
	keyCommandDocs      = "supportbot:command_docs"
	keyBotSettings      = "supportbot:settings"
	keyPendingEntries   = "supportbot:pending_entries"
)

// MemoryWarning is attached to save results in memory-fallback mode so
// the dashboard can tell the user the save is not durable.
const MemoryWarning = "no durable backend configured — changes are held in process memory and will be lost on restart"

// Config configures a Store.
type Config struct {
	// KV selects the durable backend; see kv.Connect.
	KV kv.Options
	// Backend, when non-nil, is used directly and KV is ignored.
	// Intended for tests and for callers that manage the connection.
	Backend kv.Backend
	// VerifyDelay is the pause between a write and its verification
	// read, tolerating backends with asynchronous replication.
	VerifyDelay time.Duration
}

// LoadResult is a composed snapshot plus its transport metadata.
type LoadResult struct {
	Snapshot    *models.DataSnapshot
	Fingerprint string
	Durable     bool
}

// SaveResult reports the outcome of a merge-and-persist.
type SaveResult struct {
	Snapshot    *models.DataSnapshot
	Fingerprint string
	Durable     bool
	// IgnoredFields lists patch fields dropped for having the wrong
	// shape. Malformed input never blocks the rest of the write.
	IgnoredFields []string
	// Warning is non-empty when the save completed in degraded form,
	// currently only for memory-fallback saves.
	Warning string
}

// Store mediates all reads and writes of the DataSnapshot.
type Store struct {
	cfg Config

	initOnce sync.Once
	backend  kv.Backend // nil after init means memory-fallback mode

	mu     sync.RWMutex
	memory *models.DataSnapshot // only used when backend is nil
}

// New creates a Store. The backend connection is established lazily on
// first use, once per process, so construction never blocks.
func New(cfg Config) *Store {
	if cfg.VerifyDelay == 0 {
		cfg.VerifyDelay = 150 * time.Millisecond
	}
	return &Store{cfg: cfg}
}

// ensureBackend establishes the backend exactly once. Concurrent first
// callers converge on a single adapter instance or a single
// "unavailable" verdict; the verdict is never revisited.
func (s *Store) ensureBackend(ctx context.Context) {
	s.initOnce.Do(func() {
		if s.cfg.Backend != nil {
			s.backend = s.cfg.Backend
			return
		}

		backend, err := kv.Connect(ctx, s.cfg.KV)
		if err != nil {
			log.Printf("⚠️  [STORE] %v — falling back to process memory", ErrBackendUnavailable)
			s.mu.Lock()
			s.memory = SeedSnapshot()
			s.mu.Unlock()
			return
		}
		s.backend = backend
	})
}

// Durable reports whether a durable backend is active. It triggers
// initialization if that has not happened yet.
func (s *Store) Durable(ctx context.Context) bool {
	s.ensureBackend(ctx)
	return s.backend != nil
}

// Load composes the current snapshot from the backend, or returns the
// in-memory snapshot when no backend is available. With a backend
// configured, absent collections come back empty — never seeded.
func (s *Store) Load(ctx context.Context) (*LoadResult, error) {
	s.ensureBackend(ctx)

	if s.backend == nil {
		s.mu.RLock()
		snapshot := s.memory.Clone()
		s.mu.RUnlock()
		return &LoadResult{
			Snapshot:    snapshot,
			Fingerprint: Fingerprint(snapshot),
			Durable:     false,
		}, nil
	}

	snapshot, err := s.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Snapshot:    snapshot,
		Fingerprint: Fingerprint(snapshot),
		Durable:     true,
	}, nil
}

// fetchSnapshot reads all five logical keys from the backend. A value
// that fails to decode is logged and treated as absent; botSettings
// alone falls back to the seed defaults, since the bot cannot operate
// on an empty settings object.
func (s *Store) fetchSnapshot(ctx context.Context) (*models.DataSnapshot, error) {
	snapshot := &models.DataSnapshot{}
	var err error

	if snapshot.KnowledgeEntries, err = fetchValue[[]models.KnowledgeEntry](ctx, s.backend, keyKnowledgeEntries); err != nil {
		return nil, err
	}
	if snapshot.AutoResponses, err = fetchValue[[]models.AutoResponse](ctx, s.backend, keyAutoResponses); err != nil {
		return nil, err
	}
	if snapshot.CommandDocs, err = fetchValue[[]models.CommandDoc](ctx, s.backend, keyCommandDocs); err != nil {
		return nil, err
	}
	if snapshot.BotSettings, err = fetchValue[models.BotSettings](ctx, s.backend, keyBotSettings); err != nil {
		return nil, err
	}
	if snapshot.PendingEntries, err = fetchValue[[]models.PendingKnowledgeEntry](ctx, s.backend, keyPendingEntries); err != nil {
		return nil, err
	}

	if len(snapshot.BotSettings) == 0 {
		snapshot.BotSettings = SeedSnapshot().BotSettings
	}

	snapshot.Normalize()
	return snapshot, nil
}

// fetchValue reads one key and decodes it. Absent keys and values that
// do not decode both yield the zero value; only transport-level
// failures propagate, translated the same way as writes.
func fetchValue[T any](ctx context.Context, backend kv.Backend, key string) (T, error) {
	var value T

	raw, err := backend.Get(ctx, key)
	if err != nil {
		return value, fmt.Errorf("store: read key %q: %w", key, err)
	}
	if raw == nil {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Printf("⚠️  [STORE] Value at %q does not decode (%v), treating as missing", key, err)
		var zero T
		return zero, nil
	}
	return value, nil
}

// Save merges a partial snapshot into the current state and persists
// the result. Fields of the wrong shape are ignored individually and
// reported in IgnoredFields. After a durable write the state is read
// back and compared count-wise; a mismatch surfaces as
// *VerificationError, distinct from *WriteError.
func (s *Store) Save(ctx context.Context, patch models.SnapshotPatch) (*SaveResult, error) {
	s.ensureBackend(ctx)

	if s.backend == nil {
		return s.saveToMemory(patch)
	}

	current, err := s.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	merged, ignored := mergePatch(current, patch)

	if err := s.persist(ctx, merged); err != nil {
		return nil, err
	}

	if err := s.verify(ctx, merged); err != nil {
		return nil, err
	}

	return &SaveResult{
		Snapshot:      merged,
		Fingerprint:   Fingerprint(merged),
		Durable:       true,
		IgnoredFields: ignored,
	}, nil
}

// saveToMemory applies the patch to the in-process snapshot. The swap
// happens under the write lock, so readers never observe a partially
// merged snapshot.
func (s *Store) saveToMemory(patch models.SnapshotPatch) (*SaveResult, error) {
	s.mu.Lock()
	merged, ignored := mergePatch(s.memory, patch)
	s.memory = merged
	snapshot := merged.Clone()
	s.mu.Unlock()

	return &SaveResult{
		Snapshot:      snapshot,
		Fingerprint:   Fingerprint(snapshot),
		Durable:       false,
		IgnoredFields: ignored,
		Warning:       MemoryWarning,
	}, nil
}

func (s *Store) persist(ctx context.Context, snapshot *models.DataSnapshot) error {
	writes := []struct {
		key   string
		value any
	}{
		{keyKnowledgeEntries, snapshot.KnowledgeEntries},
		{keyAutoResponses, snapshot.AutoResponses},
		{keyCommandDocs, snapshot.CommandDocs},
		{keyBotSettings, snapshot.BotSettings},
		{keyPendingEntries, snapshot.PendingEntries},
	}

	for _, w := range writes {
		if err := s.backend.Set(ctx, w.key, w.value); err != nil {
			return &WriteError{Key: w.key, Err: err}
		}
	}
	return nil
}

// verify re-reads the snapshot after a short delay and compares
// collection counts against what was written. Count comparison is the
// contract's minimum bar; fingerprints of both sides are logged for
// operators when counts disagree.
func (s *Store) verify(ctx context.Context, wrote *models.DataSnapshot) error {
	select {
	case <-time.After(s.cfg.VerifyDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	readBack, err := s.fetchSnapshot(ctx)
	if err != nil {
		return err
	}

	var mismatches []CollectionMismatch
	check := func(name string, wroteN, readN int) {
		if wroteN != readN {
			mismatches = append(mismatches, CollectionMismatch{Collection: name, Wrote: wroteN, ReadBack: readN})
		}
	}
	check("knowledgeEntries", len(wrote.KnowledgeEntries), len(readBack.KnowledgeEntries))
	check("autoResponses", len(wrote.AutoResponses), len(readBack.AutoResponses))
	check("commandDocs", len(wrote.CommandDocs), len(readBack.CommandDocs))
	check("pendingEntries", len(wrote.PendingEntries), len(readBack.PendingEntries))

	if len(mismatches) > 0 {
		log.Printf("❌ [STORE] Verification mismatch (wrote %s, read back %s)",
			Fingerprint(wrote), Fingerprint(readBack))
		return &VerificationError{Mismatches: mismatches}
	}

	// Counts agreeing does not prove the content matches. Content
	// divergence is logged but not failed; the counts are the contract.
	if wf, rf := Fingerprint(wrote), Fingerprint(readBack); wf != rf {
		log.Printf("⚠️  [STORE] Counts verify but content fingerprints differ (wrote %s, read back %s)", wf, rf)
	}
	return nil
}

// mergePatch applies each well-formed patch field onto a copy of
// current and returns the names of fields that were dropped. A field of
// the wrong shape keeps its previous value and never blocks the others.
func mergePatch(current *models.DataSnapshot, patch models.SnapshotPatch) (*models.DataSnapshot, []string) {
	merged := current.Clone()
	var ignored []string

	applyField("knowledgeEntries", patch.KnowledgeEntries, &merged.KnowledgeEntries, &ignored)
	applyField("autoResponses", patch.AutoResponses, &merged.AutoResponses, &ignored)
	applyField("commandDocs", patch.CommandDocs, &merged.CommandDocs, &ignored)
	applyField("pendingEntries", patch.PendingEntries, &merged.PendingEntries, &ignored)

	if patch.BotSettings != nil && string(patch.BotSettings) != "null" {
		var settings models.BotSettings
		if err := json.Unmarshal(patch.BotSettings, &settings); err != nil || settings == nil {
			log.Printf("⚠️  [STORE] Ignoring malformed botSettings in partial update")
			ignored = append(ignored, "botSettings")
		} else {
			merged.BotSettings = settings
		}
	}

	merged.Normalize()
	return merged, ignored
}

func applyField[T any](name string, raw json.RawMessage, dst *T, ignored *[]string) {
	// JSON null decodes cleanly into a nil slice, but it is not the
	// expected shape; treat it like an absent field.
	if raw == nil || string(raw) == "null" {
		return
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		log.Printf("⚠️  [STORE] Ignoring malformed field %q in partial update: %v", name, err)
		*ignored = append(*ignored, name)
		return
	}
	*dst = value
}

// Close releases the backend connection if one was established.
func (s *Store) Close() error {
	if s.backend != nil {
		return s.backend.Close()
	}
	return nil
}
