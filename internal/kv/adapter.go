// Package kv abstracts the key-value backends the knowledge store can
// persist to: a REST key-value service or a Redis server. Exactly one
// backend is selected at startup; callers never re-detect per call.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
)

// ErrNoBackend is returned by Connect when no backend is configured or
// the configured backend fails its connectivity check. The store treats
// it as "run on process memory", not as a fatal error.
var ErrNoBackend = errors.New("kv: no backend available")

// Backend is the uniform adapter over a concrete key-value client.
//
// Get returns nil with a nil error when the key is absent. A stored
// value that cannot be decoded also comes back nil: corruption degrades
// to "missing" and is logged here, never raised to the caller.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Options carries the backend selection inputs. REST KV wins when both
// its URL and token are present; otherwise a Redis URL is tried; with
// neither, Connect reports ErrNoBackend.
type Options struct {
	RESTURL   string
	RESTToken string
	RedisURL  string
}

// Connect selects and verifies a backend. Connectivity is checked once
// with a bounded ping; a backend that fails the ping is discarded for
// the life of the process rather than retried per call.
func Connect(ctx context.Context, opts Options) (Backend, error) {
	var backend Backend

	switch {
	case opts.RESTURL != "" && opts.RESTToken != "":
		backend = newRESTBackend(opts.RESTURL, opts.RESTToken)
	case opts.RedisURL != "":
		b, err := newRedisBackend(opts.RedisURL)
		if err != nil {
			log.Printf("⚠️  [KV] Invalid Redis URL: %v", err)
			return nil, ErrNoBackend
		}
		backend = b
	default:
		return nil, ErrNoBackend
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := backend.Ping(pingCtx); err != nil {
		log.Printf("⚠️  [KV] %s backend unreachable: %v", backend.Name(), err)
		if cerr := backend.Close(); cerr != nil {
			log.Printf("⚠️  [KV] Closing %s backend: %v", backend.Name(), cerr)
		}
		return nil, ErrNoBackend
	}

	log.Printf("✅ [KV] Connected to %s backend", backend.Name())
	return backend, nil
}
