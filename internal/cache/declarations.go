// Package cache memoizes per-script declaration extraction for the whole run.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	serrors "github.com/rohankatakam/sceneaudit/internal/errors"
	"github.com/rohankatakam/sceneaudit/internal/treesitter"
)

// Extractor computes the serializable fields of one script source.
type Extractor interface {
	Extract(ctx context.Context, path string, src []byte) (treesitter.FieldSet, error)
}

// Store is an optional persistent layer below the in-memory cache.
type Store interface {
	Load(path, digest string) (treesitter.FieldSet, bool, error)
	Save(path, digest string, fields treesitter.FieldSet) error
}

// Stats reports cache activity.
type Stats struct {
	Entries     int
	Extractions int64 // Sources actually parsed
	StoreHits   int64 // Sources served from the persistent store
	Failures    int64 // Scripts excluded because they could not be read or parsed
}

type entry struct {
	fields treesitter.FieldSet
	err    error
}

// DeclarationCache returns each script's field set, computing it at most
// once per path for the lifetime of the cache. Concurrent requests for the
// same path share one computation. Failures are memoized too, so a bad
// script is reported once and stays excluded.
//
// Returned sets are shared between callers and must not be modified.
type DeclarationCache struct {
	extractor   Extractor
	store       Store
	fingerprint string
	logger      *logrus.Logger
	readFile    func(string) ([]byte, error)

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]entry

	extractions atomic.Int64
	storeHits   atomic.Int64
	failures    atomic.Int64
}

// Option configures a DeclarationCache.
type Option func(*DeclarationCache)

// WithStore adds a persistent layer. fingerprint identifies the extraction
// rules so that records written under other rules are not reused.
func WithStore(store Store, fingerprint string) Option {
	return func(c *DeclarationCache) {
		c.store = store
		c.fingerprint = fingerprint
	}
}

// WithReadFile replaces the function used to read script sources.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(c *DeclarationCache) {
		c.readFile = fn
	}
}

// NewDeclarationCache creates an empty cache.
func NewDeclarationCache(extractor Extractor, logger *logrus.Logger, opts ...Option) *DeclarationCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &DeclarationCache{
		extractor: extractor,
		logger:    logger,
		readFile:  os.ReadFile,
		entries:   make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the serializable fields of the script at path. A non-nil
// error means the script is excluded from validation; it is never fatal.
func (c *DeclarationCache) Get(ctx context.Context, path string) (treesitter.FieldSet, error) {
	if e, ok := c.lookup(path); ok {
		return e.fields, e.err
	}

	v, _, _ := c.group.Do(path, func() (interface{}, error) {
		// A computation may have finished between lookup and Do.
		if e, ok := c.lookup(path); ok {
			return e, nil
		}

		e := c.compute(ctx, path)
		if e.err != nil && isContextError(e.err) {
			// Cancellation says nothing about the script; let a later
			// caller try again.
			return e, nil
		}

		c.mu.Lock()
		c.entries[path] = e
		c.mu.Unlock()
		return e, nil
	})

	e := v.(entry)
	return e.fields, e.err
}

func (c *DeclarationCache) lookup(path string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

func (c *DeclarationCache) compute(ctx context.Context, path string) entry {
	log := c.logger.WithField("script", path)

	src, err := c.readFile(path)
	if err != nil {
		c.failures.Add(1)
		log.WithError(err).Warn("Failed to read script, excluding it from validation")
		return entry{err: serrors.ScriptError(err, path)}
	}

	var digest string
	if c.store != nil {
		digest = c.digest(src)
		fields, ok, err := c.store.Load(path, digest)
		if err != nil {
			log.WithError(err).Debug("Declaration store lookup failed")
		} else if ok {
			c.storeHits.Add(1)
			return entry{fields: fields}
		}
	}

	c.extractions.Add(1)
	fields, err := c.extractor.Extract(ctx, path, src)
	if err != nil {
		if isContextError(err) {
			return entry{err: err}
		}
		c.failures.Add(1)
		log.WithError(err).Warn("Failed to parse script, excluding it from validation")
		return entry{err: serrors.ScriptError(err, path)}
	}

	if c.store != nil {
		if err := c.store.Save(path, digest, fields); err != nil {
			log.WithError(err).Debug("Failed to persist declarations")
		}
	}

	log.WithField("fields", len(fields)).Debug("Extracted script declarations")
	return entry{fields: fields}
}

func (c *DeclarationCache) digest(src []byte) string {
	h := sha256.New()
	h.Write([]byte(c.fingerprint))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// Stats returns a snapshot of cache activity.
func (c *DeclarationCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		Entries:     n,
		Extractions: c.extractions.Load(),
		StoreHits:   c.storeHits.Load(),
		Failures:    c.failures.Load(),
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
