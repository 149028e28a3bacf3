// Package attrcache implements the process-wide AttrFile cache from
// spec.md §4.3: keyed by Source fingerprint, content-signature staleness
// detection, per-key single-flight parsing, and negative-entry caching
// for absent sources.
package attrcache

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"attrcore/internal/attrlog"
	"attrcore/internal/attrtypes"
	"attrcore/internal/rule"
	"attrcore/internal/source"
)

// entry is one cache slot. A nil AttrFile with exists == false is a
// negative entry recording "this source does not exist".
type entry struct {
	mu     sync.RWMutex
	file   *rule.AttrFile
	sig    source.Signature
	exists bool
}

// Cache is safe for concurrent use from many goroutines (spec.md §5): the
// keyed map sits behind one RWMutex, each entry has its own RWMutex, and a
// singleflight group serializes concurrent parses of the same key.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group

	macros *MacroTable
	log    *slog.Logger
}

// New creates an empty Cache with its own macro table.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		macros:  newMacroTable(),
		log:     attrlog.New(attrlog.ForCache),
	}
}

// Macros returns the Cache's macro table (spec.md §3: "owned by the
// Cache, written only when a macro definition is parsed from a trusted
// source").
func (c *Cache) Macros() *MacroTable {
	return c.macros
}

// Get returns a shared *rule.AttrFile for src, loading and parsing it (or
// reusing a still-fresh cached parse) as needed. Concurrent Get calls for
// the same fingerprint share a single parse (single-flight); calls for
// distinct fingerprints proceed in parallel.
func (c *Cache) Get(src source.Source, srcDir string, collab source.Collaborators) (*rule.AttrFile, error) {
	key := src.Fingerprint()

	sig, statErr := source.Stat(src, collab)
	if statErr == attrtypes.ErrNotFound {
		c.recordNegative(key)
		return nil, attrtypes.ErrNotFound
	}
	if statErr != nil {
		// A real read failure (spec.md §7: IO_ERROR) is not absence; it
		// must not be cached as a negative entry or it would mask a
		// transient failure as permanent "not found".
		return nil, statErr
	}

	if e := c.lookup(key); e != nil {
		e.mu.RLock()
		fresh := e.exists && e.sig.Equal(sig)
		var file *rule.AttrFile
		if fresh {
			file = e.file
		}
		e.mu.RUnlock()
		if fresh {
			return file, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-stat under single-flight in case of a race with a
		// concurrent mutation between the optimistic check above and now.
		sig, statErr := source.Stat(src, collab)
		if statErr == attrtypes.ErrNotFound {
			c.recordNegative(key)
			return nil, attrtypes.ErrNotFound
		}
		if statErr != nil {
			return nil, statErr
		}

		if e := c.lookup(key); e != nil {
			e.mu.RLock()
			fresh := e.exists && e.sig.Equal(sig)
			file := e.file
			e.mu.RUnlock()
			if fresh {
				return file, nil
			}
		}

		data, err := source.Load(src, collab)
		if err == attrtypes.ErrNotFound {
			c.recordNegative(key)
			return nil, attrtypes.ErrNotFound
		}
		if err != nil {
			return nil, err
		}

		c.log.Debug("reparsing attribute source", "key", key)
		af := rule.Parse(data, src, srcDir, src.AllowMacros)
		af.Signature = sig
		if src.AllowMacros {
			for _, md := range af.MacroDefs {
				c.macros.Register(md)
			}
		}

		c.store(key, af, sig)
		return af, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rule.AttrFile), nil
}

func (c *Cache) lookup(key string) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

func (c *Cache) store(key string, af *rule.AttrFile, sig source.Signature) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	e.file, e.sig, e.exists = af, sig, true
	e.mu.Unlock()
}

func (c *Cache) recordNegative(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	e.file, e.exists = nil, false
	e.mu.Unlock()
}

// Flush discards every cached entry, for callers that mutate the working
// tree out from under the Cache (spec.md §4.3).
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Stats reports the Cache's current size, for diagnostics (the CLI's
// `cache stats` command). Entries includes negative (not-found) entries.
type Stats struct {
	Entries int
	Macros  int
}

// Stats returns a snapshot of the Cache's current size.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return Stats{Entries: entries, Macros: c.macros.Len()}
}
