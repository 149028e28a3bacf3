// Package attrcore resolves git-attributes-style path attributes against
// a repository: the working tree, the index, and (on request) historical
// commits. It aggregates per-directory attribute files highest to lowest
// precedence, expands macros at match time, and caches parsed files by
// content signature so repeated lookups across a large tree stay cheap.
package attrcore

import (
	"context"
	"errors"

	"attrcore/internal/attrcache"
	"attrcore/internal/attrconfig"
	"attrcore/internal/attrtypes"
	"attrcore/internal/collector"
	"attrcore/internal/gitrepo"
	"attrcore/internal/resolver"
	"attrcore/internal/rule"
	"attrcore/internal/session"
	"attrcore/internal/source"
)

// Re-exported types forming the public surface; callers outside this
// module never need to import the internal packages directly.
type (
	Value                = attrtypes.Value
	ValueKind            = attrtypes.ValueKind
	Assignment           = attrtypes.Assignment
	Flags                = attrtypes.Flags
	CommitID             = attrtypes.CommitID
	Repository           = attrtypes.Repository
	Index                = attrtypes.Index
	ObjectID             = attrtypes.ObjectID
	ObjectDB             = attrtypes.ObjectDB
	FileSystem           = attrtypes.FileSystem
	PathWalker           = attrtypes.PathWalker
	CallbackAbortedError = attrtypes.CallbackAbortedError
	CacheStats           = attrcache.Stats
)

const (
	Unspecified = attrtypes.Unspecified
	True        = attrtypes.True
	False       = attrtypes.False
	Unset       = attrtypes.Unset
	String      = attrtypes.String
)

const (
	FileThenIndex = attrtypes.FileThenIndex
	IndexThenFile = attrtypes.IndexThenFile
	IndexOnly     = attrtypes.IndexOnly
	NoSystem      = attrtypes.NoSystem
	IncludeHead   = attrtypes.IncludeHead
	IncludeCommit = attrtypes.IncludeCommit
)

var (
	ErrInvalidArgument = attrtypes.ErrInvalidArgument
	ErrNotFound        = attrtypes.ErrNotFound
	ErrIO              = attrtypes.ErrIO
	ErrCancelled       = attrtypes.ErrCancelled
)

// Engine bundles one process-wide Cache with the collaborators needed to
// resolve attributes against a single Repository. Its methods are safe
// for concurrent use; a caller doing many lookups in one operation should
// pair an Engine with its own Session (see NewSession) rather than share
// one Session across goroutines.
type Engine struct {
	cache     *attrcache.Cache
	resolver  *resolver.Resolver
	collector *collector.Collector
}

// Collaborators bundles the adapters an Engine needs to read a real
// repository's working tree, index, and object database.
type Collaborators struct {
	Repo       Repository
	FS         FileSystem
	ODB        ObjectDB
	Walker     PathWalker
	IgnoreCase bool
}

// New builds an Engine over collab, with its own private Cache.
func New(collab Collaborators) *Engine {
	cache := attrcache.New()
	walker := collab.Walker
	if walker == nil {
		walker = collector.DefaultWalker{}
	}
	coll := &collector.Collector{
		Cache:  cache,
		Repo:   collab.Repo,
		Walker: walker,
		Collab: sourceCollaborators(collab),
	}
	return &Engine{
		cache:     cache,
		collector: coll,
		resolver: &resolver.Resolver{
			Collector:  coll,
			Cache:      cache,
			IgnoreCase: collab.IgnoreCase,
		},
	}
}

func sourceCollaborators(collab Collaborators) source.Collaborators {
	return source.Collaborators{FS: collab.FS, Repo: collab.Repo, ODB: collab.ODB}
}

// WithExtraCommit returns a shallow copy of e whose Collect/Get/ForEach
// also consult commit when INCLUDE_COMMIT is set (spec.md §6's
// out-of-band commit id).
func (e *Engine) WithExtraCommit(commit CommitID) *Engine {
	cp := *e.collector
	cp.ExtraCommit = commit
	return &Engine{
		cache:     e.cache,
		collector: &cp,
		resolver: &resolver.Resolver{
			Collector:  &cp,
			Cache:      e.cache,
			IgnoreCase: e.resolver.IgnoreCase,
		},
	}
}

// Get resolves a single attribute's value at path.
func (e *Engine) Get(ctx context.Context, flags Flags, path, name string) (Value, error) {
	return e.GetWithSession(ctx, nil, flags, path, name)
}

// GetWithSession is Get, but reuses and contributes to sess's memoized
// file vectors and system-path lookup (spec.md §4.6) — pass a Session
// shared across many lookups in one bulk operation (e.g. walking a whole
// checkout) to avoid re-collecting the file vector of a repeated
// (path, flags) query.
func (e *Engine) GetWithSession(ctx context.Context, sess *Session, flags Flags, path, name string) (Value, error) {
	return e.resolver.Get(ctx, sess, flags, resolver.CleanQueryPath(path), name)
}

// GetMany resolves several attributes at path in a single pass over the
// applicable attribute files.
func (e *Engine) GetMany(ctx context.Context, flags Flags, path string, names []string) ([]Value, error) {
	return e.GetManyWithSession(ctx, nil, flags, path, names)
}

// GetManyWithSession is GetMany, threading sess through as in
// GetWithSession.
func (e *Engine) GetManyWithSession(ctx context.Context, sess *Session, flags Flags, path string, names []string) ([]Value, error) {
	return e.resolver.GetMany(ctx, sess, flags, resolver.CleanQueryPath(path), names)
}

// ForEach invokes fn once per distinct attribute name assigned to path,
// in highest-to-lowest precedence order, stopping early if fn returns an
// error (wrapped in a *CallbackAbortedError).
func (e *Engine) ForEach(ctx context.Context, flags Flags, path string, fn func(name string, v Value) error) error {
	return e.ForEachWithSession(ctx, nil, flags, path, fn)
}

// ForEachWithSession is ForEach, threading sess through as in
// GetWithSession.
func (e *Engine) ForEachWithSession(ctx context.Context, sess *Session, flags Flags, path string, fn func(name string, v Value) error) error {
	return e.resolver.ForEach(ctx, sess, flags, resolver.CleanQueryPath(path), fn)
}

// AddMacro registers a macro directly, bypassing parsing — useful for
// callers that construct macro definitions programmatically (e.g. tests,
// or a config-driven default macro set).
func (e *Engine) AddMacro(name string, assignments []Assignment) {
	e.cache.Macros().Register(rule.MacroDef{Name: name, Assignments: assignments})
}

// CacheFlush discards every cached parsed attribute file, for callers
// that mutate the working tree or index out from under the Engine.
func (e *Engine) CacheFlush() {
	e.cache.Flush()
}

// CacheStats reports the Engine's Cache's current size: how many parsed
// (or negative) entries it holds and how many macro definitions are
// registered.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Session is the per-operation scratch state described by spec.md §4.6:
// a memoized system-file path, a one-time setup flag, and a small LRU of
// previously collected file vectors. A Session must be used by at most
// one goroutine at a time.
type Session = session.Session

// NewSession creates a Session sized by cfg's cache.max_memo_entries.
func NewSession(cfg *attrconfig.Config) *Session {
	if cfg == nil {
		return session.New()
	}
	return session.NewWithCapacity(cfg.Cache.MaxMemoEntries)
}

// OpenRepo opens a real on-disk Git repository at repoPath and builds an
// Engine over it, reading optional attrcore configuration from
// configPath (if non-empty and present).
func OpenRepo(repoPath, configPath string) (*Engine, *attrconfig.Config, error) {
	cfg := attrconfig.Default()
	if configPath != "" {
		loaded, err := attrconfig.Load(configPath)
		if err == nil {
			cfg = loaded
		} else if !errors.Is(err, attrconfig.ErrConfigNotFound) {
			return nil, nil, err
		}
	}

	var opts []gitrepo.Option
	if cfg.AttributesFile != "" {
		opts = append(opts, gitrepo.WithExtraAttributesPath(cfg.AttributesFile))
	}
	if cfg.SystemFile != "" {
		opts = append(opts, gitrepo.WithSystemAttributesPath(cfg.SystemFile))
	}
	if cfg.IgnoreCase {
		opts = append(opts, gitrepo.WithIgnoreCase(true))
	}

	repo, err := gitrepo.Open(repoPath, opts...)
	if err != nil {
		return nil, nil, err
	}

	e := New(Collaborators{
		Repo:       repo,
		FS:         gitrepo.FileSystem{},
		ODB:        gitrepo.NewObjectDB(repo),
		IgnoreCase: cfg.IgnoreCase,
	})
	return e, cfg, nil
}
