// Package session implements the short-lived per-operation scratch state
// described in spec.md §4.6: a memoized system-file path, a one-time
// setup flag, and a small LRU of previously collected file vectors.
// A Session must be used by at most one goroutine at a time — it is a
// scratch buffer, not a concurrency primitive (spec.md §5).
package session

import (
	"sync/atomic"

	"attrcore/internal/attrtypes"
	"attrcore/internal/rule"
)

const defaultMemoCapacity = 32

// Session bundles scratch state that amortizes repeated setup across a
// bulk operation (e.g. one checkout's worth of attribute lookups).
type Session struct {
	systemPath atomic.Pointer[string]
	setupDone  bool

	memoCap   int
	memoOrder []memoKey
	memo      map[memoKey][]*rule.AttrFile
}

type memoKey struct {
	path  string
	flags attrtypes.Flags
}

// New creates an empty Session with the default memo capacity.
func New() *Session {
	return NewWithCapacity(defaultMemoCapacity)
}

// NewWithCapacity creates an empty Session whose memo LRU holds at most
// capacity file vectors (see attrconfig.CacheConfig.MaxMemoEntries).
func NewWithCapacity(capacity int) *Session {
	if capacity <= 0 {
		capacity = defaultMemoCapacity
	}
	return &Session{
		memoCap: capacity,
		memo:    make(map[memoKey][]*rule.AttrFile),
	}
}

// SystemPath returns the memoized system-attributes file path, resolving
// it via resolve exactly once per Session.
func (s *Session) SystemPath(resolve func() string) string {
	if p := s.systemPath.Load(); p != nil {
		return *p
	}
	v := resolve()
	s.systemPath.Store(&v)
	return v
}

// EnsureSetup runs setup exactly once per Session, and is a no-op on
// subsequent calls.
func (s *Session) EnsureSetup(setup func()) {
	if s.setupDone {
		return
	}
	setup()
	s.setupDone = true
}

// Lookup returns a previously memoized file vector for (path, flags), if
// still present in the LRU.
func (s *Session) Lookup(path string, flags attrtypes.Flags) ([]*rule.AttrFile, bool) {
	k := memoKey{path, flags}
	v, ok := s.memo[k]
	if ok {
		s.touch(k)
	}
	return v, ok
}

// Remember stores a collected file vector for (path, flags), evicting the
// least-recently-used entry if the Session's memo is at capacity.
func (s *Session) Remember(path string, flags attrtypes.Flags, files []*rule.AttrFile) {
	k := memoKey{path, flags}
	if _, exists := s.memo[k]; !exists && len(s.memo) >= s.memoCap {
		s.evictOldest()
	}
	s.memo[k] = files
	s.touch(k)
}

func (s *Session) touch(k memoKey) {
	for i, existing := range s.memoOrder {
		if existing == k {
			s.memoOrder = append(s.memoOrder[:i], s.memoOrder[i+1:]...)
			break
		}
	}
	s.memoOrder = append(s.memoOrder, k)
}

func (s *Session) evictOldest() {
	if len(s.memoOrder) == 0 {
		return
	}
	oldest := s.memoOrder[0]
	s.memoOrder = s.memoOrder[1:]
	delete(s.memo, oldest)
}
