// Package resolver implements the Get / GetMany / ForEach walk described
// in spec.md §4.5: iterate the Collector's ordered AttrFile vector,
// match each rule's Pattern against the query path, and report the
// first-seen assignment per requested attribute name, expanding macros
// at match time and treating a matching negated rule as "no opinion".
package resolver

import (
	"context"
	"path"
	"strings"

	"attrcore/internal/attrcache"
	"attrcore/internal/attrtypes"
	"attrcore/internal/collector"
	"attrcore/internal/rule"
	"attrcore/internal/session"
)

// Resolver walks a Collector's file vector to answer attribute queries.
type Resolver struct {
	Collector *collector.Collector
	Cache     *attrcache.Cache
	IgnoreCase bool
}

// Get resolves a single attribute at path (spec.md §4.5). sess is
// optional; pass nil for a one-off lookup with no cross-call memoization.
func (r *Resolver) Get(ctx context.Context, sess *session.Session, flags attrtypes.Flags, queryPath, name string) (attrtypes.Value, error) {
	values, err := r.GetMany(ctx, sess, flags, queryPath, []string{name})
	if err != nil {
		return attrtypes.Value{}, err
	}
	return values[0], nil
}

// GetMany resolves several attributes at path in one Collector walk,
// terminating early once every requested name has resolved (spec.md
// §4.5). On error, every output stays Unspecified (spec.md §7: "the
// Resolver never partially fills a multi-attribute output buffer"). An
// empty queryPath resolves every name to Unspecified. sess is optional
// (spec.md §4.6): supplying the same Session across many calls in one
// bulk operation lets the Collector reuse the file vector already
// gathered for a repeated (path, flags) query instead of re-walking.
func (r *Resolver) GetMany(ctx context.Context, sess *session.Session, flags attrtypes.Flags, queryPath string, names []string) ([]attrtypes.Value, error) {
	out := make([]attrtypes.Value, len(names))
	if queryPath == "" {
		return out, nil
	}

	files, err := r.Collector.Collect(ctx, flags, queryPath, sess)
	if err != nil {
		return make([]attrtypes.Value, len(names)), err
	}

	found := make([]bool, len(names))
	remaining := len(names)

	isDir := strings.HasSuffix(queryPath, "/")
	cleanPath := strings.TrimSuffix(queryPath, "/")

	walkErr := r.walk(ctx, files, cleanPath, isDir, func(a attrtypes.Assignment) (stop bool, err error) {
		for i, name := range names {
			if found[i] || !nameEquals(a.Name, name) {
				continue
			}
			out[i] = a.Value
			found[i] = true
			remaining--
		}
		return remaining == 0, nil
	})
	if walkErr != nil {
		return make([]attrtypes.Value, len(names)), walkErr
	}

	for i := range out {
		if !found[i] {
			out[i] = attrtypes.Value{Kind: attrtypes.Unspecified}
		}
	}
	return out, nil
}

// ForEach invokes fn for every distinct attribute name assigned along the
// walk, highest precedence first, stopping early if fn returns an error
// (spec.md §4.5, §7: CallbackAbortedError carries fn's error back). sess
// is optional, as in GetMany. An empty queryPath invokes fn for nothing.
func (r *Resolver) ForEach(ctx context.Context, sess *session.Session, flags attrtypes.Flags, queryPath string, fn func(name string, v attrtypes.Value) error) error {
	if queryPath == "" {
		return nil
	}
	files, err := r.Collector.Collect(ctx, flags, queryPath, sess)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	isDir := strings.HasSuffix(queryPath, "/")
	cleanPath := strings.TrimSuffix(queryPath, "/")

	return r.walk(ctx, files, cleanPath, isDir, func(a attrtypes.Assignment) (bool, error) {
		if seen[a.Name] {
			return false, nil
		}
		seen[a.Name] = true
		if err := fn(a.Name, a.Value); err != nil {
			return true, &attrtypes.CallbackAbortedError{Err: err}
		}
		return false, nil
	})
}

// walk iterates files highest to lowest precedence, and within each file
// its rules in file order, matching each rule's Pattern against path.
// For every assignment produced by a matching, non-negated rule it calls
// visit; a matching negated rule contributes nothing (spec.md §4.5).
// Macro expansion happens here, at match time: an assignment whose name
// names a registered macro is visited itself and then followed by that
// macro's own assignments, considered at the same precedence level as the
// triggering rule.
func (r *Resolver) walk(ctx context.Context, files []*rule.AttrFile, queryPath string, isDir bool, visit func(attrtypes.Assignment) (bool, error)) error {
	for _, af := range files {
		select {
		case <-ctx.Done():
			return attrtypes.ErrCancelled
		default:
		}

		for i := len(af.Rules) - 1; i >= 0; i-- {
			// Rules within one file are stored in file order and "later
			// rules override earlier ones for the same attribute on a
			// match" (spec.md §3); walking a single file back-to-front
			// and stopping on first assignment-per-name realizes that
			// override without extra bookkeeping.
			rl := af.Rules[i]
			rel := relativeTo(queryPath, rl.Pattern.SrcDir)
			matched, negated := rl.Pattern.Match(rel, isDir, r.IgnoreCase)
			if !matched {
				continue
			}
			if negated {
				continue // a negated match makes no positive assignment
			}
			for _, a := range rl.Assignments {
				stop, err := r.visitExpanded(a, visit)
				if err != nil {
					return err
				}
				if stop {
					return nil
				}
			}
		}
	}
	return nil
}

// visitExpanded calls visit for a and then, if a's name is a registered
// macro, for each of the macro's assignments, preserving precedence:
// macro contents are considered at the triggering rule's own level, not
// above it.
func (r *Resolver) visitExpanded(a attrtypes.Assignment, visit func(attrtypes.Assignment) (bool, error)) (bool, error) {
	stop, err := visit(a)
	if err != nil || stop {
		return stop, err
	}
	if def, ok := r.Cache.Macros().Lookup(a.Name); ok {
		for _, ma := range def.Assignments {
			stop, err := visit(ma)
			if err != nil || stop {
				return stop, err
			}
		}
	}
	return false, nil
}

func relativeTo(queryPath, srcDir string) string {
	if srcDir == "" {
		return queryPath
	}
	rel := strings.TrimPrefix(queryPath, srcDir)
	rel = strings.TrimPrefix(rel, "/")
	return rel
}

// nameEquals compares attribute names. spec.md §3 is unconditional here:
// name matching is case-sensitive regardless of the filesystem's policy
// flag (that flag only governs path matching, in Pattern.Match).
func nameEquals(a, b string) bool {
	return a == b
}

// CleanQueryPath normalizes a caller-supplied path the way every public
// entry point expects it: forward slashes, no "." segments.
func CleanQueryPath(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
