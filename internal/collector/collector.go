// Package collector implements the ordered AttrFile vector construction
// described in spec.md §4.4: $GIT_DIR/info, the per-directory walk from
// the query path up to the work-tree root, the configured extra file,
// and the system file, in that precedence order.
package collector

import (
	"context"
	"path"
	"strings"

	"attrcore/internal/attrcache"
	"attrcore/internal/attrtypes"
	"attrcore/internal/rule"
	"attrcore/internal/session"
	"attrcore/internal/source"
)

const attributesFilename = ".gitattributes"

// Collector produces the ordered AttrFile vector for a query path.
type Collector struct {
	Cache  *attrcache.Cache
	Repo   attrtypes.Repository
	Walker attrtypes.PathWalker
	Collab source.Collaborators

	// ExtraCommit carries the commit id for IncludeCommit (spec.md §6:
	// "INCLUDE_COMMIT (bit 4, with commit id)"); the flags bitmask alone
	// has no room for an out-of-band identifier.
	ExtraCommit attrtypes.CommitID
}

// Collect walks every applicable source for path under flags, highest to
// lowest precedence, and returns the resulting AttrFile vector. Missing
// files at any level are absorbed, not errors (spec.md §4.4). Cancellation
// is checked between files (spec.md §5).
//
// sess is optional (spec.md §4.6): when non-nil, a previously collected
// vector for the same (path, flags) is returned from sess's LRU without
// re-walking, a fresh result is remembered there for later calls, and the
// system attributes file path is resolved through sess's one-time memo
// instead of being re-read from Repo on every call.
func (c *Collector) Collect(ctx context.Context, flags attrtypes.Flags, queryPath string, sess *session.Session) ([]*rule.AttrFile, error) {
	if sess != nil {
		if cached, ok := sess.Lookup(queryPath, flags); ok {
			return cached, nil
		}
	}

	out, err := c.collect(ctx, flags, queryPath, sess)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		sess.Remember(queryPath, flags, out)
	}
	return out, nil
}

func (c *Collector) collect(ctx context.Context, flags attrtypes.Flags, queryPath string, sess *session.Session) ([]*rule.AttrFile, error) {
	var out []*rule.AttrFile

	add := func(af *rule.AttrFile, err error) error {
		if err == attrtypes.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		out = append(out, af)
		return nil
	}

	checkCancel := func() error {
		select {
		case <-ctx.Done():
			return attrtypes.ErrCancelled
		default:
			return nil
		}
	}

	// 1. $GIT_DIR/info/attributes — single file, trusted for macros.
	if err := checkCancel(); err != nil {
		return nil, err
	}
	if infoDir, err := c.Repo.ItemPath(attrtypes.ItemInfo); err == nil && infoDir != "" {
		src := source.Source{Kind: source.KindFile, BaseDir: infoDir, Filename: "attributes", AllowMacros: true}
		af, gerr := c.Cache.Get(src, "", c.Collab)
		if gerr != nil && gerr != attrtypes.ErrNotFound {
			return nil, gerr
		}
		if err := add(af, gerr); err != nil {
			return nil, err
		}
	}

	// 2. Per-directory files, query directory upward to the work-tree
	// root. The ancestor list is derived purely from queryPath, so it's
	// available whether or not the repository has a working tree at all
	// (spec.md §8: "Bare repository: working-tree sources contribute
	// nothing; index/HEAD sources still work."). collectDirLevel is the
	// one that decides, source by source, whether a bare repo can
	// actually serve it.
	root := c.Repo.Workdir()
	dir := path.Dir(path.Clean("/" + strings.TrimPrefix(queryPath, "/")))
	dir = strings.TrimPrefix(dir, "/")

	var dirs []string
	c.Walker.WalkUp(dir, "", func(d string) bool {
		dirs = append(dirs, d)
		return true
	})

	for _, d := range dirs {
		if err := checkCancel(); err != nil {
			return nil, err
		}
		afs, err := c.collectDirLevel(d, root, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, afs...)
	}

	// 3. The configured extra file.
	if err := checkCancel(); err != nil {
		return nil, err
	}
	if extra := c.Repo.AttributesExtraPath(); extra != "" {
		dir, file := splitDirFile(extra)
		src := source.Source{Kind: source.KindFile, BaseDir: dir, Filename: file, AllowMacros: true}
		af, gerr := c.Cache.Get(src, "", c.Collab)
		if gerr != nil && gerr != attrtypes.ErrNotFound {
			return nil, gerr
		}
		if err := add(af, gerr); err != nil {
			return nil, err
		}
	}

	// 4. The system file, unless NoSystem is set.
	if !flags.Has(attrtypes.NoSystem) {
		if err := checkCancel(); err != nil {
			return nil, err
		}
		sysPath := c.Repo.SystemAttributesPath()
		if sess != nil {
			sysPath = sess.SystemPath(c.Repo.SystemAttributesPath)
		}
		if sysPath != "" {
			dir, file := splitDirFile(sysPath)
			src := source.Source{Kind: source.KindFile, BaseDir: dir, Filename: file, AllowMacros: true}
			af, gerr := c.Cache.Get(src, "", c.Collab)
			if gerr != nil && gerr != attrtypes.ErrNotFound {
				return nil, gerr
			}
			if err := add(af, gerr); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// collectDirLevel loads the attribute file(s) at one ancestor directory,
// honoring the FILE_THEN_INDEX / INDEX_THEN_FILE / INDEX_ONLY /
// INCLUDE_HEAD backend order from spec.md §4.4's table.
func (c *Collector) collectDirLevel(dir, root string, flags attrtypes.Flags) ([]*rule.AttrFile, error) {
	var out []*rule.AttrFile
	bare := c.Repo.IsBare()
	absDir := joinRepoPath(root, dir)
	allowMacros := dir == "" // the top-of-worktree file is trusted for macros

	appendIfPresent := func(src source.Source, parseDir string) error {
		af, err := c.Cache.Get(src, parseDir, c.Collab)
		if err == attrtypes.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		out = append(out, af)
		return nil
	}

	indexPath := joinRepoPath(dir, attributesFilename)
	indexSrc := source.Source{Kind: source.KindIndex, Filename: indexPath, AllowMacros: false}

	// readWorkingTree is a no-op on a bare repository: there is no work
	// tree to read a .gitattributes file out of (spec.md §8).
	readWorkingTree := func() error {
		if bare {
			return nil
		}
		fileSrc := source.Source{Kind: source.KindFile, BaseDir: absDir, Filename: attributesFilename, AllowMacros: allowMacros}
		return appendIfPresent(fileSrc, dir)
	}

	switch flags.SourceOrder() {
	case attrtypes.IndexOnly:
		if err := appendIfPresent(indexSrc, dir); err != nil {
			return nil, err
		}
	case attrtypes.IndexThenFile:
		if err := appendIfPresent(indexSrc, dir); err != nil {
			return nil, err
		}
		if err := readWorkingTree(); err != nil {
			return nil, err
		}
	default: // FileThenIndex
		if err := readWorkingTree(); err != nil {
			return nil, err
		}
		if err := appendIfPresent(indexSrc, dir); err != nil {
			return nil, err
		}
	}

	if flags.Has(attrtypes.IncludeHead) {
		headSrc := source.Source{Kind: source.KindCommit, Filename: indexPath, Commit: "", AllowMacros: false}
		if err := appendIfPresent(headSrc, dir); err != nil {
			return nil, err
		}
	}

	if flags.Has(attrtypes.IncludeCommit) && c.ExtraCommit != "" {
		commitSrc := source.Source{Kind: source.KindCommit, Filename: indexPath, Commit: c.ExtraCommit, AllowMacros: false}
		if err := appendIfPresent(commitSrc, dir); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func splitDirFile(p string) (dir, file string) {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "", p
	}
	return p[:idx], p[idx+1:]
}

func joinRepoPath(root, rel string) string {
	if rel == "" {
		return root
	}
	if root == "" {
		return rel
	}
	return strings.TrimSuffix(root, "/") + "/" + rel
}
