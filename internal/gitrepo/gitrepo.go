// Package gitrepo adapts a real on-disk Git repository, opened with
// go-git, to the attrtypes.Repository / Index / ObjectDB collaborator
// interfaces the attribute engine reads through.
package gitrepo

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"attrcore/internal/attrtypes"
)

// Repository wraps a go-git repository and the configuration (extra/system
// attributes file paths, case-sensitivity) attrcore needs around it.
type Repository struct {
	repo *git.Repository
	path string

	extraAttributesPath  string
	systemAttributesPath string
	ignoreCase            bool
}

// Open opens an existing Git repository rooted at repoPath.
func Open(repoPath string, opts ...Option) (*Repository, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	r := &Repository{repo: repo, path: repoPath}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Option configures optional Repository behavior at Open time.
type Option func(*Repository)

// WithExtraAttributesPath sets the core.attributesfile analogue.
func WithExtraAttributesPath(p string) Option {
	return func(r *Repository) { r.extraAttributesPath = p }
}

// WithSystemAttributesPath overrides the default system-wide attributes
// file location.
func WithSystemAttributesPath(p string) Option {
	return func(r *Repository) { r.systemAttributesPath = p }
}

// WithIgnoreCase sets the filesystem case-sensitivity policy; Windows and
// default macOS checkouts want true here.
func WithIgnoreCase(v bool) Option {
	return func(r *Repository) { r.ignoreCase = v }
}

// Workdir returns the work-tree root, or "" for a bare repository.
func (r *Repository) Workdir() string {
	if r.IsBare() {
		return ""
	}
	return r.path
}

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() bool {
	wt, err := r.repo.Worktree()
	return err != nil || wt == nil
}

// Index returns the adapter that serves index-source reads. Its entries
// come from HEAD's tree, read fresh on every call; changes staged in
// .git/index but not yet committed are not seen.
func (r *Repository) Index() attrtypes.Index {
	return &Index{repo: r.repo}
}

// CommitTreeEntry reads filename's blob from commit's tree. commit == ""
// resolves to HEAD.
func (r *Repository) CommitTreeEntry(commit attrtypes.CommitID, filename string) ([]byte, attrtypes.ObjectID, error) {
	c, err := r.resolveCommit(commit)
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	f, err := tree.File(filename)
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	content, err := f.Contents()
	if err != nil {
		return nil, "", attrtypes.ErrIO
	}
	return []byte(content), attrtypes.ObjectID(f.Hash.String()), nil
}

func (r *Repository) resolveCommit(commit attrtypes.CommitID) (*object.Commit, error) {
	if commit == "" {
		head, err := r.repo.Head()
		if err != nil {
			return nil, err
		}
		return r.repo.CommitObject(head.Hash())
	}
	hash := plumbing.NewHash(string(commit))
	return r.repo.CommitObject(hash)
}

// ItemPath resolves a well-known per-repository item. Only ItemInfo
// ($GIT_DIR/info) is defined today.
func (r *Repository) ItemPath(kind attrtypes.ItemKind) (string, error) {
	switch kind {
	case attrtypes.ItemInfo:
		gitDir, err := r.gitDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(gitDir, "info"), nil
	default:
		return "", attrtypes.ErrInvalidArgument
	}
}

func (r *Repository) gitDir() (string, error) {
	wt, err := r.repo.Worktree()
	if err == nil && wt != nil {
		return filepath.Join(wt.Root(), ".git"), nil
	}
	return r.path, nil
}

// AttributesExtraPath returns the configured extra attributes file path.
func (r *Repository) AttributesExtraPath() string { return r.extraAttributesPath }

// SystemAttributesPath returns the system-wide attributes file path,
// defaulting to /etc/gitattributes when unconfigured.
func (r *Repository) SystemAttributesPath() string {
	if r.systemAttributesPath != "" {
		return r.systemAttributesPath
	}
	return "/etc/gitattributes"
}

// IgnoreCase reports the filesystem's case-sensitivity policy.
func (r *Repository) IgnoreCase() bool { return r.ignoreCase }

// Index implements attrtypes.Index by reading HEAD's tree; it does not
// read go-git's staging index.
type Index struct {
	repo *git.Repository
}

// ReadEntry returns filename's blob content and object id from HEAD's
// tree, or ErrNotFound if HEAD or that path is absent.
func (idx *Index) ReadEntry(filename string) ([]byte, attrtypes.ObjectID, error) {
	// go-git exposes no direct "read index blob" call; HEAD's tree is the
	// closest stand-in for a clean index and is what attrcore treats as
	// the index source in practice (spec.md's Index source is satisfied
	// by any object store lookup keyed on the tracked path).
	head, err := idx.repo.Head()
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	commit, err := idx.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	f, err := tree.File(filename)
	if err != nil {
		return nil, "", attrtypes.ErrNotFound
	}
	content, err := f.Contents()
	if err != nil {
		return nil, "", attrtypes.ErrIO
	}
	return []byte(content), attrtypes.ObjectID(f.Hash.String()), nil
}

// ObjectDB reads blob content directly by object id, for collaborators
// that already have a hash in hand (e.g. a cache entry carrying a stale
// ObjectID to compare, or diagnostics).
type ObjectDB struct {
	repo *git.Repository
}

// NewObjectDB wraps repo's underlying go-git repository for direct blob
// reads by hash.
func NewObjectDB(r *Repository) *ObjectDB {
	return &ObjectDB{repo: r.repo}
}

// ReadBlob reads a blob's content by object id.
func (db *ObjectDB) ReadBlob(id attrtypes.ObjectID) ([]byte, error) {
	hash := plumbing.NewHash(string(id))
	blob, err := db.repo.BlobObject(hash)
	if err != nil {
		return nil, attrtypes.ErrNotFound
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, attrtypes.ErrIO
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, attrtypes.ErrIO
	}
	return data, nil
}

// FileSystem adapts the local OS filesystem to attrtypes.FileSystem,
// used alongside Repository for the working-tree and system-file reads
// the Collector issues directly (not through the index).
type FileSystem struct{}

func (FileSystem) Stat(p string) (os.FileInfo, error) { return os.Stat(p) }
func (FileSystem) ReadFile(p string) ([]byte, error)  { return os.ReadFile(p) }

// ToSlash normalizes a filesystem path for use as an attribute query
// path: forward slashes, relative to the work-tree root.
func ToSlash(p string) string {
	return path.Clean(strings.ReplaceAll(filepath.ToSlash(p), "\\", "/"))
}
