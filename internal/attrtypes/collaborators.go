package attrtypes

import (
	"io/fs"
	"time"
)

// ItemKind names a well-known per-repository item path, as requested via
// Repository.ItemPath.
type ItemKind uint8

const (
	ItemInfo ItemKind = iota // $GIT_DIR/info
)

// Repository is the external collaborator that knows how to locate a
// repository's moving parts. The attribute engine only ever reads through
// it; spec.md §1 keeps the object model itself out of scope.
type Repository interface {
	// Workdir returns the work-tree root, or "" for a bare repository.
	Workdir() string

	// IsBare reports whether the repository has no working tree.
	IsBare() bool

	// Index returns the current index, used to read blobs for
	// IndexThenFile/FileThenIndex/IndexOnly lookups.
	Index() Index

	// CommitTreeEntry reads filename's blob from the given commit's tree.
	// commit == "" means HEAD. Returns ErrNotFound if the commit has no
	// such path.
	CommitTreeEntry(commit CommitID, filename string) ([]byte, ObjectID, error)

	// ItemPath resolves a well-known per-repository item, e.g. the
	// $GIT_DIR/info directory used for info/attributes.
	ItemPath(kind ItemKind) (string, error)

	// AttributesExtraPath returns the configured extra attributes file
	// path (the core.attributesfile analogue), or "" if unset.
	AttributesExtraPath() string

	// SystemAttributesPath returns the system-wide attributes file path.
	SystemAttributesPath() string

	// IgnoreCase reports the filesystem's case-sensitivity policy.
	IgnoreCase() bool
}

// Index is the subset of the repository index the engine needs: reading a
// tracked path's blob by name.
type Index interface {
	// ReadEntry returns the blob content and object id for filename, or
	// ErrNotFound if filename is not in the index.
	ReadEntry(filename string) ([]byte, ObjectID, error)
}

// ObjectID is an opaque object database identifier (e.g. a Git blob SHA),
// compared for equality to detect content change without re-reading bytes.
type ObjectID string

// ObjectDB reads blob content directly by object id.
type ObjectDB interface {
	ReadBlob(id ObjectID) ([]byte, error)
}

// FileSystem is the external collaborator for plain filesystem reads.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// FileSignature is the (size, mtime, inode-ish, mode) tuple used to detect
// filesystem file changes cheaply. On platforms without inode numbers
// (e.g. via os.FileInfo alone) Inode is left zero, which only weakens
// change detection to size+mtime+mode — still sufficient in practice.
type FileSignature struct {
	Size  int64
	MTime time.Time
	Inode uint64
	Mode  fs.FileMode
}

// Equal reports whether two signatures describe the same file state.
func (s FileSignature) Equal(o FileSignature) bool {
	return s.Size == o.Size && s.MTime.Equal(o.MTime) && s.Inode == o.Inode && s.Mode == o.Mode
}

// PathWalker yields each ancestor directory of start, inclusive of start
// and exclusive of root's parent, stopping the walk early if fn returns
// false.
type PathWalker interface {
	WalkUp(start, root string, fn func(dir string) bool)
}
