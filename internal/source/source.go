// Package source defines the tagged Source variant identifying where an
// AttrFile comes from (spec.md §3), and the signature/byte-loading logic
// for each of its four shapes.
package source

import (
	"errors"
	"fmt"
	"os"

	"attrcore/internal/attrtypes"
)

// Kind tags which of the four Source shapes a value carries.
type Kind uint8

const (
	// KindFile is a filesystem file at BaseDir/Filename.
	KindFile Kind = iota
	// KindIndex is a blob in the current index at path Filename.
	KindIndex
	// KindCommit is a blob at Filename in the named Commit (commonly HEAD).
	KindCommit
	// KindMemory is an in-memory buffer, used for tests and macros.
	KindMemory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindIndex:
		return "index"
	case KindCommit:
		return "commit"
	case KindMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Source is the tagged handle identifying where an AttrFile was loaded
// from. Its Fingerprint keys the Cache.
type Source struct {
	Kind     Kind
	BaseDir  string             // KindFile only
	Filename string             // KindFile, KindIndex, KindCommit
	Commit   attrtypes.CommitID // KindCommit only ("" means HEAD)
	Memory   []byte             // KindMemory only

	// AllowMacros records whether this source is trusted to define
	// macros (spec.md §4.3): true only for the system file, the
	// configured extra file, $GIT_DIR/info, and the top-of-worktree file.
	AllowMacros bool
}

// Fingerprint is the cache key: (tag, base_dir, filename, commit-id-or-none).
func (s Source) Fingerprint() string {
	switch s.Kind {
	case KindFile:
		return fmt.Sprintf("file:%s:%s", s.BaseDir, s.Filename)
	case KindIndex:
		return fmt.Sprintf("index:%s", s.Filename)
	case KindCommit:
		return fmt.Sprintf("commit:%s:%s", s.Commit, s.Filename)
	case KindMemory:
		return fmt.Sprintf("memory:%p", &s.Memory)
	default:
		return "unknown"
	}
}

// Signature is the content signature used to detect staleness cheaply.
// Exactly one of FS / Obj is meaningful, selected by the owning Source's
// Kind.
type Signature struct {
	FS  attrtypes.FileSignature // KindFile
	Obj attrtypes.ObjectID      // KindIndex, KindCommit
}

func (s Signature) Equal(o Signature) bool {
	return s.FS.Equal(o.FS) && s.Obj == o.Obj
}

// Collaborators bundles the external collaborators needed to stat and
// read a Source, so Load/Stat don't need a wide parameter list.
type Collaborators struct {
	FS   attrtypes.FileSystem
	Repo attrtypes.Repository
	ODB  attrtypes.ObjectDB
}

// Stat recomputes the current content signature for s without reading the
// full body. It returns attrtypes.ErrNotFound if the source genuinely does
// not exist, and passes through any other error (e.g. attrtypes.ErrIO from
// a collaborator that read far enough to tell the difference) unchanged
// rather than collapsing it, so a real read failure is surfaced instead of
// being treated as absence (spec.md §7).
func Stat(s Source, c Collaborators) (Signature, error) {
	switch s.Kind {
	case KindFile:
		full := s.BaseDir + "/" + s.Filename
		info, err := c.FS.Stat(full)
		if err != nil {
			return Signature{}, classifyFSErr(err)
		}
		sig := attrtypes.FileSignature{
			Size:  info.Size(),
			MTime: info.ModTime(),
			Mode:  info.Mode(),
		}
		if ino, ok := inodeOf(info); ok {
			sig.Inode = ino
		}
		return Signature{FS: sig}, nil
	case KindIndex:
		_, oid, err := c.Repo.Index().ReadEntry(s.Filename)
		if err != nil {
			return Signature{}, err
		}
		return Signature{Obj: oid}, nil
	case KindCommit:
		_, oid, err := c.Repo.CommitTreeEntry(s.Commit, s.Filename)
		if err != nil {
			return Signature{}, err
		}
		return Signature{Obj: oid}, nil
	case KindMemory:
		return Signature{}, nil
	default:
		return Signature{}, attrtypes.ErrInvalidArgument
	}
}

// Load reads the full byte content of s. Like Stat, it returns
// attrtypes.ErrNotFound only for genuine absence and otherwise passes the
// collaborator's error through unchanged.
func Load(s Source, c Collaborators) ([]byte, error) {
	switch s.Kind {
	case KindFile:
		full := s.BaseDir + "/" + s.Filename
		data, err := c.FS.ReadFile(full)
		if err != nil {
			return nil, classifyFSErr(err)
		}
		return data, nil
	case KindIndex:
		data, _, err := c.Repo.Index().ReadEntry(s.Filename)
		if err != nil {
			return nil, err
		}
		return data, nil
	case KindCommit:
		data, _, err := c.Repo.CommitTreeEntry(s.Commit, s.Filename)
		if err != nil {
			return nil, err
		}
		return data, nil
	case KindMemory:
		return s.Memory, nil
	default:
		return nil, attrtypes.ErrInvalidArgument
	}
}

// classifyFSErr maps a raw os/io/fs error from attrtypes.FileSystem to the
// attrcore error taxonomy: a genuine not-exist collapses to ErrNotFound,
// anything else (permission denied, a transient read failure, ...) is
// wrapped as ErrIO so it still surfaces as a real failure rather than
// silently reading as absence.
func classifyFSErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return attrtypes.ErrNotFound
	}
	return fmt.Errorf("%w: %v", attrtypes.ErrIO, err)
}
