package attrcore

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"attrcore/internal/attrtypes"
)

type fakeFS struct{ files map[string][]byte }

func (f *fakeFS) Stat(path string) (fs.FileInfo, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return fakeInfo{size: int64(len(data))}, nil
}

func (f *fakeFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

type fakeInfo struct{ size int64 }

func (i fakeInfo) Name() string       { return "" }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) Mode() fs.FileMode  { return 0644 }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return false }
func (i fakeInfo) Sys() any           { return nil }

type fakeIndex struct{ entries map[string][]byte }

func (idx *fakeIndex) ReadEntry(filename string) ([]byte, ObjectID, error) {
	data, ok := idx.entries[filename]
	if !ok {
		return nil, "", ErrNotFound
	}
	return data, ObjectID("oid:" + filename), nil
}

type fakeRepo struct {
	workdir string
	index   *fakeIndex
}

func (r *fakeRepo) Workdir() string { return r.workdir }
func (r *fakeRepo) IsBare() bool    { return false }
func (r *fakeRepo) Index() Index    { return r.index }
func (r *fakeRepo) CommitTreeEntry(CommitID, string) ([]byte, ObjectID, error) {
	return nil, "", ErrNotFound
}
func (r *fakeRepo) ItemPath(kind attrtypes.ItemKind) (string, error) { return "", nil }
func (r *fakeRepo) AttributesExtraPath() string                      { return "" }
func (r *fakeRepo) SystemAttributesPath() string                     { return "" }
func (r *fakeRepo) IgnoreCase() bool                                 { return false }

func TestEngineGetResolvesAttribute(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{
		"/repo/.gitattributes": []byte("*.c diff=cpp text\n"),
	}}
	repo := &fakeRepo{workdir: "/repo", index: &fakeIndex{entries: map[string][]byte{}}}
	e := New(Collaborators{Repo: repo, FS: fsys})

	v, err := e.Get(context.Background(), FileThenIndex, "a.c", "diff")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != String || v.Str != "cpp" {
		t.Errorf("diff = %+v", v)
	}
}

func TestEngineAddMacroThenGet(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{
		"/repo/.gitattributes": []byte("*.png binary\n"),
	}}
	repo := &fakeRepo{workdir: "/repo", index: &fakeIndex{entries: map[string][]byte{}}}
	e := New(Collaborators{Repo: repo, FS: fsys})
	e.AddMacro("binary", []Assignment{
		{Name: "text", Value: Value{Kind: False}},
		{Name: "diff", Value: Value{Kind: False}},
	})

	v, err := e.Get(context.Background(), FileThenIndex, "a.png", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != False {
		t.Errorf("text = %+v, want FALSE via registered macro", v)
	}
}

func TestEngineCacheFlushForcesReparse(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{
		"/repo/.gitattributes": []byte("*.c text\n"),
	}}
	repo := &fakeRepo{workdir: "/repo", index: &fakeIndex{entries: map[string][]byte{}}}
	e := New(Collaborators{Repo: repo, FS: fsys})

	if _, err := e.Get(context.Background(), FileThenIndex, "a.c", "text"); err != nil {
		t.Fatal(err)
	}

	fsys.files["/repo/.gitattributes"] = []byte("*.c -text\n")
	e.CacheFlush()

	v, err := e.Get(context.Background(), FileThenIndex, "a.c", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != False {
		t.Errorf("text = %+v, want FALSE after flush + edit", v)
	}
}
