package resolver

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"attrcore/internal/attrcache"
	"attrcore/internal/attrtypes"
	"attrcore/internal/collector"
	"attrcore/internal/source"
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

func (idx *fakeIndex) ReadEntry(filename string) ([]byte, attrtypes.ObjectID, error) {
	data, ok := idx.entries[filename]
	if !ok {
		return nil, "", attrtypes.ErrNotFound
	}
	return data, attrtypes.ObjectID("oid:" + filename), nil
}

type fakeRepo struct {
	workdir string
	index   *fakeIndex
}

func (r *fakeRepo) Workdir() string        { return r.workdir }
func (r *fakeRepo) IsBare() bool           { return false }
func (r *fakeRepo) Index() attrtypes.Index { return r.index }
func (r *fakeRepo) CommitTreeEntry(attrtypes.CommitID, string) ([]byte, attrtypes.ObjectID, error) {
	return nil, "", attrtypes.ErrNotFound
}
func (r *fakeRepo) ItemPath(attrtypes.ItemKind) (string, error) { return "", nil }
func (r *fakeRepo) AttributesExtraPath() string                 { return "" }
func (r *fakeRepo) SystemAttributesPath() string                { return "" }
func (r *fakeRepo) IgnoreCase() bool                             { return false }

func newResolver(files map[string][]byte) *Resolver {
	fsys := &fakeFS{files: files}
	repo := &fakeRepo{workdir: "/repo", index: &fakeIndex{entries: map[string][]byte{}}}
	c := attrcache.New()
	return &Resolver{
		Cache: c,
		Collector: &collector.Collector{
			Cache:  c,
			Repo:   repo,
			Walker: collector.DefaultWalker{},
			Collab: source.Collaborators{FS: fsys, Repo: repo},
		},
	}
}

// Scenario 1 (spec.md §8): /.gitattributes = "*.c diff=cpp text".
func TestScenario1(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("*.c diff=cpp text\n"),
	})
	got, err := r.GetMany(context.Background(), nil, attrtypes.FileThenIndex, "src/a.c", []string{"diff", "text", "binary"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Kind != attrtypes.String || got[0].Str != "cpp" {
		t.Errorf("diff = %+v", got[0])
	}
	if got[1].Kind != attrtypes.True {
		t.Errorf("text = %+v", got[1])
	}
	if got[2].Kind != attrtypes.Unspecified {
		t.Errorf("binary = %+v", got[2])
	}
}

// Scenario 2: /.gitattributes="* text", /src/.gitattributes="*.bin -text".
func TestScenario2(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes":     []byte("* text\n"),
		"/repo/src/.gitattributes": []byte("*.bin -text\n"),
	})
	v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "src/x.bin", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.False {
		t.Errorf("src/x.bin text = %+v, want FALSE", v)
	}

	v, err = r.Get(context.Background(), nil, attrtypes.FileThenIndex, "src/x.c", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.True {
		t.Errorf("src/x.c text = %+v, want TRUE", v)
	}
}

// Scenario 3: macro expansion.
func TestScenario3(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("[attr]binary -text -diff\n*.png binary\n"),
	})
	for _, tt := range []struct {
		attr string
		want attrtypes.ValueKind
	}{
		{"text", attrtypes.False},
		{"diff", attrtypes.False},
		{"binary", attrtypes.True},
	} {
		v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "a.png", tt.attr)
		if err != nil {
			t.Fatal(err)
		}
		if v.Kind != tt.want {
			t.Errorf("%s = %+v, want kind %v", tt.attr, v, tt.want)
		}
	}
}

// Scenario 4: a macro defined in a nested (non-root) .gitattributes is
// ignored.
func TestScenario4(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/src/.gitattributes": []byte("[attr]binary -text -diff\n*.png binary\n"),
	})
	v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "src/a.png", "binary")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.True {
		t.Errorf("binary = %+v, want TRUE (plain assignment, not macro)", v)
	}
	// Since the macro registration was discarded, "text"/"diff" must not
	// have been expanded from it.
	v, err = r.Get(context.Background(), nil, attrtypes.FileThenIndex, "src/a.png", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.Unspecified {
		t.Errorf("text = %+v, want UNSPECIFIED", v)
	}
}

// Scenario 5: INDEX_ONLY with no index entry yields UNSPECIFIED even if a
// working-tree file exists.
func TestScenario5(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("* text\n"),
	})
	v, err := r.Get(context.Background(), nil, attrtypes.IndexOnly, "a.c", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.Unspecified {
		t.Errorf("text = %+v, want UNSPECIFIED under INDEX_ONLY", v)
	}
}

// Scenario 6: a negated rule makes no positive assignment.
func TestScenario6(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("!*.log text\n"),
	})
	v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "a.log", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.Unspecified {
		t.Errorf("text = %+v, want UNSPECIFIED", v)
	}
}

func TestEmptyPathReturnsUnspecified(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("* text\n"),
	})
	v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "", "text")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != attrtypes.Unspecified {
		t.Errorf("text = %+v, want UNSPECIFIED for an empty path", v)
	}
}

func TestGetManyAgreesWithGet(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("*.c diff=cpp text\n"),
	})
	names := []string{"diff", "text", "binary"}
	many, err := r.GetMany(context.Background(), nil, attrtypes.FileThenIndex, "a.c", names)
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range names {
		single, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "a.c", n)
		if err != nil {
			t.Fatal(err)
		}
		if single != many[i] {
			t.Errorf("GetMany[%d]=%+v != Get(%q)=%+v", i, many[i], n, single)
		}
	}
}

func TestForEachMatchesGetForFirstSeen(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes":     []byte("*.c text diff=root\n"),
		"/repo/src/.gitattributes": []byte("*.c diff=sub\n"),
	})
	seen := map[string]attrtypes.Value{}
	err := r.ForEach(context.Background(), nil, attrtypes.FileThenIndex, "src/a.c", func(name string, v attrtypes.Value) error {
		if _, ok := seen[name]; !ok {
			seen[name] = v
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := r.Get(context.Background(), nil, attrtypes.FileThenIndex, "src/a.c", "diff")
	if err != nil {
		t.Fatal(err)
	}
	if seen["diff"] != v {
		t.Errorf("ForEach diff = %+v, Get diff = %+v", seen["diff"], v)
	}
}

func TestForEachCallbackAbort(t *testing.T) {
	r := newResolver(map[string][]byte{
		"/repo/.gitattributes": []byte("*.c text diff=cpp\n"),
	})
	sentinel := context.Canceled
	err := r.ForEach(context.Background(), nil, attrtypes.FileThenIndex, "a.c", func(name string, v attrtypes.Value) error {
		return sentinel
	})
	var aborted *attrtypes.CallbackAbortedError
	if err == nil {
		t.Fatal("expected an error")
	}
	if !asCallbackAborted(err, &aborted) {
		t.Fatalf("expected CallbackAbortedError, got %T: %v", err, err)
	}
}

func asCallbackAborted(err error, target **attrtypes.CallbackAbortedError) bool {
	if e, ok := err.(*attrtypes.CallbackAbortedError); ok {
		*target = e
		return true
	}
	return false
}
