package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mirelh/laguz/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	d := tempRoot(t)
	f, err := d.File("note1", true)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	content := []byte("<p>Hello</p>")
	if err := f.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestFileNotFoundWithoutCreate(t *testing.T) {
	d := tempRoot(t)
	_, err := d.File("missing", false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubdirCreateAndReopen(t *testing.T) {
	d := tempRoot(t)
	sub, err := d.Subdir("folder1", true)
	if err != nil {
		t.Fatalf("Subdir create: %v", err)
	}
	f, err := sub.File("child", true)
	if err != nil {
		t.Fatalf("File in subdir: %v", err)
	}
	_ = f.Write([]byte("deep"))

	again, err := d.Subdir("folder1", false)
	if err != nil {
		t.Fatalf("Subdir reopen: %v", err)
	}
	got, err := again.File("child", false)
	if err != nil {
		t.Fatalf("File reopen: %v", err)
	}
	data, _ := got.Read()
	if string(data) != "deep" {
		t.Errorf("content = %q", data)
	}
}

func TestSubdirNotFoundWithoutCreate(t *testing.T) {
	d := tempRoot(t)
	_, err := d.Subdir("missing", false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEntries(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("a", true)
	_ = f.Write([]byte("a"))
	_, _ = d.Subdir("b", true)

	items, err := d.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	kinds := map[string]Kind{}
	for _, it := range items {
		kinds[it.Name] = it.Kind
	}
	if kinds["a"] != KindFile {
		t.Errorf("a kind = %v, want file", kinds["a"])
	}
	if kinds["b"] != KindDir {
		t.Errorf("b kind = %v, want dir", kinds["b"])
	}
}

func TestRemove(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("del", true)
	_ = f.Write([]byte("bye"))
	if err := d.Remove("del", false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := d.File("del", false); err == nil {
		t.Error("expected error opening removed file")
	}
}

func TestRemoveRecursive(t *testing.T) {
	d := tempRoot(t)
	sub, _ := d.Subdir("tree", true)
	f, _ := sub.File("leaf", true)
	_ = f.Write([]byte("x"))

	if err := d.Remove("tree", true); err != nil {
		t.Fatalf("Remove recursive: %v", err)
	}
	if _, err := d.Subdir("tree", false); err == nil {
		t.Error("expected error opening removed dir")
	}
}

func TestMoveIntoSibling(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("note1", true)
	_ = f.Write([]byte("data"))
	target, _ := d.Subdir("folder1", true)

	if err := d.Move("note1", target); err != nil {
		t.Fatalf("Move: %v", err)
	}
	moved, err := target.File("note1", false)
	if err != nil {
		t.Fatalf("File after move: %v", err)
	}
	got, _ := moved.Read()
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := d.File("note1", false); err == nil {
		t.Error("source should not exist after move")
	}
}

func TestMoveDirectoryCarriesSubtree(t *testing.T) {
	d := tempRoot(t)
	src, _ := d.Subdir("folderA", true)
	f, _ := src.File("inner", true)
	_ = f.Write([]byte("carried"))
	target, _ := d.Subdir("folderB", true)

	if err := d.Move("folderA", target); err != nil {
		t.Fatalf("Move dir: %v", err)
	}
	moved, err := target.Subdir("folderA", false)
	if err != nil {
		t.Fatalf("Subdir after move: %v", err)
	}
	inner, err := moved.File("inner", false)
	if err != nil {
		t.Fatalf("File after move: %v", err)
	}
	got, _ := inner.Read()
	if string(got) != "carried" {
		t.Errorf("content = %q", got)
	}
}

type fakeDir struct{ Directory }

func TestMoveUnsupportedTarget(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("note1", true)
	_ = f.Write([]byte("x"))

	err := d.Move("note1", fakeDir{})
	if !errors.Is(err, apperr.ErrUnsupportedMove) {
		t.Errorf("err = %v, want ErrUnsupportedMove", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	d := tempRoot(t)

	cases := []string{
		"",
		".",
		"..",
		"../outside",
		"a/b",
		`a\b`,
	}
	for _, name := range cases {
		if _, err := d.File(name, true); err == nil {
			t.Errorf("File(%q) should fail", name)
		}
		if _, err := d.Subdir(name, true); err == nil {
			t.Errorf("Subdir(%q) should fail", name)
		}
		if err := d.Remove(name, true); err == nil {
			t.Errorf("Remove(%q) should fail", name)
		}
	}
}

func TestAtomicWriteNoLeftoverTemp(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("atomic", true)
	_ = f.Write([]byte("original content"))

	if err := f.Write([]byte("updated content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := f.Read()
	if string(got) != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(d.path, ".laguz-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestUsage(t *testing.T) {
	d := tempRoot(t)
	f, _ := d.File("a", true)
	_ = f.Write([]byte("12345"))
	sub, _ := d.Subdir("s", true)
	g, _ := sub.File("b", true)
	_ = g.Write([]byte("123"))

	u, err := d.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Used != 8 {
		t.Errorf("Used = %d, want 8", u.Used)
	}
	if u.Quota != 0 {
		t.Errorf("Quota = %d, want 0", u.Quota)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/laguz-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "laguz-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
