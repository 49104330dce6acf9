package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mirelh/laguz/internal/apperr"
)

// FS implements Directory backed by the local file system.
type FS struct {
	path string // absolute path of this directory
}

// NewFS creates a file-system root at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", mapOSError(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{path: abs}, nil
}

// safeName rejects names that would escape the directory. Entries are
// addressed one level at a time, so separators are never legal.
func safeName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("storage: invalid entry name: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("storage: entry name contains separator: %q", name)
	}
	return nil
}

func mapOSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return apperr.ErrPermissionDenied
	default:
		return err
	}
}

// Entries lists immediate children of the directory.
func (d *FS) Entries() ([]DirEntry, error) {
	items, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir: %w", mapOSError(err))
	}
	out := make([]DirEntry, 0, len(items))
	for _, it := range items {
		kind := KindFile
		if it.IsDir() {
			kind = KindDir
		}
		out = append(out, DirEntry{Name: it.Name(), Kind: kind})
	}
	return out, nil
}

// File returns a handle to a child file.
func (d *FS) File(name string, create bool) (File, error) {
	if err := safeName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(d.path, name)
	info, err := os.Stat(p)
	switch {
	case err == nil:
		if info.IsDir() {
			return nil, fmt.Errorf("storage: %s is a directory", name)
		}
	case errors.Is(err, fs.ErrNotExist):
		if !create {
			return nil, fmt.Errorf("storage: file %s: %w", name, apperr.ErrNotFound)
		}
		f, createErr := os.OpenFile(p, os.O_CREATE|os.O_WRONLY, 0o644)
		if createErr != nil {
			return nil, fmt.Errorf("storage: create %s: %w", name, mapOSError(createErr))
		}
		_ = f.Close()
	default:
		return nil, fmt.Errorf("storage: stat %s: %w", name, mapOSError(err))
	}
	return &fsFile{path: p}, nil
}

// Subdir returns a handle to a child directory.
func (d *FS) Subdir(name string, create bool) (Directory, error) {
	if err := safeName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(d.path, name)
	info, err := os.Stat(p)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("storage: %s is not a directory", name)
		}
	case errors.Is(err, fs.ErrNotExist):
		if !create {
			return nil, fmt.Errorf("storage: dir %s: %w", name, apperr.ErrNotFound)
		}
		if mkErr := os.Mkdir(p, 0o755); mkErr != nil {
			return nil, fmt.Errorf("storage: mkdir %s: %w", name, mapOSError(mkErr))
		}
	default:
		return nil, fmt.Errorf("storage: stat %s: %w", name, mapOSError(err))
	}
	return &FS{path: p}, nil
}

// Remove deletes a child entry.
func (d *FS) Remove(name string, recursive bool) error {
	if err := safeName(name); err != nil {
		return err
	}
	p := filepath.Join(d.path, name)
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("storage: remove %s: %w", name, mapOSError(err))
	}
	if recursive {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("storage: remove %s: %w", name, mapOSError(err))
		}
		return nil
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("storage: remove %s: %w", name, mapOSError(err))
	}
	return nil
}

// Move relocates a child entry under target. The target must be another
// file-system directory; anything else is an unsupported capability.
func (d *FS) Move(name string, target Directory) error {
	if err := safeName(name); err != nil {
		return err
	}
	dst, ok := target.(*FS)
	if !ok {
		return apperr.ErrUnsupportedMove
	}
	src := filepath.Join(d.path, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("storage: move %s: %w", name, mapOSError(err))
	}
	if err := os.Rename(src, filepath.Join(dst.path, name)); err != nil {
		return fmt.Errorf("storage: move %s: %w", name, mapOSError(err))
	}
	return nil
}

// Usage reports the total size of the subtree. Quota is zero (unknown)
// for plain file systems.
func (d *FS) Usage() (Usage, error) {
	var used int64
	err := filepath.WalkDir(d.path, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}
		used += info.Size()
		return nil
	})
	if err != nil {
		return Usage{}, fmt.Errorf("storage: usage: %w", mapOSError(err))
	}
	return Usage{Used: used}, nil
}

type fsFile struct {
	path string
}

func (f *fsFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", filepath.Base(f.path), mapOSError(err))
	}
	return data, nil
}

// Write atomically replaces contents: tmp file → fsync → rename.
func (f *fsFile) Write(content []byte) error {
	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, ".laguz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", mapOSError(err))
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

func (f *fsFile) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0, fmt.Errorf("storage: stat %s: %w", filepath.Base(f.path), mapOSError(err))
	}
	return info.Size(), nil
}
