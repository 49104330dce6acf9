// Package transfer serializes vault subtrees into zip archives and back.
// The archive layout mirrors the live tree exactly: every directory is a
// folder entry, every note a file entry named by its id, and every
// metadata sidecar is included verbatim, so export and import are
// symmetric.
package transfer

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/mirelh/laguz/internal/noteindex"
	"github.com/mirelh/laguz/internal/storage"
)

// ZipDirectory recursively writes the subtree of dir into zw, rooted at
// prefix ("" for the archive root).
func ZipDirectory(dir storage.Directory, zw *zip.Writer, prefix string) error {
	entries, err := dir.Entries()
	if err != nil {
		return fmt.Errorf("transfer: list %q: %w", prefix, err)
	}
	for _, e := range entries {
		name := path.Join(prefix, e.Name)
		if e.Kind == storage.KindDir {
			if _, err := zw.Create(name + "/"); err != nil {
				return fmt.Errorf("transfer: folder entry %q: %w", name, err)
			}
			sub, err := dir.Subdir(e.Name, false)
			if err != nil {
				return err
			}
			if err := ZipDirectory(sub, zw, name); err != nil {
				return err
			}
			continue
		}
		f, err := dir.File(e.Name, false)
		if err != nil {
			return err
		}
		data, err := f.Read()
		if err != nil {
			return err
		}
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("transfer: file entry %q: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("transfer: write entry %q: %w", name, err)
		}
	}
	return nil
}

// directChildren returns the archive entries immediately under base.
// Zip archives store paths flat, so children are filtered by prefix.
func directChildren(zr *zip.Reader, base string) []*zip.File {
	prefix := ""
	if base != "" {
		prefix = base + "/"
	}
	var out []*zip.File
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(f.Name, prefix)
		rel = strings.TrimSuffix(rel, "/")
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		out = append(out, f)
	}
	return out
}

func entryName(f *zip.File, base string) string {
	prefix := ""
	if base != "" {
		prefix = base + "/"
	}
	return strings.TrimSuffix(strings.TrimPrefix(f.Name, prefix), "/")
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("transfer: open entry %q: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("transfer: read entry %q: %w", f.Name, err)
	}
	return data, nil
}

// Unzip extracts the archive subtree under base into target, recursing
// into folder entries. Entries whose name is in skip are omitted at every
// level.
func Unzip(zr *zip.Reader, target storage.Directory, base string, skip map[string]struct{}) error {
	for _, f := range directChildren(zr, base) {
		name := entryName(f, base)
		if _, skipped := skip[name]; skipped {
			continue
		}
		if f.FileInfo().IsDir() {
			sub, err := target.Subdir(name, true)
			if err != nil {
				return err
			}
			if err := Unzip(zr, sub, path.Join(base, name), skip); err != nil {
				return err
			}
			continue
		}
		data, err := readAll(f)
		if err != nil {
			return err
		}
		dst, err := target.File(name, true)
		if err != nil {
			return err
		}
		if err := dst.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// MergeImport extracts the archive subtree under base into target like
// Unzip, but metadata sidecars are shallow-merged into any existing local
// sidecar (incoming wins per id) instead of overwritten wholesale.
func MergeImport(zr *zip.Reader, target storage.Directory, base string) error {
	for _, f := range directChildren(zr, base) {
		name := entryName(f, base)
		switch {
		case f.FileInfo().IsDir():
			sub, err := target.Subdir(name, true)
			if err != nil {
				return err
			}
			if err := MergeImport(zr, sub, path.Join(base, name)); err != nil {
				return err
			}

		case name == noteindex.FileName:
			data, err := readAll(f)
			if err != nil {
				return err
			}
			if err := mergeSidecar(target, data); err != nil {
				return err
			}

		default:
			data, err := readAll(f)
			if err != nil {
				return err
			}
			dst, err := target.File(name, true)
			if err != nil {
				return err
			}
			if err := dst.Write(data); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeIndex(data []byte) (noteindex.Index, error) {
	var idx noteindex.Index
	if len(data) == 0 {
		return noteindex.Index{}, nil
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	if idx == nil {
		idx = noteindex.Index{}
	}
	return idx, nil
}

func mergeSidecar(target storage.Directory, data []byte) error {
	incoming, err := decodeIndex(data)
	if err != nil {
		return fmt.Errorf("transfer: archive sidecar: %w", err)
	}
	local, err := noteindex.Load(target)
	if err != nil {
		return err
	}
	return noteindex.Save(target, noteindex.Merge(local, incoming))
}
