// Package noteindex reads and writes the per-directory metadata sidecar.
// Every directory of the vault carries one index.json mapping entry id to
// its NoteMeta record; the sidecar is never itself an indexed entry.
package noteindex

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/storage"
)

// FileName is the reserved sidecar name inside every vault directory.
const FileName = "index.json"

// Index maps entry id to its metadata record.
type Index map[string]models.NoteMeta

// Load reads the index of dir, creating an empty sidecar on first use.
// A sidecar that fails to parse is treated as empty: the record set is
// rebuilt by subsequent mutations, and losing a corrupted index must
// never take the directory down with it.
func Load(dir storage.Directory) (Index, error) {
	f, err := dir.File(FileName, true)
	if err != nil {
		return nil, fmt.Errorf("noteindex: open sidecar: %w", err)
	}
	data, err := f.Read()
	if err != nil {
		return nil, fmt.Errorf("noteindex: read sidecar: %w", err)
	}
	if len(data) == 0 {
		return Index{}, nil
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		slog.Warn("noteindex: malformed sidecar, starting empty", slog.String("error", err.Error()))
		return Index{}, nil
	}
	if idx == nil {
		idx = Index{}
	}
	return idx, nil
}

// Save serializes idx and overwrites the sidecar in one atomic write.
func Save(dir storage.Directory, idx Index) error {
	f, err := dir.File(FileName, true)
	if err != nil {
		return fmt.Errorf("noteindex: open sidecar: %w", err)
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("noteindex: marshal: %w", err)
	}
	if err := f.Write(data); err != nil {
		return fmt.Errorf("noteindex: write sidecar: %w", err)
	}
	return nil
}

// Merge unions incoming records into local; incoming wins on id collision.
// Used by merge-import so untouched local entries survive.
func Merge(local, incoming Index) Index {
	out := make(Index, len(local)+len(incoming))
	for id, m := range local {
		out[id] = m
	}
	for id, m := range incoming {
		out[id] = m
	}
	return out
}
