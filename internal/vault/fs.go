package vault

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mirelh/laguz/internal/apperr"
	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/noteindex"
	"github.com/mirelh/laguz/internal/snippet"
	"github.com/mirelh/laguz/internal/storage"
	"github.com/mirelh/laguz/internal/transfer"
)

// FS is the file-system backed Strategy. It holds a stack of directory
// handles from the root to the current directory, the parallel label and
// id stacks for the same path, and the current directory's index.
//
// Callers are expected to serialize mutations; the engine itself holds
// no locks.
type FS struct {
	root   storage.Directory
	dirs   []storage.Directory
	labels []string
	ids    []string
	index  noteindex.Index

	now   func() int64
	newID func() string
}

var _ Strategy = (*FS)(nil)

// New creates a Strategy rooted at the given directory.
func New(root storage.Directory) *FS {
	return &FS{
		root:  root,
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: uuid.NewString,
	}
}

func (v *FS) current() storage.Directory {
	return v.dirs[len(v.dirs)-1]
}

func (v *FS) loadIndex() error {
	idx, err := noteindex.Load(v.current())
	if err != nil {
		return err
	}
	v.index = idx
	return nil
}

func (v *FS) saveIndex() error {
	return noteindex.Save(v.current(), v.index)
}

// Init resets navigation to the vault root and loads its index.
func (v *FS) Init(_ context.Context) error {
	v.dirs = []storage.Directory{v.root}
	v.labels = nil
	v.ids = nil
	return v.loadIndex()
}

// InitWithPath resets to root and descends through ids. A missing folder
// anywhere in the sequence stops the descent at the deepest valid
// ancestor; a partially valid deep link is not an error.
func (v *FS) InitWithPath(ctx context.Context, ids []string) error {
	if err := v.Init(ctx); err != nil {
		return err
	}
	for _, id := range ids {
		if err := v.Enter(ctx, id); err != nil {
			break
		}
	}
	return nil
}

// Create assigns timestamps and an id when absent, then stores the note
// via Update.
func (v *FS) Create(ctx context.Context, note models.Note) (models.Note, error) {
	if note.ID == "" {
		note.ID = v.newID()
	}
	note.CreatedAt = v.now()
	note.Type = models.TypeNote
	return v.Update(ctx, note)
}

// Update writes the note body to its storage file, then the merged
// metadata record into the current index. The content write always
// precedes the index write, so a crash leaves an unindexed file rather
// than an index record pointing at nothing.
func (v *FS) Update(_ context.Context, note models.Note) (models.Note, error) {
	note.UpdatedAt = v.now()
	note.Type = models.TypeNote
	if note.IsEncrypted {
		// Snippets are derived from cleartext only; ciphertext must not
		// leak into the index.
		note.Snippet = ""
	} else {
		note.Snippet = snippet.Make(note.Content)
	}

	f, err := v.current().File(note.ID, true)
	if err != nil {
		return models.Note{}, err
	}
	if err := f.Write([]byte(note.Content)); err != nil {
		return models.Note{}, err
	}

	v.index[note.ID] = note.NoteMeta
	if err := v.saveIndex(); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

// Delete removes an entry and its index record. An id that is already
// absent is a no-op.
func (v *FS) Delete(_ context.Context, id string) error {
	entry, ok := v.index[id]
	if !ok {
		return nil
	}
	if err := v.current().Remove(id, entry.IsFolder()); err != nil {
		return err
	}
	delete(v.index, id)
	return v.saveIndex()
}

// Get returns the full note for id in the current directory.
func (v *FS) Get(_ context.Context, id string) (*models.Note, error) {
	entry, ok := v.index[id]
	if !ok || entry.IsFolder() {
		return nil, fmt.Errorf("vault: note %s: %w", id, apperr.ErrNotFound)
	}
	f, err := v.current().File(id, false)
	if err != nil {
		return nil, err
	}
	data, err := f.Read()
	if err != nil {
		return nil, err
	}
	return &models.Note{NoteMeta: entry, Content: string(data)}, nil
}

// List returns the metadata records of the current directory, most
// recently updated first. No note bodies are read.
func (v *FS) List(_ context.Context) ([]models.NoteMeta, error) {
	out := make([]models.NoteMeta, 0, len(v.index))
	for _, m := range v.index {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Enter descends into a child folder and loads its index.
func (v *FS) Enter(_ context.Context, folderID string) error {
	entry, ok := v.index[folderID]
	if !ok || !entry.IsFolder() {
		return fmt.Errorf("vault: folder %s: %w", folderID, apperr.ErrNotFound)
	}
	sub, err := v.current().Subdir(folderID, false)
	if err != nil {
		return err
	}
	v.dirs = append(v.dirs, sub)
	v.labels = append(v.labels, entry.Label)
	v.ids = append(v.ids, folderID)
	return v.loadIndex()
}

// Back ascends one level. At the root it is a no-op.
func (v *FS) Back(_ context.Context) error {
	if len(v.dirs) <= 1 {
		return nil
	}
	v.dirs = v.dirs[:len(v.dirs)-1]
	v.labels = v.labels[:len(v.labels)-1]
	v.ids = v.ids[:len(v.ids)-1]
	return v.loadIndex()
}

// Path returns the labels of the current location below the root.
func (v *FS) Path() []string {
	return append([]string(nil), v.labels...)
}

// PathIDs returns the folder ids of the current location below the root.
func (v *FS) PathIDs() []string {
	return append([]string(nil), v.ids...)
}

// CreateFolder creates a child directory with its own empty sidecar, then
// records the folder in the current index.
func (v *FS) CreateFolder(_ context.Context, label string) (models.NoteMeta, error) {
	id := v.newID()
	sub, err := v.current().Subdir(id, true)
	if err != nil {
		return models.NoteMeta{}, err
	}
	if err := noteindex.Save(sub, noteindex.Index{}); err != nil {
		return models.NoteMeta{}, err
	}

	now := v.now()
	meta := models.NoteMeta{
		ID:        id,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
		Snippet:   "",
		Type:      models.TypeFolder,
	}
	v.index[id] = meta
	if err := v.saveIndex(); err != nil {
		return models.NoteMeta{}, err
	}
	return meta, nil
}

// Move relocates an entry into a sibling folder of the current directory.
// The physical relocation carries the whole subtree in one handle move;
// the source index is saved before the target index, so a crash in
// between leaves the entry reachable on disk but listed nowhere, which a
// later import or re-index can repair.
func (v *FS) Move(_ context.Context, id, targetFolderID string) error {
	if id == targetFolderID {
		return nil
	}
	entry, ok := v.index[id]
	if !ok {
		return nil
	}
	target, ok := v.index[targetFolderID]
	if !ok || !target.IsFolder() {
		return fmt.Errorf("vault: folder %s: %w", targetFolderID, apperr.ErrNotFound)
	}
	targetDir, err := v.current().Subdir(targetFolderID, false)
	if err != nil {
		return err
	}

	if err := v.current().Move(id, targetDir); err != nil {
		return err
	}

	delete(v.index, id)
	if err := v.saveIndex(); err != nil {
		return err
	}

	targetIdx, err := noteindex.Load(targetDir)
	if err != nil {
		return err
	}
	entry.UpdatedAt = v.now()
	targetIdx[id] = entry
	return noteindex.Save(targetDir, targetIdx)
}

// Rename updates an entry's label in the current index. The id-based
// storage name never changes, so no file is touched.
func (v *FS) Rename(_ context.Context, id, label string) (models.NoteMeta, error) {
	entry, ok := v.index[id]
	if !ok {
		return models.NoteMeta{}, fmt.Errorf("vault: entry %s: %w", id, apperr.ErrNotFound)
	}
	entry.Label = label
	entry.UpdatedAt = v.now()
	v.index[id] = entry
	if err := v.saveIndex(); err != nil {
		return models.NoteMeta{}, err
	}
	return entry, nil
}

// Import merge-imports a full-vault archive into the root. When the blob
// is not a zip container it is retried as a legacy single-note JSON
// payload; only after both attempts fail is the import rejected.
func (v *FS) Import(ctx context.Context, data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		if err := transfer.MergeImport(zr, v.root, ""); err != nil {
			return err
		}
		return v.loadIndex()
	}

	var note models.Note
	if jsonErr := json.Unmarshal(data, &note); jsonErr != nil || note.ID == "" {
		return apperr.ErrImportFormat
	}
	_, err = v.Update(ctx, note)
	return err
}

// ExportAll serializes the whole vault, sidecars included, into a zip
// archive whose layout mirrors the live tree.
func (v *FS) ExportAll(_ context.Context) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := transfer.ZipDirectory(v.root, zw, ""); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("vault: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Clear removes everything under the root and reinitializes to an empty
// vault.
func (v *FS) Clear(ctx context.Context) error {
	entries, err := v.root.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := v.root.Remove(e.Name, true); err != nil {
			return err
		}
	}
	return v.Init(ctx)
}

// Usage reports storage consumption when the backing root can estimate
// it; otherwise zeros.
func (v *FS) Usage(_ context.Context) (storage.Usage, error) {
	if est, ok := v.root.(storage.Estimator); ok {
		return est.Usage()
	}
	return storage.Usage{}, nil
}
