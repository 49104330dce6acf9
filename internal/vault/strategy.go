// Package vault implements the hierarchical note storage engine: a
// folder/note tree kept on a handle-based directory store, with one
// metadata sidecar per directory describing its immediate children.
package vault

import (
	"context"

	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/storage"
)

// Strategy is the storage engine contract. One concrete implementation
// (file-system backed) exists; the interface keeps the door open for an
// in-memory backend in tests.
type Strategy interface {
	// Init resets navigation to the vault root and loads its index.
	Init(ctx context.Context) error
	// InitWithPath resets to root and descends through the given folder
	// ids, stopping silently at the first missing one.
	InitWithPath(ctx context.Context, ids []string) error

	// Create stores a new note in the current directory.
	Create(ctx context.Context, note models.Note) (models.Note, error)
	// Update writes a note body and its index record, content first.
	Update(ctx context.Context, note models.Note) (models.Note, error)
	// Delete removes an entry (recursively for folders). Absent ids are
	// a no-op.
	Delete(ctx context.Context, id string) error
	// Get reads a note of the current directory. Folders have no
	// readable content and report apperr.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Note, error)
	// List returns the metadata records of the current directory.
	List(ctx context.Context) ([]models.NoteMeta, error)

	// Enter descends into a child folder and loads its index.
	Enter(ctx context.Context, folderID string) error
	// Back ascends one level; at the root it is a no-op.
	Back(ctx context.Context) error
	// Path returns the labels of the current location, root first.
	Path() []string
	// PathIDs returns the folder ids of the current location, root first.
	PathIDs() []string

	// CreateFolder creates a child folder with its own empty index.
	CreateFolder(ctx context.Context, label string) (models.NoteMeta, error)
	// Move relocates an entry of the current directory into a sibling
	// folder, updating both indices.
	Move(ctx context.Context, id, targetFolderID string) error
	// Rename changes an entry's label; the stored object is untouched.
	Rename(ctx context.Context, id, label string) (models.NoteMeta, error)

	// Import accepts a full-vault zip archive (merge-imported into the
	// tree) or, as a legacy fallback, a single JSON-encoded note.
	Import(ctx context.Context, data []byte) error
	// ExportAll serializes the whole vault into a zip archive.
	ExportAll(ctx context.Context) ([]byte, error)
	// Clear destroys the vault contents and reinitializes an empty root.
	Clear(ctx context.Context) error
	// Usage reports storage consumption of the vault.
	Usage(ctx context.Context) (storage.Usage, error)
}
