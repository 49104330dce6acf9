// Package storage defines the handle-based directory abstraction the
// note engine is built on, together with a local file-system backend.
package storage

// Kind discriminates directory entries.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// DirEntry is one immediate child of a directory.
type DirEntry struct {
	Name string
	Kind Kind
}

// File is a handle to a single stored object.
type File interface {
	// Read returns the full contents of the file.
	Read() ([]byte, error)
	// Write atomically replaces the contents of the file.
	Write(data []byte) error
	// Size returns the current size of the file in bytes.
	Size() (int64, error)
}

// Directory is a handle to one node of the hierarchical store.
type Directory interface {
	// Entries lists the immediate children of the directory.
	Entries() ([]DirEntry, error)
	// File returns a handle to a child file. With create set, a missing
	// file is created empty; otherwise absence is apperr.ErrNotFound.
	File(name string, create bool) (File, error)
	// Subdir returns a handle to a child directory. With create set, a
	// missing directory is created; otherwise absence is apperr.ErrNotFound.
	Subdir(name string, create bool) (Directory, error)
	// Remove deletes a child entry. Removing a non-empty directory
	// requires recursive.
	Remove(name string, recursive bool) error
	// Move relocates a child entry (subtree intact) under target.
	// Backends that cannot relocate into target must fail with
	// apperr.ErrUnsupportedMove rather than silently no-op.
	Move(name string, target Directory) error
}

// Usage reports storage consumption for display purposes.
type Usage struct {
	Used  int64 `json:"used"`
	Quota int64 `json:"quota"`
}

// Estimator is an optional capability of a storage root.
type Estimator interface {
	Usage() (Usage, error)
}
