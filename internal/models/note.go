// Package models defines the domain types for Laguz.
package models

// Entry kinds stored in the per-directory index.
const (
	TypeNote   = "note"
	TypeFolder = "folder"
)

// NoteMeta is the denormalized index record kept for every entry of a
// directory. JSON field names match the on-disk index.json format, so
// exported archives and legacy single-note payloads stay importable.
type NoteMeta struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
	IsEncrypted bool     `json:"isEncrypted"`
	Tags        []string `json:"tags,omitempty"`
	Snippet     string   `json:"snippet"`
	Type        string   `json:"type"`
}

// IsFolder reports whether the entry owns a nested directory.
func (m NoteMeta) IsFolder() bool {
	return m.Type == TypeFolder
}

// Note is the full entity: index metadata plus the stored body. Content
// holds HTML rich text for plain notes and a base64 ciphertext blob when
// IsEncrypted is set.
type Note struct {
	NoteMeta
	Content string `json:"content"`
}
