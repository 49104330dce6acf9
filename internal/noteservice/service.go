// Package noteservice is the facade the UI surfaces (HTTP, MCP) call.
// It serializes user-triggered mutations, delegates to the storage
// strategy, and keeps the derived search index current.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/mirelh/laguz/internal/apperr"
	"github.com/mirelh/laguz/internal/checksum"
	"github.com/mirelh/laguz/internal/cryptox"
	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/search"
	"github.com/mirelh/laguz/internal/snippet"
	"github.com/mirelh/laguz/internal/storage"
	"github.com/mirelh/laguz/internal/vault"
)

// Location describes the current position in the vault tree.
type Location struct {
	Labels []string `json:"labels"`
	IDs    []string `json:"ids"`
}

// Service coordinates the storage strategy, the encryption box, and the
// search index behind one mutex. The engine itself holds no locks; the
// facade is the layer that serializes callers.
type Service struct {
	mu       sync.Mutex
	strategy vault.Strategy
	db       *search.DB
	box      *cryptox.Box
	root     storage.Directory
	logger   *slog.Logger
}

// New creates a note service.
func New(strategy vault.Strategy, db *search.DB, box *cryptox.Box, root storage.Directory, logger *slog.Logger) *Service {
	return &Service{strategy: strategy, db: db, box: box, root: root, logger: logger}
}

// idPath returns the search-index key for an entry of the current
// directory.
func (s *Service) idPath(id string) string {
	return path.Join(append(s.strategy.PathIDs(), id)...)
}

// indexNote mirrors a note into the search index. The index is a derived
// cache, so failures are logged, not surfaced.
func (s *Service) indexNote(note models.Note) {
	body := ""
	if !note.IsEncrypted {
		body = snippet.PlainText(note.Content)
	}
	err := s.db.Upsert(search.Row{
		Path:      s.idPath(note.ID),
		ID:        note.ID,
		Label:     note.Label,
		Body:      body,
		Encrypted: note.IsEncrypted,
		UpdatedAt: note.UpdatedAt,
	})
	if err != nil {
		s.logger.Warn("index note failed", slog.String("id", note.ID), slog.String("error", err.Error()))
	}
}

// resync rebuilds the search index from the tree after structural
// mutations (move, import, clear) whose id-paths it cannot patch locally.
func (s *Service) resync() {
	if err := search.Sync(s.db, s.root, s.logger); err != nil {
		s.logger.Warn("search resync failed", slog.String("error", err.Error()))
	}
}

// Get returns the full note for id in the current directory.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Get(ctx, id)
}

// List returns the metadata records of the current directory.
func (s *Service) List(ctx context.Context) ([]models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.List(ctx)
}

// Create stores a new note and indexes it.
func (s *Service) Create(ctx context.Context, note models.Note) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.strategy.Create(ctx, note)
	if err != nil {
		return models.Note{}, err
	}
	s.indexNote(saved)
	return saved, nil
}

// Update writes a note with optimistic concurrency: when ifMatch is
// non-empty it must equal the SHA-256 checksum of the stored content.
func (s *Service) Update(ctx context.Context, note models.Note, ifMatch string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.strategy.Get(ctx, note.ID)
	if err != nil {
		return models.Note{}, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum([]byte(existing.Content)) {
		return models.Note{}, fmt.Errorf("note %s: %w", note.ID, apperr.ErrConflict)
	}
	note.CreatedAt = existing.CreatedAt

	saved, err := s.strategy.Update(ctx, note)
	if err != nil {
		return models.Note{}, err
	}
	s.indexNote(saved)
	return saved, nil
}

// Delete removes an entry and its search records.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.idPath(id)
	if err := s.strategy.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.db.Delete(p); err != nil {
		s.logger.Warn("unindex failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	return nil
}

// Enter descends into a child folder.
func (s *Service) Enter(ctx context.Context, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Enter(ctx, folderID)
}

// Back ascends one level; a no-op at the root.
func (s *Service) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Back(ctx)
}

// Location returns the labels and ids of the current position.
func (s *Service) Location(context.Context) Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Location{Labels: s.strategy.Path(), IDs: s.strategy.PathIDs()}
}

// CreateFolder creates a child folder in the current directory.
func (s *Service) CreateFolder(ctx context.Context, label string) (models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.CreateFolder(ctx, label)
}

// Move relocates an entry into a sibling folder.
func (s *Service) Move(ctx context.Context, id, targetFolderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.strategy.Move(ctx, id, targetFolderID); err != nil {
		return err
	}
	s.resync()
	return nil
}

// Rename changes an entry's label.
func (s *Service) Rename(ctx context.Context, id, label string) (models.NoteMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, err := s.strategy.Rename(ctx, id, label)
	if err != nil {
		return models.NoteMeta{}, err
	}
	if !meta.IsFolder() {
		if note, getErr := s.strategy.Get(ctx, id); getErr == nil {
			s.indexNote(*note)
		}
	}
	return meta, nil
}

// Import accepts a vault archive or a legacy single-note JSON payload.
func (s *Service) Import(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.strategy.Import(ctx, data); err != nil {
		return err
	}
	s.resync()
	return nil
}

// Export serializes the whole vault into a zip archive.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.ExportAll(ctx)
}

// Clear destroys the vault contents.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.strategy.Clear(ctx); err != nil {
		return err
	}
	s.resync()
	return nil
}

// Usage reports storage consumption for UI display.
func (s *Service) Usage(ctx context.Context) (storage.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Usage(ctx)
}

// Search queries the full-text index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	return s.db.Search(query, limit)
}

// EncryptNote seals a note's content under password and persists the
// ciphertext. Already-encrypted notes are rejected.
func (s *Service) EncryptNote(ctx context.Context, id, password string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.strategy.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if note.IsEncrypted {
		return models.Note{}, fmt.Errorf("note %s already encrypted: %w", id, apperr.ErrConflict)
	}
	blob, err := s.box.Encrypt(note.Content, password)
	if err != nil {
		return models.Note{}, err
	}
	note.Content = blob
	note.IsEncrypted = true

	saved, err := s.strategy.Update(ctx, *note)
	if err != nil {
		return models.Note{}, err
	}
	s.indexNote(saved)
	return saved, nil
}

// DecryptNote returns a note's plaintext without persisting it. A wrong
// password fails with apperr.ErrDecryptionFailed and nothing else.
func (s *Service) DecryptNote(ctx context.Context, id, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.strategy.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !note.IsEncrypted {
		return note.Content, nil
	}
	return s.box.Decrypt(note.Content, password)
}

// DisableEncryption decrypts a note with password and persists the
// plaintext again.
func (s *Service) DisableEncryption(ctx context.Context, id, password string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.strategy.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if !note.IsEncrypted {
		return *note, nil
	}
	plain, err := s.box.Decrypt(note.Content, password)
	if err != nil {
		return models.Note{}, err
	}
	note.Content = plain
	note.IsEncrypted = false

	saved, err := s.strategy.Update(ctx, *note)
	if err != nil {
		return models.Note{}, err
	}
	s.indexNote(saved)
	return saved, nil
}
