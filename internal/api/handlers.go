package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mirelh/laguz/internal/apperr"
	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError translates engine errors into HTTP responses. Permission
// problems surface for interactive re-authorization; decryption failures
// carry no detail beyond "wrong password".
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict"))
	case errors.Is(err, apperr.ErrDecryptionFailed):
		writeJSON(w, http.StatusForbidden, errorBody("wrong password"))
	case errors.Is(err, apperr.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorBody("storage access denied"))
	case errors.Is(err, apperr.ErrUnsupportedMove):
		writeJSON(w, http.StatusNotImplemented, errorBody("storage does not support move"))
	case errors.Is(err, apperr.ErrImportFormat):
		writeJSON(w, http.StatusBadRequest, errorBody("could not import"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	metas, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": metas,
		"total": len(metas),
	})
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		ID      string   `json:"id"`
		Label   string   `json:"label"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	note, err := h.svc.Create(r.Context(), models.Note{
		NoteMeta: models.NoteMeta{ID: req.ID, Label: req.Label, Tags: req.Tags},
		Content:  req.Content,
	})
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id} with optional If-Match
// optimistic concurrency (SHA-256 checksum of the stored content).
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")

	var req struct {
		Label   string   `json:"label"`
		Content string   `json:"content"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.Update(r.Context(), models.Note{
		NoteMeta: models.NoteMeta{ID: id, Label: req.Label, Tags: req.Tags},
		Content:  req.Content,
	}, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}. Deleting an absent id is
// already a no-op in the engine, so the response is always 204.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameEntry handles POST /api/notes/{id}/rename.
func (h *Handler) RenameEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	meta, err := h.svc.Rename(r.Context(), chi.URLParam(r, "id"), req.Label)
	if err != nil {
		writeError(w, "rename entry", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// MoveEntry handles POST /api/notes/{id}/move.
func (h *Handler) MoveEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetFolderID string `json:"targetFolderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetFolderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("targetFolderId is required"))
		return
	}
	if err := h.svc.Move(r.Context(), chi.URLParam(r, "id"), req.TargetFolderID); err != nil {
		writeError(w, "move entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EncryptNote handles POST /api/notes/{id}/encrypt.
func (h *Handler) EncryptNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.EncryptNote(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		writeError(w, "encrypt note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DecryptNote handles POST /api/notes/{id}/decrypt. By default the
// plaintext is returned without being persisted; with persist set the
// note is stored unencrypted again.
func (h *Handler) DecryptNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Persist  bool   `json:"persist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id := chi.URLParam(r, "id")

	if req.Persist {
		note, err := h.svc.DisableEncryption(r.Context(), id, req.Password)
		if err != nil {
			writeError(w, "decrypt note", err)
			return
		}
		writeJSON(w, http.StatusOK, note)
		return
	}

	content, err := h.svc.DecryptNote(r.Context(), id, req.Password)
	if err != nil {
		writeError(w, "decrypt note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	meta, err := h.svc.CreateFolder(r.Context(), req.Label)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// Location handles GET /api/path.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Location(r.Context()))
}

// EnterFolder handles POST /api/path/enter.
func (h *Handler) EnterFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderID string `json:"folderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FolderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folderId is required"))
		return
	}
	if err := h.svc.Enter(r.Context(), req.FolderID); err != nil {
		writeError(w, "enter folder", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Location(r.Context()))
}

// GoBack handles POST /api/path/back.
func (h *Handler) GoBack(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Back(r.Context()); err != nil {
		writeError(w, "go back", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Location(r.Context()))
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// StorageUsage handles GET /api/storage.
func (h *Handler) StorageUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.svc.Usage(r.Context())
	if err != nil {
		writeError(w, "storage usage", err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// ClearVault handles DELETE /api/vault.
func (h *Handler) ClearVault(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		writeError(w, "clear vault", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
