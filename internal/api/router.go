package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mirelh/laguz/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Entry operations.
	r.Post("/notes/{id}/rename", h.RenameEntry)
	r.Post("/notes/{id}/move", h.MoveEntry)
	r.Post("/notes/{id}/encrypt", h.EncryptNote)
	r.Post("/notes/{id}/decrypt", h.DecryptNote)

	// Folders and navigation.
	r.Post("/folders", h.CreateFolder)
	r.Get("/path", h.Location)
	r.Post("/path/enter", h.EnterFolder)
	r.Post("/path/back", h.GoBack)

	// Search.
	r.Get("/search", h.Search)

	// Backup and restore.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Delete("/vault", h.ClearVault)

	// Storage usage.
	r.Get("/storage", h.StorageUsage)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
