package api

import (
	"io"
	"net/http"
	"time"
)

const maxImportSize = 100 << 20

// Export handles GET /api/export: the full vault as a zip download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	filename := "laguz-" + time.Now().Format("2006-01-02") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. The body is either a multipart upload
// with a "file" part or the raw blob itself; the blob may be a vault
// archive or a legacy single-note JSON payload.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	data, err := importBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("empty import"))
		return
	}
	if err := h.svc.Import(r.Context(), data); err != nil {
		writeError(w, "import", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func importBody(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxImportSize); err == nil {
		if f, _, openErr := r.FormFile("file"); openErr == nil {
			defer f.Close()
			return io.ReadAll(f)
		}
	}
	return io.ReadAll(r.Body)
}
