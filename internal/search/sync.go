package search

import (
	"log/slog"
	"path"

	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/noteindex"
	"github.com/mirelh/laguz/internal/snippet"
	"github.com/mirelh/laguz/internal/storage"
)

// Sync walks the vault tree and brings the search index up to date:
//   - new or changed entries (by updated_at) are upserted
//   - entries gone from the tree are deleted
func Sync(db *DB, root storage.Directory, logger *slog.Logger) error {
	rows := make(map[string]Row)
	collect(root, "", rows, logger)

	indexed, err := db.AllUpdatedAts()
	if err != nil {
		return err
	}

	for p, r := range rows {
		if indexed[p] == r.UpdatedAt {
			continue
		}
		if err := db.Upsert(r); err != nil {
			logger.Warn("sync: upsert failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", p))
		}
	}

	// Remove stale entries.
	for p := range indexed {
		if _, ok := rows[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// collect recursively reads each directory's sidecar and builds one row
// per note. Encrypted note bodies are never read into the index.
func collect(dir storage.Directory, prefix string, rows map[string]Row, logger *slog.Logger) {
	idx, err := noteindex.Load(dir)
	if err != nil {
		logger.Warn("sync: load sidecar failed", slog.String("path", prefix), slog.String("error", err.Error()))
		return
	}
	for id, meta := range idx {
		p := path.Join(prefix, id)
		if meta.IsFolder() {
			sub, err := dir.Subdir(id, false)
			if err != nil {
				logger.Warn("sync: open folder failed", slog.String("path", p), slog.String("error", err.Error()))
				continue
			}
			collect(sub, p, rows, logger)
			continue
		}
		rows[p] = Row{
			Path:      p,
			ID:        id,
			Label:     meta.Label,
			Body:      noteBody(dir, id, meta, logger),
			Encrypted: meta.IsEncrypted,
			UpdatedAt: meta.UpdatedAt,
		}
	}
}

func noteBody(dir storage.Directory, id string, meta models.NoteMeta, logger *slog.Logger) string {
	if meta.IsEncrypted {
		return ""
	}
	f, err := dir.File(id, false)
	if err != nil {
		logger.Warn("sync: open note failed", slog.String("id", id), slog.String("error", err.Error()))
		return ""
	}
	data, err := f.Read()
	if err != nil {
		logger.Warn("sync: read note failed", slog.String("id", id), slog.String("error", err.Error()))
		return ""
	}
	return snippet.PlainText(string(data))
}
