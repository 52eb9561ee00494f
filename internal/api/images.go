package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/vitrina/internal/store"
)

// ImagesHandler serves photos kept in the local database.
type ImagesHandler struct {
	DB *sql.DB
}

// Get handles GET /api/images/{key...}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetImage(r.Context(), h.DB, r.PathValue("key"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	// Keys are unique per upload, so the content never changes.
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
