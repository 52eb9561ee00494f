package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/vitrina/internal/store"
)

// SettingsHandler handles storefront settings.
type SettingsHandler struct {
	DB *sql.DB
}

type whatsAppRequest struct {
	Number string `json:"number"`
}

// GetWhatsApp handles GET /api/whatsapp.
func (h *SettingsHandler) GetWhatsApp(w http.ResponseWriter, r *http.Request) {
	number, err := store.GetWhatsAppNumber(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to read whatsapp number", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"number": number})
}

// SetWhatsApp handles PUT /api/whatsapp. Formatting characters are dropped
// and the number is stored as digits only, international prefix included.
func (h *SettingsHandler) SetWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req whatsAppRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	number := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, req.Number)
	if len(number) < 8 || len(number) > 15 {
		jsonError(w, http.StatusBadRequest, "number must have between 8 and 15 digits")
		return
	}

	if err := store.SetWhatsAppNumber(r.Context(), h.DB, number); err != nil {
		slog.Error("failed to store whatsapp number", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("whatsapp number updated", "user", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, map[string]string{"number": number})
}
