package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/orders"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps catalog and order errors to a status code. Unknown errors
// are logged and reported as 500 without details.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrUpstreamUnavailable):
		slog.Warn("catalog source unavailable", "op", op, "error", err)
		jsonError(w, http.StatusBadGateway, "catalog temporarily unavailable")
	case errors.Is(err, catalog.ErrInvalidPricing),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidStatus):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		jsonError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, orders.ErrNotFound):
		jsonError(w, http.StatusNotFound, "order not found")
	default:
		slog.Error("request failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// orEmpty keeps empty lists encoded as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
