package access

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/boothmap/boothmap/internal/store"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// Grant exchanges an optional passphrase for a layout token.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	layoutID := mux.Vars(r)["layoutId"]

	var req passphraseRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	grant, err := h.service.Grant(r.Context(), layoutID, req.Passphrase)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidPassphrase):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid passphrase"})
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "layout not found"})
		default:
			slog.Error("grant access failed", "error", err, "layout", layoutID)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, grant)
}

// SetPassphrase changes the edit passphrase. Route it behind Middleware and
// RequireEdit.
func (h *Handler) SetPassphrase(w http.ResponseWriter, r *http.Request) {
	layoutID := mux.Vars(r)["layoutId"]

	var req passphraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.service.SetPassphrase(r.Context(), layoutID, req.Passphrase); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "layout not found"})
			return
		}
		slog.Error("set passphrase failed", "error", err, "layout", layoutID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
