package layout

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/boothmap/boothmap/internal/access"
	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/store"
)

const maxDocumentSize = 8 << 20

type Handler struct {
	service *Service
	access  *access.Service
}

func NewHandler(service *Service, accessSvc *access.Service) *Handler {
	return &Handler{service: service, access: accessSvc}
}

type createRequest struct {
	Name       string `json:"name"`
	Sample     bool   `json:"sample"`
	Passphrase string `json:"passphrase"`
}

type createResponse struct {
	Layout *store.Layout `json:"layout"`
	Token  string        `json:"token"`
}

type backgroundRequest struct {
	Background string `json:"background"`
}

// Create makes a layout and returns an edit token for it.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	hash, err := h.access.HashPassphrase(req.Passphrase)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	l, err := h.service.Create(r.Context(), CreateParams{Name: req.Name, Sample: req.Sample, PassphraseHash: hash})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.access.IssueToken(l.ID, access.RoleEdit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{Layout: l, Token: token})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	layouts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, layouts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), mux.Vars(r)["layoutId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["layoutId"]); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.LatestDocument(r.Context(), mux.Vars(r)["layoutId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	doc.Encode(w)
}

// PutDocument replaces the document wholesale, storing a new version.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := document.Decode(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := h.service.SaveDocument(r.Context(), mux.Vars(r)["layoutId"], doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"version": snap.Version})
}

func (h *Handler) SetBackground(w http.ResponseWriter, r *http.Request) {
	var req backgroundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.service.SetBackground(r.Context(), mux.Vars(r)["layoutId"], req.Background); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Report returns the power totals as JSON, or msgpack when the client asks
// for application/msgpack or ?format=msgpack.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Report(r.Context(), mux.Vars(r)["layoutId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "msgpack" || strings.Contains(r.Header.Get("Accept"), "application/msgpack") {
		data, err := msgpack.Marshal(rep)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "layout not found"})
	case errors.Is(err, ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("layout service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
