package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"nido/services/metadata"
)

// MetadataHandler exposes catalog search and per-title details for the
// watchlist add flow. Detail fetches run through one shared session so that
// rapid re-selection never shows stale data.
type MetadataHandler struct {
	Service *metadata.Service
	details *metadata.DetailSession
}

func NewMetadataHandler(service *metadata.Service) *MetadataHandler {
	return &MetadataHandler{
		Service: service,
		details: service.NewDetailSession(),
	}
}

func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	results, err := h.Service.Search(r.Context(), query)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, metadata.ErrQueryRequired):
			status = http.StatusBadRequest
		case errors.Is(err, metadata.ErrNotConfigured):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (h *MetadataHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := strings.TrimSpace(vars["mediaType"])
	id, err := strconv.ParseInt(vars["titleID"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "title id is required", http.StatusBadRequest)
		return
	}

	details, err := h.details.Fetch(r.Context(), mediaType, id)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, metadata.ErrStale):
			status = http.StatusConflict
		case errors.Is(err, metadata.ErrUnknownKind):
			status = http.StatusBadRequest
		case errors.Is(err, metadata.ErrNotConfigured):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}
