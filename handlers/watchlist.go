package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"nido/models"
	"nido/services/store"
	"nido/services/watchlist"
)

type watchlistService interface {
	Items() []models.WatchItem
	Buckets() watchlist.Buckets
	Add(ctx context.Context, actor models.Identity, in models.WatchItemCreate) (models.WatchItem, error)
	Update(ctx context.Context, actor models.Identity, id string, in models.WatchItemUpdate) error
	Remove(ctx context.Context, id string) error
}

var _ watchlistService = (*watchlist.Service)(nil)

type WatchlistHandler struct {
	Service watchlistService
}

func NewWatchlistHandler(service watchlistService) *WatchlistHandler {
	return &WatchlistHandler{Service: service}
}

func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Items())
}

func (h *WatchlistHandler) Buckets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Buckets())
}

func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body models.WatchItemCreate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(r.Context(), *actor, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, watchlist.ErrTitleRequired),
			errors.Is(err, watchlist.ErrTMDBIDRequired),
			errors.Is(err, watchlist.ErrInvalidMediaType):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(item)
}

func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["itemID"])
	if id == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}

	var body models.WatchItemUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Update(r.Context(), *actor, id, body); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, store.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, watchlist.ErrTitleRequired),
			errors.Is(err, watchlist.ErrInvalidStatus),
			errors.Is(err, watchlist.ErrProgressOnMovie):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes an entry. Deletion is destructive, so the caller must send
// confirm=true explicitly.
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["itemID"])
	if id == "" {
		http.Error(w, "item id is required", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		http.Error(w, "deletion requires confirm=true", http.StatusBadRequest)
		return
	}

	if err := h.Service.Remove(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
