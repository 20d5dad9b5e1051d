package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nido/services/roulette"
)

type rouletteService interface {
	Spin(f roulette.Filter) (roulette.State, error)
	State() roulette.State
	Reset()
}

var _ rouletteService = (*roulette.Service)(nil)

type RouletteHandler struct {
	Service rouletteService
}

func NewRouletteHandler(service rouletteService) *RouletteHandler {
	return &RouletteHandler{Service: service}
}

// Spin starts a reveal. A spin on an empty pool or over a running reveal is
// rejected and the current state is returned untouched.
func (h *RouletteHandler) Spin(w http.ResponseWriter, r *http.Request) {
	var filter roulette.Filter
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&filter); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := h.Service.Spin(filter)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, roulette.ErrEmptyPool):
			status = http.StatusBadRequest
		case errors.Is(err, roulette.ErrSpinInProgress):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(state)
}

func (h *RouletteHandler) State(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.State())
}

func (h *RouletteHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Service.Reset()
	w.WriteHeader(http.StatusNoContent)
}
