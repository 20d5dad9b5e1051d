package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"nido/models"
	"nido/services/goals"
	"nido/services/store"
)

type goalsService interface {
	Goals() []models.Goal
	Buckets() goals.Buckets
	Create(ctx context.Context, actor models.Identity, in models.GoalCreate) (models.Goal, error)
	Update(ctx context.Context, actor models.Identity, id string, in models.GoalUpdate) error
	Remove(ctx context.Context, id string) error
}

var _ goalsService = (*goals.Service)(nil)

type GoalsHandler struct {
	Service goalsService
}

func NewGoalsHandler(service goalsService) *GoalsHandler {
	return &GoalsHandler{Service: service}
}

func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Goals())
}

func (h *GoalsHandler) Buckets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Buckets())
}

func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body models.GoalCreate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := h.Service.Create(r.Context(), *actor, body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, goals.ErrTitleRequired),
			errors.Is(err, goals.ErrInvalidPriority),
			errors.Is(err, models.ErrProgressEmpty):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(goal)
}

func (h *GoalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["goalID"])
	if id == "" {
		http.Error(w, "goal id is required", http.StatusBadRequest)
		return
	}

	var body models.GoalUpdate
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
		case errors.Is(err, goals.ErrTitleRequired),
			errors.Is(err, goals.ErrInvalidStatus),
			errors.Is(err, goals.ErrInvalidPriority),
			errors.Is(err, models.ErrProgressEmpty):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a goal after explicit confirmation.
func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["goalID"])
	if id == "" {
		http.Error(w, "goal id is required", http.StatusBadRequest)
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
