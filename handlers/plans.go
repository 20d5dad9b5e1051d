package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"nido/models"
	"nido/services/plans"
	"nido/services/store"
)

type plansService interface {
	Plans() []models.Plan
	Buckets() plans.Buckets
	Create(ctx context.Context, actor models.Identity, in models.PlanCreate) (models.Plan, error)
	Update(ctx context.Context, actor models.Identity, id string, in models.PlanUpdate) error
	Remove(ctx context.Context, id string) error
}

var _ plansService = (*plans.Service)(nil)

type PlansHandler struct {
	Service plansService
}

func NewPlansHandler(service plansService) *PlansHandler {
	return &PlansHandler{Service: service}
}

func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Plans())
}

func (h *PlansHandler) Buckets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Service.Buckets())
}

func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body models.PlanCreate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := h.Service.Create(r.Context(), *actor, body)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plans.ErrTitleRequired) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(plan)
}

func (h *PlansHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := IdentityFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["planID"])
	if id == "" {
		http.Error(w, "plan id is required", http.StatusBadRequest)
		return
	}

	var body models.PlanUpdate
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
		case errors.Is(err, plans.ErrTitleRequired), errors.Is(err, plans.ErrInvalidStatus):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a plan after explicit confirmation.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := strings.TrimSpace(vars["planID"])
	if id == "" {
		http.Error(w, "plan id is required", http.StatusBadRequest)
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
