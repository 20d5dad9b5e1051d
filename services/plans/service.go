// Package plans manages the couple's shared plans list.
package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nido/models"
	"nido/services/mirror"
	"nido/services/store"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidStatus    = errors.New("status must be idea, planned or done")
	ErrIdentityRequired = errors.New("acting identity is required")
)

// Buckets groups the mirrored snapshot by plan status.
type Buckets struct {
	Idea    []models.Plan `json:"idea"`
	Planned []models.Plan `json:"planned"`
	Done    []models.Plan `json:"done"`
}

// Service owns the plans collection, ordered by sort key.
type Service struct {
	store  *store.Store
	mirror *mirror.Mirror[models.Plan]
}

// NewService opens the live mirror over the plans collection.
func NewService(st *store.Store) *Service {
	return &Service{
		store:  st,
		mirror: mirror.New[models.Plan](st, store.CollectionPlans),
	}
}

// Close tears down the live subscription.
func (s *Service) Close() {
	s.mirror.Close()
}

// Plans returns the mirrored snapshot in sort-key order.
func (s *Service) Plans() []models.Plan {
	items, ready := s.mirror.Snapshot()
	if !ready {
		return []models.Plan{}
	}
	return items
}

// Buckets groups the current snapshot into the three status buckets.
func (s *Service) Buckets() Buckets {
	grouped := mirror.Group(s.Plans(), func(p models.Plan) string { return p.Status })
	return Buckets{
		Idea:    orEmpty(grouped[models.PlanStatusIdea]),
		Planned: orEmpty(grouped[models.PlanStatusPlanned]),
		Done:    orEmpty(grouped[models.PlanStatusDone]),
	}
}

// Create adds a plan with status idea and a creation-time-derived sort key.
func (s *Service) Create(ctx context.Context, actor models.Identity, in models.PlanCreate) (models.Plan, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return models.Plan{}, ErrIdentityRequired
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Plan{}, ErrTitleRequired
	}

	now := time.Now().UTC()
	plan := models.Plan{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Links:       cleanLinks(in.Links),
		Status:      models.PlanStatusIdea,
		SortKey:     float64(now.UnixMilli()),
		Audit: models.Audit{
			CreatedBy: actor,
			CreatedAt: now,
			UpdatedBy: actor,
			UpdatedAt: now,
		},
	}

	doc, err := s.store.Add(ctx, store.CollectionPlans, plan, plan.SortKey)
	if err != nil {
		return models.Plan{}, fmt.Errorf("create plan: %w", err)
	}

	plan.ID = doc.ID
	return plan, nil
}

// Update applies a partial update; nil fields stay untouched.
func (s *Service) Update(ctx context.Context, actor models.Identity, id string, in models.PlanUpdate) error {
	if strings.TrimSpace(actor.ID) == "" {
		return ErrIdentityRequired
	}
	if strings.TrimSpace(id) == "" {
		return store.ErrNotFound
	}

	patch := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return ErrTitleRequired
		}
		patch["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		patch["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Links != nil {
		patch["links"] = cleanLinks(*in.Links)
	}
	if in.Status != nil {
		if !models.ValidPlanStatus(*in.Status) {
			return ErrInvalidStatus
		}
		patch["status"] = *in.Status
	}
	if in.SortKey != nil {
		patch["sortKey"] = *in.SortKey
	}

	patch["updatedBy"] = actor
	patch["updatedAt"] = time.Now().UTC()

	if _, err := s.store.Update(ctx, store.CollectionPlans, id, patch); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

// Remove deletes a plan.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionPlans, id); err != nil {
		return fmt.Errorf("remove plan: %w", err)
	}
	return nil
}

func cleanLinks(links []string) []string {
	out := make([]string, 0, len(links))
	for _, link := range links {
		if trimmed := strings.TrimSpace(link); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func orEmpty(items []models.Plan) []models.Plan {
	if items == nil {
		return []models.Plan{}
	}
	return items
}
