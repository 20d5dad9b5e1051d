// Package goals manages the couple's shared goals and their progress records.
package goals

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
	ErrInvalidStatus    = errors.New("status must be active, paused or done")
	ErrInvalidPriority  = errors.New("priority must be low, medium or high")
	ErrIdentityRequired = errors.New("acting identity is required")
)

// Buckets groups the mirrored snapshot by goal status.
type Buckets struct {
	Active []models.Goal `json:"active"`
	Paused []models.Goal `json:"paused"`
	Done   []models.Goal `json:"done"`
}

// Service owns the goals collection, ordered by sort key.
type Service struct {
	store  *store.Store
	mirror *mirror.Mirror[models.Goal]
}

// NewService opens the live mirror over the goals collection.
func NewService(st *store.Store) *Service {
	return &Service{
		store:  st,
		mirror: mirror.New[models.Goal](st, store.CollectionGoals),
	}
}

// Close tears down the live subscription.
func (s *Service) Close() {
	s.mirror.Close()
}

// Goals returns the mirrored snapshot in sort-key order. Legacy progress
// shapes are already normalized by the model's decoder.
func (s *Service) Goals() []models.Goal {
	items, ready := s.mirror.Snapshot()
	if !ready {
		return []models.Goal{}
	}
	return items
}

// Buckets groups the current snapshot into the three status buckets.
func (s *Service) Buckets() Buckets {
	grouped := mirror.Group(s.Goals(), func(g models.Goal) string { return g.Status })
	return Buckets{
		Active: orEmpty(grouped[models.GoalStatusActive]),
		Paused: orEmpty(grouped[models.GoalStatusPaused]),
		Done:   orEmpty(grouped[models.GoalStatusDone]),
	}
}

// Create adds a goal with status active. The progress record must carry at
// least one sub-record.
func (s *Service) Create(ctx context.Context, actor models.Identity, in models.GoalCreate) (models.Goal, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return models.Goal{}, ErrIdentityRequired
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Goal{}, ErrTitleRequired
	}
	if !models.ValidGoalPriority(in.Priority) {
		return models.Goal{}, ErrInvalidPriority
	}
	if in.Progress.Empty() {
		return models.Goal{}, models.ErrProgressEmpty
	}

	now := time.Now().UTC()
	goal := models.Goal{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      models.GoalStatusActive,
		Priority:    in.Priority,
		TargetDate:  in.TargetDate,
		Progress:    normalizeProgress(in.Progress),
		SortKey:     float64(now.UnixMilli()),
		Audit: models.Audit{
			CreatedBy: actor,
			CreatedAt: now,
			UpdatedBy: actor,
			UpdatedAt: now,
		},
	}

	doc, err := s.store.Add(ctx, store.CollectionGoals, goal, goal.SortKey)
	if err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	goal.ID = doc.ID
	return goal, nil
}

// Update applies a partial update; nil fields stay untouched. A progress
// update replaces the whole record, never merges into it.
func (s *Service) Update(ctx context.Context, actor models.Identity, id string, in models.GoalUpdate) error {
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
	if in.Status != nil {
		if !models.ValidGoalStatus(*in.Status) {
			return ErrInvalidStatus
		}
		patch["status"] = *in.Status
	}
	if in.Priority != nil {
		if !models.ValidGoalPriority(*in.Priority) {
			return ErrInvalidPriority
		}
		patch["priority"] = *in.Priority
	}
	if in.TargetDate != nil {
		patch["targetDate"] = *in.TargetDate
	}
	if in.Progress != nil {
		if in.Progress.Empty() {
			return models.ErrProgressEmpty
		}
		patch["progress"] = normalizeProgress(*in.Progress)
	}
	if in.SortKey != nil {
		patch["sortKey"] = *in.SortKey
	}

	patch["updatedBy"] = actor
	patch["updatedAt"] = time.Now().UTC()

	if _, err := s.store.Update(ctx, store.CollectionGoals, id, patch); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// Remove deletes a goal.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionGoals, id); err != nil {
		return fmt.Errorf("remove goal: %w", err)
	}
	return nil
}

func normalizeProgress(p models.GoalProgress) models.GoalProgress {
	if p.Money != nil && p.Money.Currency == "" {
		money := *p.Money
		money.Currency = models.DefaultCurrency
		p.Money = &money
	}
	if p.Checklist != nil && p.Checklist.Steps == nil {
		p.Checklist = &models.ChecklistProgress{Steps: []models.ChecklistStep{}}
	}
	return p
}

func orEmpty(items []models.Goal) []models.Goal {
	if items == nil {
		return []models.Goal{}
	}
	return items
}
