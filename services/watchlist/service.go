// Package watchlist manages the couple's shared media watchlist.
package watchlist

import (
	"context"
	"encoding/json"
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
	ErrTMDBIDRequired   = errors.New("catalog id is required")
	ErrInvalidMediaType = errors.New("media type must be movie or series")
	ErrInvalidStatus    = errors.New("status must be pending, watching or done")
	ErrProgressOnMovie  = errors.New("season/episode progress only applies to series")
	ErrIdentityRequired = errors.New("acting identity is required")
)

// Buckets groups the mirrored snapshot by watch status.
type Buckets struct {
	Pending  []models.WatchItem `json:"pending"`
	Watching []models.WatchItem `json:"watching"`
	Done     []models.WatchItem `json:"done"`
}

// Service owns the watch_items collection: a live mirror for reads and
// fire-and-forget mutations for writes. Mutations never touch the mirror;
// state changes arrive with the next snapshot.
type Service struct {
	store  *store.Store
	mirror *mirror.Mirror[models.WatchItem]
}

// NewService opens the live mirror over the watch_items collection.
func NewService(st *store.Store) *Service {
	return &Service{
		store:  st,
		mirror: mirror.New[models.WatchItem](st, store.CollectionWatchItems),
	}
}

// Close tears down the live subscription.
func (s *Service) Close() {
	s.mirror.Close()
}

// Items returns the mirrored snapshot. Before the first snapshot arrives the
// list is empty rather than an error.
func (s *Service) Items() []models.WatchItem {
	items, ready := s.mirror.Snapshot()
	if !ready {
		return []models.WatchItem{}
	}
	return items
}

// Buckets groups the current snapshot into the three status buckets.
func (s *Service) Buckets() Buckets {
	grouped := mirror.Group(s.Items(), func(item models.WatchItem) string { return item.Status })
	return Buckets{
		Pending:  orEmpty(grouped[models.WatchStatusPending]),
		Watching: orEmpty(grouped[models.WatchStatusWatching]),
		Done:     orEmpty(grouped[models.WatchStatusDone]),
	}
}

// Add creates a watchlist entry with status pending. Movies always start (and
// stay) with null season/episode.
func (s *Service) Add(ctx context.Context, actor models.Identity, in models.WatchItemCreate) (models.WatchItem, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return models.WatchItem{}, ErrIdentityRequired
	}
	if in.TMDBID == 0 {
		return models.WatchItem{}, ErrTMDBIDRequired
	}
	mediaType := strings.ToLower(strings.TrimSpace(in.MediaType))
	if !models.ValidMediaType(mediaType) {
		return models.WatchItem{}, ErrInvalidMediaType
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.WatchItem{}, ErrTitleRequired
	}

	now := time.Now().UTC()
	item := models.WatchItem{
		TMDBID:    in.TMDBID,
		MediaType: mediaType,
		Title:     strings.TrimSpace(in.Title),
		PosterURL: strings.TrimSpace(in.PosterURL),
		Year:      in.Year,
		Status:    models.WatchStatusPending,
		Audit: models.Audit{
			CreatedBy: actor,
			CreatedAt: now,
			UpdatedBy: actor,
			UpdatedAt: now,
		},
	}

	doc, err := s.store.Add(ctx, store.CollectionWatchItems, item, float64(now.UnixMilli()))
	if err != nil {
		return models.WatchItem{}, fmt.Errorf("add watch item: %w", err)
	}

	item.ID = doc.ID
	return item, nil
}

// Update applies a partial update. Nil fields are omitted from the patch and
// therefore never clear stored values; in particular a status change leaves
// season/episode untouched unless they are explicitly passed.
func (s *Service) Update(ctx context.Context, actor models.Identity, id string, in models.WatchItemUpdate) error {
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
	if in.PosterURL != nil {
		patch["posterUrl"] = strings.TrimSpace(*in.PosterURL)
	}
	if in.Status != nil {
		if !models.ValidWatchStatus(*in.Status) {
			return ErrInvalidStatus
		}
		patch["status"] = *in.Status
	}
	if in.Season != nil || in.Episode != nil {
		item, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		if item.MediaType != models.MediaTypeSeries {
			return ErrProgressOnMovie
		}
		if in.Season != nil {
			patch["season"] = *in.Season
		}
		if in.Episode != nil {
			patch["episode"] = *in.Episode
		}
	}

	patch["updatedBy"] = actor
	patch["updatedAt"] = time.Now().UTC()

	if _, err := s.store.Update(ctx, store.CollectionWatchItems, id, patch); err != nil {
		return fmt.Errorf("update watch item: %w", err)
	}
	return nil
}

// Remove deletes a watchlist entry.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionWatchItems, id); err != nil {
		return fmt.Errorf("remove watch item: %w", err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (models.WatchItem, error) {
	doc, err := s.store.Get(ctx, store.CollectionWatchItems, id)
	if err != nil {
		return models.WatchItem{}, err
	}
	var item models.WatchItem
	if err := json.Unmarshal(doc.Body, &item); err != nil {
		return models.WatchItem{}, fmt.Errorf("decode watch item: %w", err)
	}
	return item, nil
}

func orEmpty(items []models.WatchItem) []models.WatchItem {
	if items == nil {
		return []models.WatchItem{}
	}
	return items
}
