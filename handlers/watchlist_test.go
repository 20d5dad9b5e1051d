package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"nido/models"
	"nido/services/store"
	"nido/services/watchlist"
)

type fakeWatchlist struct {
	items   []models.WatchItem
	added   []models.WatchItemCreate
	removed []string
	addErr  error
}

func (f *fakeWatchlist) Items() []models.WatchItem { return f.items }

func (f *fakeWatchlist) Buckets() watchlist.Buckets {
	return watchlist.Buckets{
		Pending:  []models.WatchItem{},
		Watching: []models.WatchItem{},
		Done:     f.items,
	}
}

func (f *fakeWatchlist) Add(ctx context.Context, actor models.Identity, in models.WatchItemCreate) (models.WatchItem, error) {
	if f.addErr != nil {
		return models.WatchItem{}, f.addErr
	}
	f.added = append(f.added, in)
	return models.WatchItem{ID: "item-1", Title: in.Title}, nil
}

func (f *fakeWatchlist) Update(ctx context.Context, actor models.Identity, id string, in models.WatchItemUpdate) error {
	if id != "item-1" {
		return store.ErrNotFound
	}
	return nil
}

func (f *fakeWatchlist) Remove(ctx context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := &models.Identity{ID: "member-dani", Name: "Dani"}
	return req.WithContext(ContextWithIdentity(req.Context(), identity))
}

func TestWatchlistCreate(t *testing.T) {
	svc := &fakeWatchlist{}
	h := NewWatchlistHandler(svc)

	req := authedRequest(http.MethodPost, "/api/watchlist",
		`{"tmdbId":603,"mediaType":"movie","title":"The Matrix","year":1999}`)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(svc.added) != 1 || svc.added[0].TMDBID != 603 {
		t.Fatalf("added = %+v", svc.added)
	}

	var item models.WatchItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID != "item-1" {
		t.Fatalf("id = %s", item.ID)
	}
}

func TestWatchlistCreateRejectsUnknownFields(t *testing.T) {
	h := NewWatchlistHandler(&fakeWatchlist{})

	req := authedRequest(http.MethodPost, "/api/watchlist", `{"tmdbId":603,"bogus":true}`)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWatchlistCreateValidationError(t *testing.T) {
	h := NewWatchlistHandler(&fakeWatchlist{addErr: watchlist.ErrInvalidMediaType})

	req := authedRequest(http.MethodPost, "/api/watchlist", `{"tmdbId":1,"mediaType":"anime","title":"x"}`)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWatchlistCreateRequiresIdentity(t *testing.T) {
	h := NewWatchlistHandler(&fakeWatchlist{})

	req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWatchlistUpdateNotFound(t *testing.T) {
	h := NewWatchlistHandler(&fakeWatchlist{})

	req := authedRequest(http.MethodPatch, "/api/watchlist/missing", `{"status":"done"}`)
	req = mux.SetURLVars(req, map[string]string{"itemID": "missing"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWatchlistDeleteRequiresConfirmation(t *testing.T) {
	svc := &fakeWatchlist{}
	h := NewWatchlistHandler(svc)

	req := authedRequest(http.MethodDelete, "/api/watchlist/item-1", "")
	req = mux.SetURLVars(req, map[string]string{"itemID": "item-1"})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without confirm", rec.Code)
	}
	if len(svc.removed) != 0 {
		t.Fatal("delete ran without confirmation")
	}

	req = authedRequest(http.MethodDelete, "/api/watchlist/item-1?confirm=true", "")
	req = mux.SetURLVars(req, map[string]string{"itemID": "item-1"})
	rec = httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(svc.removed) != 1 || svc.removed[0] != "item-1" {
		t.Fatalf("removed = %v", svc.removed)
	}
}

func TestWatchlistBuckets(t *testing.T) {
	svc := &fakeWatchlist{items: []models.WatchItem{{ID: "w1", Title: "A", Status: models.WatchStatusDone}}}
	h := NewWatchlistHandler(svc)

	req := authedRequest(http.MethodGet, "/api/watchlist/buckets", "")
	rec := httptest.NewRecorder()
	h.Buckets(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var buckets watchlist.Buckets
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buckets.Done) != 1 || buckets.Done[0].Title != "A" {
		t.Fatalf("buckets = %+v", buckets)
	}
	if buckets.Pending == nil || buckets.Watching == nil {
		t.Fatal("empty buckets must serialize as arrays, not null")
	}
}
