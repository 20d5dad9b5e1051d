// Package metadata searches the external title catalog and fetches per-title
// details for the watchlist add flow.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"nido/models"
)

var (
	ErrNotConfigured = errors.New("catalog api key not configured")
	ErrQueryRequired = errors.New("search query is required")
	ErrUnknownKind   = errors.New("media type must be movie or series")
	// ErrStale marks a detail fetch superseded by a newer selection.
	ErrStale = errors.New("detail fetch superseded")
)

// Service wraps the catalog client with the app's media model: only movies
// and series, Spanish-first display strings, poster URLs resolved.
type Service struct {
	client *tmdbClient
}

// NewService builds a catalog service. httpc may be nil.
func NewService(apiKey, language string, httpc *http.Client) *Service {
	return &Service{client: newTMDBClient(apiKey, language, httpc)}
}

// Search queries the catalog and keeps only movie and series results.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if !s.client.isConfigured() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	resp, err := s.client.searchMulti(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	results := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		mediaType, ok := mapMediaType(r.MediaType)
		if !ok {
			continue
		}
		results = append(results, models.SearchResult{
			TMDBID:    r.ID,
			MediaType: mediaType,
			Title:     displayTitle(r.Title, r.Name),
			Overview:  r.Overview,
			Year:      displayYear(r.ReleaseDate, r.FirstAirDate),
			PosterURL: s.client.posterURL(r.PosterPath),
		})
	}
	return results, nil
}

// Details fetches the full record for a single title.
func (s *Service) Details(ctx context.Context, mediaType string, id int64) (models.TitleDetails, error) {
	if !s.client.isConfigured() {
		return models.TitleDetails{}, ErrNotConfigured
	}

	var (
		resp tmdbDetailsResponse
		err  error
	)
	switch mediaType {
	case models.MediaTypeMovie:
		resp, err = s.client.movieDetails(ctx, id)
	case models.MediaTypeSeries:
		resp, err = s.client.tvDetails(ctx, id)
	default:
		return models.TitleDetails{}, ErrUnknownKind
	}
	if err != nil {
		return models.TitleDetails{}, fmt.Errorf("fetch title details: %w", err)
	}

	genres := make([]string, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		genres = append(genres, g.Name)
	}

	return models.TitleDetails{
		TMDBID:    resp.ID,
		MediaType: mediaType,
		Title:     displayTitle(resp.Title, resp.Name),
		Overview:  resp.Overview,
		Year:      displayYear(resp.ReleaseDate, resp.FirstAirDate),
		PosterURL: s.client.posterURL(resp.PosterPath),
		Genres:    genres,
		Seasons:   resp.NumberOfSeasons,
		Episodes:  resp.NumberOfEpisodes,
	}, nil
}

// DetailSession serialises detail fetches for one browsing session: each new
// selection supersedes the previous one, and a superseded fetch resolves to
// ErrStale instead of delivering an outdated record.
type DetailSession struct {
	svc *Service

	mu  sync.Mutex
	gen uint64
}

// NewDetailSession creates a session over svc.
func (s *Service) NewDetailSession() *DetailSession {
	return &DetailSession{svc: s}
}

// Fetch resolves details for the latest selection. If Fetch is called again
// before this call completes, the earlier call returns ErrStale.
func (d *DetailSession) Fetch(ctx context.Context, mediaType string, id int64) (models.TitleDetails, error) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	details, err := d.svc.Details(ctx, mediaType, id)

	d.mu.Lock()
	stale := gen != d.gen
	d.mu.Unlock()
	if stale {
		return models.TitleDetails{}, ErrStale
	}
	return details, err
}

func mapMediaType(tmdbKind string) (string, bool) {
	switch tmdbKind {
	case "movie":
		return models.MediaTypeMovie, true
	case "tv":
		return models.MediaTypeSeries, true
	}
	return "", false
}

// displayTitle prefers the movie title, then the series name, then a fixed
// Spanish fallback so cards never render blank.
func displayTitle(title, name string) string {
	if title != "" {
		return title
	}
	if name != "" {
		return name
	}
	return "Sin título"
}

func displayYear(releaseDate, firstAirDate string) int {
	if y := yearOf(releaseDate); y != 0 {
		return y
	}
	return yearOf(firstAirDate)
}
