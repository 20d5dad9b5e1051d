package models

const (
	MediaTypeMovie  = "movie"
	MediaTypeSeries = "series"
)

const (
	WatchStatusPending  = "pending"
	WatchStatusWatching = "watching"
	WatchStatusDone     = "done"
)

// WatchItem is a shared watchlist entry backed by an external catalog title.
// Season/episode progress is only meaningful when MediaType is "series";
// movies keep both at null.
type WatchItem struct {
	ID        string `json:"id"`
	TMDBID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"` // movie | series
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
	Year      int    `json:"year,omitempty"`
	Status    string `json:"status"` // pending | watching | done
	Season    *int   `json:"season"`
	Episode   *int   `json:"episode"`
	Audit
}

// WatchItemCreate captures data required to add a watchlist entry.
type WatchItemCreate struct {
	TMDBID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// WatchItemUpdate is a partial update. Nil fields are not sent to the store
// and are never interpreted as "clear this field".
type WatchItemUpdate struct {
	Title     *string `json:"title,omitempty"`
	PosterURL *string `json:"posterUrl,omitempty"`
	Status    *string `json:"status,omitempty"`
	Season    *int    `json:"season,omitempty"`
	Episode   *int    `json:"episode,omitempty"`
}

// ValidWatchStatus reports whether s is one of the three watch buckets.
func ValidWatchStatus(s string) bool {
	return s == WatchStatusPending || s == WatchStatusWatching || s == WatchStatusDone
}

// ValidMediaType reports whether s is a supported catalog kind.
func ValidMediaType(s string) bool {
	return s == MediaTypeMovie || s == MediaTypeSeries
}
