package models

// SearchResult is one entry returned by the external catalog search, already
// filtered to the supported media kinds.
type SearchResult struct {
	TMDBID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"` // movie | series
	Title     string `json:"title"`
	Overview  string `json:"overview,omitempty"`
	Year      int    `json:"year,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// TitleDetails is the per-title detail record fetched for a selected search
// result.
type TitleDetails struct {
	TMDBID    int64    `json:"tmdbId"`
	MediaType string   `json:"mediaType"`
	Title     string   `json:"title"`
	Overview  string   `json:"overview,omitempty"`
	Year      int      `json:"year,omitempty"`
	PosterURL string   `json:"posterUrl,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Seasons   int      `json:"seasons,omitempty"`
	Episodes  int      `json:"episodes,omitempty"`
}
