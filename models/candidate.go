package models

const (
	CandidateSourcePlan  = "plan"
	CandidateSourceWatch = "watch"
)

// Candidate is a view-only roulette entry projected from a Plan or WatchItem.
// It carries enough of the original document to navigate back to it and is
// never persisted.
type Candidate struct {
	Source    string `json:"source"` // plan | watch
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Done      bool   `json:"done"`
	MediaType string `json:"mediaType,omitempty"`
	TMDBID    int64  `json:"tmdbId,omitempty"`
}
