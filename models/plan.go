package models

const (
	PlanStatusIdea    = "idea"
	PlanStatusPlanned = "planned"
	PlanStatusDone    = "done"
)

// Plan is a shared plan entry. SortKey is derived from creation time and is
// not necessarily contiguous.
type Plan struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Links       []string `json:"links,omitempty"`
	Status      string   `json:"status"` // idea | planned | done
	SortKey     float64  `json:"sortKey"`
	Audit
}

// PlanCreate captures data required to create a plan.
type PlanCreate struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Links       []string `json:"links,omitempty"`
}

// PlanUpdate is a partial update; nil fields stay untouched.
type PlanUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Links       *[]string `json:"links,omitempty"`
	Status      *string   `json:"status,omitempty"`
	SortKey     *float64  `json:"sortKey,omitempty"`
}

// ValidPlanStatus reports whether s is one of the three plan buckets.
func ValidPlanStatus(s string) bool {
	return s == PlanStatusIdea || s == PlanStatusPlanned || s == PlanStatusDone
}
