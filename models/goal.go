package models

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	GoalStatusActive = "active"
	GoalStatusPaused = "paused"
	GoalStatusDone   = "done"
)

const (
	GoalPriorityLow    = "low"
	GoalPriorityMedium = "medium"
	GoalPriorityHigh   = "high"
)

// DefaultCurrency is the fixed currency for money progress records.
const DefaultCurrency = "COP"

// ErrProgressEmpty is returned when a goal's progress resolves to neither a
// money nor a checklist sub-record.
var ErrProgressEmpty = errors.New("goal progress must contain money and/or checklist")

// Goal is a shared goal entry with an attached progress record.
type Goal struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`             // active | paused | done
	Priority    string       `json:"priority,omitempty"` // low | medium | high
	TargetDate  *time.Time   `json:"targetDate,omitempty"`
	Progress    GoalProgress `json:"progress"`
	SortKey     float64      `json:"sortKey"`
	Audit
}

// MoneyProgress tracks an amount saved toward a target in a fixed currency.
type MoneyProgress struct {
	Currency      string  `json:"currency"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
}

// ChecklistStep is one ordered step of a checklist progress record.
type ChecklistStep struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ChecklistProgress tracks ordered completion steps.
type ChecklistProgress struct {
	Steps []ChecklistStep `json:"steps"`
}

// GoalProgress always resolves to at least one populated sub-record. Legacy
// documents written with the older single-mode shape
// ({mode, targetAmount, currentAmount} or {mode, steps}) are normalized into
// the dual shape when decoded; unknown extra fields on legacy documents are
// dropped.
type GoalProgress struct {
	Money     *MoneyProgress     `json:"money,omitempty"`
	Checklist *ChecklistProgress `json:"checklist,omitempty"`
}

// Empty reports whether the progress carries no sub-record at all.
func (p GoalProgress) Empty() bool {
	return p.Money == nil && p.Checklist == nil
}

// UnmarshalJSON decodes both the current dual-sub-record shape and the legacy
// single-mode shape, so every read path sees normalized progress.
func (p *GoalProgress) UnmarshalJSON(data []byte) error {
	var aux struct {
		Money     *MoneyProgress     `json:"money"`
		Checklist *ChecklistProgress `json:"checklist"`

		Mode          string          `json:"mode"`
		TargetAmount  float64         `json:"targetAmount"`
		CurrentAmount float64         `json:"currentAmount"`
		Steps         []ChecklistStep `json:"steps"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Money = aux.Money
	p.Checklist = aux.Checklist

	if p.Money == nil && p.Checklist == nil {
		switch aux.Mode {
		case "money":
			p.Money = &MoneyProgress{
				Currency:      DefaultCurrency,
				TargetAmount:  aux.TargetAmount,
				CurrentAmount: aux.CurrentAmount,
			}
		case "checklist":
			p.Checklist = &ChecklistProgress{Steps: aux.Steps}
		}
	}

	if p.Money != nil && p.Money.Currency == "" {
		p.Money.Currency = DefaultCurrency
	}

	return nil
}

// GoalCreate captures data required to create a goal.
type GoalCreate struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    string       `json:"priority,omitempty"`
	TargetDate  *time.Time   `json:"targetDate,omitempty"`
	Progress    GoalProgress `json:"progress"`
}

// GoalUpdate is a partial update; nil fields stay untouched.
type GoalUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *string       `json:"status,omitempty"`
	Priority    *string       `json:"priority,omitempty"`
	TargetDate  *time.Time    `json:"targetDate,omitempty"`
	Progress    *GoalProgress `json:"progress,omitempty"`
	SortKey     *float64      `json:"sortKey,omitempty"`
}

// ValidGoalStatus reports whether s is one of the three goal buckets.
func ValidGoalStatus(s string) bool {
	return s == GoalStatusActive || s == GoalStatusPaused || s == GoalStatusDone
}

// ValidGoalPriority reports whether s is a recognised priority. The empty
// string is valid: priority is optional.
func ValidGoalPriority(s string) bool {
	return s == "" || s == GoalPriorityLow || s == GoalPriorityMedium || s == GoalPriorityHigh
}
