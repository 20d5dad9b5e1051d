// Package roulette picks a random candidate from the couple's plans and
// watchlist with an animated reveal that slows down before landing on the
// winner.
package roulette

import (
	"math/rand"
	"strconv"
	"time"

	"nido/models"
)

// Pool sources.
const (
	SourceBoth  = "both"
	SourcePlans = "plans"
	SourceWatch = "watch"
)

// Filter narrows which entries are eligible for a spin.
type Filter struct {
	Source      string `json:"source"` // both | plans | watch
	IncludeDone bool   `json:"includeDone"`
}

// BuildPool flattens plans and watchlist entries into roulette candidates
// according to the filter. Done entries are excluded unless asked for.
func BuildPool(plans []models.Plan, items []models.WatchItem, f Filter) []models.Candidate {
	pool := make([]models.Candidate, 0, len(plans)+len(items))

	if f.Source == SourceBoth || f.Source == SourcePlans {
		for _, p := range plans {
			done := p.Status == models.PlanStatusDone
			if done && !f.IncludeDone {
				continue
			}
			pool = append(pool, models.Candidate{
				Source:   models.CandidateSourcePlan,
				ID:       p.ID,
				Title:    p.Title,
				Subtitle: p.Description,
				Done:     done,
			})
		}
	}

	if f.Source == SourceBoth || f.Source == SourceWatch {
		for _, item := range items {
			done := item.Status == models.WatchStatusDone
			if done && !f.IncludeDone {
				continue
			}
			subtitle := item.MediaType
			if item.Year > 0 {
				subtitle += " · " + strconv.Itoa(item.Year)
			}
			pool = append(pool, models.Candidate{
				Source:    models.CandidateSourceWatch,
				ID:        item.ID,
				Title:     item.Title,
				Subtitle:  subtitle,
				Done:      done,
				MediaType: item.MediaType,
				TMDBID:    item.TMDBID,
			})
		}
	}

	return pool
}

const (
	minSteps = 18
	maxSteps = 36

	baseStepDelay = 60 * time.Millisecond
	maxStepDelay  = 420 * time.Millisecond

	// confirmDelay is the pause between landing on the winner and locking
	// the result in.
	confirmDelay = 900 * time.Millisecond
)

// Step is one tick of the reveal: which candidate to highlight and how long
// to hold it before the next tick.
type Step struct {
	Index int           `json:"index"`
	Delay time.Duration `json:"-"`
}

// Draw is a fully precomputed reveal: a run of highlight steps that slows
// down and lands on the winner at the final step.
type Draw struct {
	Pool    []models.Candidate `json:"pool"`
	Steps   []Step             `json:"steps"`
	Winner  int                `json:"winner"`
	Confirm time.Duration      `json:"-"`
}

// NewDraw picks a winner uniformly from pool and builds the reveal sequence.
// Step delays grow quadratically so the wheel eases out. The pool must not be
// empty.
func NewDraw(pool []models.Candidate, rng *rand.Rand) Draw {
	winner := rng.Intn(len(pool))

	steps := minSteps
	if extra := len(pool); extra > 0 {
		steps += extra
	}
	if steps > maxSteps {
		steps = maxSteps
	}

	out := Draw{
		Pool:    pool,
		Steps:   make([]Step, steps),
		Winner:  winner,
		Confirm: confirmDelay,
	}

	for i := 0; i < steps; i++ {
		index := rng.Intn(len(pool))
		if i == steps-1 {
			index = winner
		}
		// Quadratic ease-out: t in [0,1), delay grows toward maxStepDelay.
		t := float64(i) / float64(steps-1)
		delay := baseStepDelay + time.Duration(t*t*float64(maxStepDelay-baseStepDelay))
		out.Steps[i] = Step{Index: index, Delay: delay}
	}

	return out
}
