package roulette

import (
	"math/rand"
	"testing"

	"nido/models"
)

func testPool(n int) []models.Candidate {
	pool := make([]models.Candidate, n)
	for i := range pool {
		pool[i] = models.Candidate{Source: models.CandidateSourcePlan, ID: string(rune('a' + i)), Title: "p"}
	}
	return pool
}

func TestBuildPoolFiltersDoneBySource(t *testing.T) {
	plans := []models.Plan{
		{ID: "p1", Title: "Cine", Status: models.PlanStatusIdea},
		{ID: "p2", Title: "Museo", Status: models.PlanStatusDone},
	}
	items := []models.WatchItem{
		{ID: "w1", Title: "The Matrix", MediaType: models.MediaTypeMovie, Status: models.WatchStatusPending},
		{ID: "w2", Title: "Old Show", MediaType: models.MediaTypeSeries, Status: models.WatchStatusDone},
	}

	pool := BuildPool(plans, items, Filter{Source: SourceBoth})
	if len(pool) != 2 {
		t.Fatalf("pool size = %d, want 2 (done excluded)", len(pool))
	}

	pool = BuildPool(plans, items, Filter{Source: SourceBoth, IncludeDone: true})
	if len(pool) != 4 {
		t.Fatalf("pool size = %d, want 4 (done included)", len(pool))
	}

	pool = BuildPool(plans, items, Filter{Source: SourcePlans})
	if len(pool) != 1 || pool[0].Source != models.CandidateSourcePlan {
		t.Fatalf("plans-only pool = %+v", pool)
	}

	pool = BuildPool(plans, items, Filter{Source: SourceWatch})
	if len(pool) != 1 || pool[0].Source != models.CandidateSourceWatch {
		t.Fatalf("watch-only pool = %+v", pool)
	}
}

func TestNewDrawEndsOnWinnerWithinStepBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, size := range []int{1, 3, 10, 50} {
		draw := NewDraw(testPool(size), rng)

		if len(draw.Steps) < minSteps || len(draw.Steps) > maxSteps {
			t.Fatalf("pool %d: %d steps, want between %d and %d", size, len(draw.Steps), minSteps, maxSteps)
		}
		if draw.Winner < 0 || draw.Winner >= size {
			t.Fatalf("pool %d: winner index %d out of range", size, draw.Winner)
		}
		if last := draw.Steps[len(draw.Steps)-1]; last.Index != draw.Winner {
			t.Fatalf("pool %d: last step lands on %d, want winner %d", size, last.Index, draw.Winner)
		}
		for i, step := range draw.Steps {
			if step.Index < 0 || step.Index >= size {
				t.Fatalf("pool %d: step %d index %d out of range", size, i, step.Index)
			}
		}
	}
}

func TestNewDrawDelaysEaseOut(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	draw := NewDraw(testPool(5), rng)

	first := draw.Steps[0].Delay
	last := draw.Steps[len(draw.Steps)-1].Delay
	if last <= first {
		t.Fatalf("delays should grow: first %v, last %v", first, last)
	}
	for i := 1; i < len(draw.Steps); i++ {
		if draw.Steps[i].Delay < draw.Steps[i-1].Delay {
			t.Fatalf("delay shrank at step %d: %v -> %v", i, draw.Steps[i-1].Delay, draw.Steps[i].Delay)
		}
	}
}
