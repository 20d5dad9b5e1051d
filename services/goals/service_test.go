package goals

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"nido/models"
	"nido/services/store"
)

var testActor = models.Identity{ID: "member-dani", Email: "dani@nido.casa", Name: "Dani"}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := NewService(st)
	t.Cleanup(func() {
		svc.Close()
		st.Close()
	})
	return svc, st
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func moneyProgress(target, current float64) models.GoalProgress {
	return models.GoalProgress{
		Money: &models.MoneyProgress{TargetAmount: target, CurrentAmount: current},
	}
}

func TestCreateStartsActiveAndDefaultsCurrency(t *testing.T) {
	svc, _ := newTestService(t)

	goal, err := svc.Create(context.Background(), testActor, models.GoalCreate{
		Title:    "Fondo de viaje",
		Progress: moneyProgress(5000000, 0),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if goal.Status != models.GoalStatusActive {
		t.Fatalf("status = %s, want active", goal.Status)
	}
	if goal.Progress.Money.Currency != models.DefaultCurrency {
		t.Fatalf("currency = %s, want %s", goal.Progress.Money.Currency, models.DefaultCurrency)
	}
	if goal.CreatedBy.ID != testActor.ID {
		t.Fatal("audit identity not stamped")
	}
}

func TestCreateRejectsEmptyProgress(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), testActor, models.GoalCreate{Title: "Sin progreso"})
	if err != models.ErrProgressEmpty {
		t.Fatalf("err = %v, want ErrProgressEmpty", err)
	}
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), testActor, models.GoalCreate{
		Title:    "Mal formada",
		Priority: "urgent",
		Progress: moneyProgress(1, 0),
	})
	if err != ErrInvalidPriority {
		t.Fatalf("err = %v, want ErrInvalidPriority", err)
	}
}

func TestLegacyProgressNormalizedOnRead(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	// Document written in the older single-mode shape, as it would still
	// exist on disk from before the progress model changed.
	_, err := st.Add(ctx, store.CollectionGoals, map[string]any{
		"title":  "Ahorro moto",
		"status": "active",
		"progress": map[string]any{
			"mode":          "money",
			"targetAmount":  5000,
			"currentAmount": 1000,
		},
	}, 1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	waitFor(t, func() bool { return len(svc.Goals()) == 1 })

	goal := svc.Goals()[0]
	if goal.Progress.Money == nil {
		t.Fatal("legacy progress not normalized to money sub-record")
	}
	if goal.Progress.Money.Currency != models.DefaultCurrency {
		t.Fatalf("currency = %s, want %s", goal.Progress.Money.Currency, models.DefaultCurrency)
	}
	if goal.Progress.Money.TargetAmount != 5000 || goal.Progress.Money.CurrentAmount != 1000 {
		t.Fatalf("amounts = %+v", goal.Progress.Money)
	}
}

func TestUpdateReplacesProgressWholesale(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	goal, err := svc.Create(ctx, testActor, models.GoalCreate{
		Title:    "Remodelar cocina",
		Progress: moneyProgress(100, 10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	progress := models.GoalProgress{
		Checklist: &models.ChecklistProgress{
			Steps: []models.ChecklistStep{{Text: "Cotizar", Done: false}},
		},
	}
	if err := svc.Update(ctx, testActor, goal.ID, models.GoalUpdate{Progress: &progress}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	doc, err := st.Get(ctx, store.CollectionGoals, goal.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var stored models.Goal
	if err := json.Unmarshal(doc.Body, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.Progress.Money != nil {
		t.Fatal("progress update should replace the record, not merge into it")
	}
	if stored.Progress.Checklist == nil || len(stored.Progress.Checklist.Steps) != 1 {
		t.Fatalf("checklist = %+v", stored.Progress.Checklist)
	}
}

func TestBucketsPartitionSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, testActor, models.GoalCreate{Title: "a", Progress: moneyProgress(1, 0)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, testActor, models.GoalCreate{Title: "b", Progress: moneyProgress(1, 0)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := models.GoalStatusPaused
	if err := svc.Update(ctx, testActor, first.ID, models.GoalUpdate{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	waitFor(t, func() bool {
		b := svc.Buckets()
		return len(b.Active) == 1 && len(b.Paused) == 1 && len(b.Done) == 0
	})
}
