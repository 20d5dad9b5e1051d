package models

import (
	"encoding/json"
	"testing"
)

func TestGoalProgressDecodesLegacyMoneyShape(t *testing.T) {
	raw := []byte(`{"mode":"money","targetAmount":5000,"currentAmount":1000}`)

	var p GoalProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Money == nil {
		t.Fatal("expected money sub-record from legacy shape")
	}
	if p.Checklist != nil {
		t.Fatal("legacy money shape should not produce a checklist")
	}
	if p.Money.Currency != DefaultCurrency {
		t.Fatalf("currency = %s, want %s", p.Money.Currency, DefaultCurrency)
	}
	if p.Money.TargetAmount != 5000 || p.Money.CurrentAmount != 1000 {
		t.Fatalf("amounts = %f/%f, want 5000/1000", p.Money.TargetAmount, p.Money.CurrentAmount)
	}
}

func TestGoalProgressDecodesLegacyChecklistShape(t *testing.T) {
	raw := []byte(`{"mode":"checklist","steps":[{"text":"Cotizar vuelos","done":true},{"text":"Reservar hotel","done":false}]}`)

	var p GoalProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Checklist == nil {
		t.Fatal("expected checklist sub-record from legacy shape")
	}
	if len(p.Checklist.Steps) != 2 || !p.Checklist.Steps[0].Done || p.Checklist.Steps[1].Done {
		t.Fatalf("steps = %+v", p.Checklist.Steps)
	}
}

func TestGoalProgressDecodesCurrentShape(t *testing.T) {
	raw := []byte(`{"money":{"currency":"COP","targetAmount":200,"currentAmount":50},"checklist":{"steps":[]}}`)

	var p GoalProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Money == nil || p.Checklist == nil {
		t.Fatal("expected both sub-records")
	}
	if p.Money.TargetAmount != 200 {
		t.Fatalf("target = %f, want 200", p.Money.TargetAmount)
	}
}

func TestGoalProgressFillsMissingCurrency(t *testing.T) {
	raw := []byte(`{"money":{"targetAmount":100,"currentAmount":10}}`)

	var p GoalProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Money.Currency != DefaultCurrency {
		t.Fatalf("currency = %s, want %s", p.Money.Currency, DefaultCurrency)
	}
}

func TestGoalProgressEmpty(t *testing.T) {
	var p GoalProgress
	if !p.Empty() {
		t.Fatal("zero progress should be empty")
	}
	p.Money = &MoneyProgress{Currency: DefaultCurrency}
	if p.Empty() {
		t.Fatal("progress with money should not be empty")
	}
}

func TestDeriveName(t *testing.T) {
	if got := DeriveName("dani@nido.casa", "Dani"); got != "Dani" {
		t.Fatalf("explicit name: got %s", got)
	}
	if got := DeriveName("dani@nido.casa", ""); got != "Dani" {
		t.Fatalf("derived name: got %s", got)
	}
	if got := DeriveName("", ""); got != "" {
		t.Fatalf("empty input: got %q", got)
	}
}
