package service

import (
	"strings"
	"testing"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

func TestFilterQualifyingBatches(t *testing.T) {
	batches := []entity.SeedBatch{
		{ID: "b1", RemainingGrams: 10},
		{ID: "b2", RemainingGrams: 30},
		{ID: "b3", RemainingGrams: 29.9},
	}

	got := FilterQualifyingBatches(batches, 30)
	if len(got) != 1 || got[0].ID != "b2" {
		t.Errorf("expected only b2 to qualify, got %v", got)
	}

	// Exact remaining qualifies
	got = FilterQualifyingBatches(batches, 10)
	if len(got) != 3 {
		t.Errorf("expected all batches at threshold 10, got %d", len(got))
	}

	if got := FilterQualifyingBatches(nil, 5); len(got) != 0 {
		t.Errorf("expected no batches from empty input, got %v", got)
	}
}

func TestFilterQualifyingBatchesMonotone(t *testing.T) {
	batches := []entity.SeedBatch{
		{ID: "b1", RemainingGrams: 10},
		{ID: "b2", RemainingGrams: 20},
		{ID: "b3", RemainingGrams: 40},
	}

	// Raising the requirement can only shrink the qualifying set
	prev := len(FilterQualifyingBatches(batches, 0))
	for _, required := range []float64{5, 15, 25, 45} {
		cur := len(FilterQualifyingBatches(batches, required))
		if cur > prev {
			t.Errorf("qualifying set grew from %d to %d at requirement %v", prev, cur, required)
		}
		prev = cur
	}
}

func TestEarliestPurchaseFirst(t *testing.T) {
	d := func(day int) *time.Time {
		t := time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC)
		return &t
	}

	batches := []entity.SeedBatch{
		{ID: "b1", PurchasedAt: d(20)},
		{ID: "b2", PurchasedAt: d(5)},
		{ID: "b3", PurchasedAt: nil}, // unknown purchase date sorts last
	}

	picked := EarliestPurchaseFirst(batches)
	if picked == nil || picked.ID != "b2" {
		t.Errorf("expected b2, got %v", picked)
	}

	if EarliestPurchaseFirst(nil) != nil {
		t.Error("expected nil for empty input")
	}

	only := []entity.SeedBatch{{ID: "b3", PurchasedAt: nil}}
	if picked := EarliestPurchaseFirst(only); picked == nil || picked.ID != "b3" {
		t.Errorf("expected lone undated batch, got %v", picked)
	}
}

func TestInsufficientSeedError(t *testing.T) {
	err := &InsufficientSeedError{RequiredGrams: 30, BestAvailable: 12}
	msg := err.Error()
	if !strings.Contains(msg, "30.0") || !strings.Contains(msg, "12.0") || !strings.Contains(msg, "18.0") {
		t.Errorf("error should name requirement, best batch and shortfall: %s", msg)
	}
}

func TestSeedGramsPerTrayConversion(t *testing.T) {
	grams := entity.Variety{SeedMassPerTray: 30, SeedMassUnit: entity.MassUnitGram}
	if got := grams.SeedGramsPerTray(); got != 30 {
		t.Errorf("grams should pass through, got %v", got)
	}

	ounces := entity.Variety{SeedMassPerTray: 2, SeedMassUnit: entity.MassUnitOunce}
	if got := ounces.SeedGramsPerTray(); got != 56.7 {
		t.Errorf("expected 56.7g for 2oz, got %v", got)
	}
}
