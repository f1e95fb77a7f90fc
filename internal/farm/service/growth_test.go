package service

import (
	"testing"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

func daySteps(durations ...float64) []entity.Step {
	steps := make([]entity.Step, 0, len(durations))
	for i, d := range durations {
		steps = append(steps, entity.Step{
			ID:            string(rune('a' + i)),
			Sequence:      i + 1,
			DurationValue: d,
			DurationUnit:  entity.StepUnitDay,
		})
	}
	return steps
}

func TestRecipeGrowDays(t *testing.T) {
	tests := []struct {
		name  string
		steps []entity.Step
		want  int
	}{
		{"empty recipe", nil, 0},
		{"all day steps", daySteps(3, 4, 5), 12},
		{
			"hour step at threshold rounds to one day",
			[]entity.Step{
				{Sequence: 1, DurationValue: 3, DurationUnit: entity.StepUnitDay},
				{Sequence: 2, DurationValue: 18, DurationUnit: entity.StepUnitHour},
				{Sequence: 3, DurationValue: 6, DurationUnit: entity.StepUnitHour},
			},
			4,
		},
		{
			"exactly 12 hours counts as one day",
			[]entity.Step{{Sequence: 1, DurationValue: 12, DurationUnit: entity.StepUnitHour}},
			1,
		},
		{
			"under 12 hours counts as zero days",
			[]entity.Step{{Sequence: 1, DurationValue: 11.9, DurationUnit: entity.StepUnitHour}},
			0,
		},
		{
			"unknown unit treated as days",
			[]entity.Step{{Sequence: 1, DurationValue: 5, DurationUnit: "week"}},
			5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecipeGrowDays(tt.steps); got != tt.want {
				t.Errorf("RecipeGrowDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecipeGrowDaysOrderIndependent(t *testing.T) {
	steps := daySteps(2, 3, 4)
	reversed := []entity.Step{steps[2], steps[0], steps[1]}

	if RecipeGrowDays(steps) != RecipeGrowDays(reversed) {
		t.Errorf("grow days changed with input order: %d vs %d",
			RecipeGrowDays(steps), RecipeGrowDays(reversed))
	}
}

func TestStepSchedule(t *testing.T) {
	sow := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	steps := []entity.Step{
		{Sequence: 2, Name: "Blackout", DurationValue: 3, DurationUnit: entity.StepUnitDay},
		{Sequence: 1, Name: "Germination", DurationValue: 2, DurationUnit: entity.StepUnitDay},
		{Sequence: 3, Name: "Light", DurationValue: 5, DurationUnit: entity.StepUnitDay},
	}

	schedule := StepSchedule(steps, sow)
	if len(schedule) != 3 {
		t.Fatalf("expected 3 scheduled steps, got %d", len(schedule))
	}

	wantDates := []time.Time{
		sow,
		sow.AddDate(0, 0, 2),
		sow.AddDate(0, 0, 5),
	}
	wantNames := []string{"Germination", "Blackout", "Light"}
	for i, sd := range schedule {
		if sd.Step.Name != wantNames[i] {
			t.Errorf("step %d: expected %s, got %s", i, wantNames[i], sd.Step.Name)
		}
		if !sd.Date.Equal(wantDates[i]) {
			t.Errorf("step %d: expected date %v, got %v", i, wantDates[i], sd.Date)
		}
	}
}

func TestProjectedHarvestDate(t *testing.T) {
	sow := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	got := ProjectedHarvestDate(daySteps(2, 3, 5), sow)
	want := sow.AddDate(0, 0, 10)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Empty recipe harvests on the sow date
	if got := ProjectedHarvestDate(nil, sow); !got.Equal(sow) {
		t.Errorf("empty recipe: expected %v, got %v", sow, got)
	}
}
