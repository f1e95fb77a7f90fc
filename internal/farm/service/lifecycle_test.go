package service

import (
	"testing"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

func TestResolveTrayStage(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	harvested := day(10)

	tests := []struct {
		name  string
		tray  entity.Tray
		steps []entity.TrayStep
		want  string
	}{
		{
			name: "lost wins over everything",
			tray: entity.Tray{Status: entity.TrayStatusLost, HarvestDate: &harvested},
			steps: []entity.TrayStep{
				{Name: "Blackout", Status: entity.TrayStepStatusPending, ScheduledDate: day(1)},
			},
			want: entity.TrayStageLost,
		},
		{
			name: "harvested wins over pending steps",
			tray: entity.Tray{Status: entity.TrayStatusActive, HarvestDate: &harvested},
			steps: []entity.TrayStep{
				{Name: "Light", Status: entity.TrayStepStatusPending, ScheduledDate: day(3)},
			},
			want: entity.TrayStageHarvested,
		},
		{
			name: "earliest pending step names the stage",
			tray: entity.Tray{Status: entity.TrayStatusActive},
			steps: []entity.TrayStep{
				{Name: "Light", Status: entity.TrayStepStatusPending, ScheduledDate: day(5), Sequence: 3},
				{Name: "Blackout", Status: entity.TrayStepStatusPending, ScheduledDate: day(2), Sequence: 2},
				{Name: "Germination", Status: entity.TrayStepStatusCompleted, ScheduledDate: day(0), Sequence: 1},
			},
			want: "Blackout",
		},
		{
			name: "same day ties break by sequence",
			tray: entity.Tray{Status: entity.TrayStatusActive},
			steps: []entity.TrayStep{
				{Name: "Uncover", Status: entity.TrayStepStatusPending, ScheduledDate: day(2), Sequence: 3},
				{Name: "Mist", Status: entity.TrayStepStatusPending, ScheduledDate: day(2), Sequence: 2},
			},
			want: "Mist",
		},
		{
			name: "skipped steps are not current",
			tray: entity.Tray{Status: entity.TrayStatusActive},
			steps: []entity.TrayStep{
				{Name: "Blackout", Status: entity.TrayStepStatusSkipped, ScheduledDate: day(1), Sequence: 1},
				{Name: "Light", Status: entity.TrayStepStatusPending, ScheduledDate: day(4), Sequence: 2},
			},
			want: "Light",
		},
		{
			name:  "no pending steps falls back to growing",
			tray:  entity.Tray{Status: entity.TrayStatusActive},
			steps: []entity.TrayStep{{Name: "Germination", Status: entity.TrayStepStatusCompleted, ScheduledDate: day(0)}},
			want:  entity.TrayStageGrowing,
		},
		{
			name: "no steps at all is growing",
			tray: entity.Tray{Status: entity.TrayStatusActive},
			want: entity.TrayStageGrowing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTrayStage(&tt.tray, tt.steps); got != tt.want {
				t.Errorf("ResolveTrayStage() = %q, want %q", got, tt.want)
			}
		})
	}
}
