package service

import (
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

// ResolveTrayStage 推导托盘的展示阶段
// 阶段不落库，每次读取时从状态位和待处理步骤现算，避免缓存字段漂移。
// 判定优先级严格固定：Lost > Harvested > 最早待处理步骤名 > Growing。
// 已报损但仍有待处理步骤的托盘必须显示 Lost。
func ResolveTrayStage(tray *entity.Tray, steps []entity.TrayStep) string {
	if tray.IsLost() {
		return entity.TrayStageLost
	}
	if tray.IsHarvested() {
		return entity.TrayStageHarvested
	}
	if current := currentPendingStep(steps); current != nil {
		return current.Name
	}
	return entity.TrayStageGrowing
}

// currentPendingStep 返回排期最早的待处理步骤，同日按 sequence 决胜
func currentPendingStep(steps []entity.TrayStep) *entity.TrayStep {
	var current *entity.TrayStep
	for i := range steps {
		step := &steps[i]
		if step.Status != entity.TrayStepStatusPending {
			continue
		}
		if current == nil {
			current = step
			continue
		}
		if step.ScheduledDate.Before(current.ScheduledDate) ||
			(step.ScheduledDate.Equal(current.ScheduledDate) && step.Sequence < current.Sequence) {
			current = step
		}
	}
	return current
}
