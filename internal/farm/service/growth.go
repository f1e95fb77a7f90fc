package service

import (
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

// 步骤时长统一折算成整天：
// day 直接累加；hour 满 12 小时算 1 天，不足算 0；未知单位按天处理。
// stepDays 返回单个步骤折算后的天数
func stepDays(step entity.Step) int {
	switch step.DurationUnit {
	case entity.StepUnitHour:
		if step.DurationValue >= 12 {
			return 1
		}
		return 0
	default:
		return int(step.DurationValue)
	}
}

// RecipeGrowDays 计算配方总生长天数
// 空配方返回 0，由它推出的任何日期都等于播种日
func RecipeGrowDays(steps []entity.Step) int {
	total := 0
	for _, step := range sortedSteps(steps) {
		total += stepDays(step)
	}
	return total
}

// sortedSteps 按 sequence 升序返回步骤副本
// 求和本身与顺序无关，但"当前待处理步骤"等判定依赖这个确定性顺序
func sortedSteps(steps []entity.Step) []entity.Step {
	out := make([]entity.Step, len(steps))
	copy(out, steps)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Sequence < out[j-1].Sequence; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// StepDate 步骤及其排期日
type StepDate struct {
	Step entity.Step
	Date time.Time
}

// StepSchedule 以播种日为起点给每个步骤排期
// 每步的排期日 = 播种日 + 之前所有步骤的折算天数
func StepSchedule(steps []entity.Step, sowDate time.Time) []StepDate {
	ordered := sortedSteps(steps)
	out := make([]StepDate, 0, len(ordered))
	offset := 0
	for _, step := range ordered {
		out = append(out, StepDate{
			Step: step,
			Date: sowDate.AddDate(0, 0, offset),
		})
		offset += stepDays(step)
	}
	return out
}

// ProjectedHarvestDate 预计收获日 = 播种日 + 总生长天数
func ProjectedHarvestDate(steps []entity.Step, sowDate time.Time) time.Time {
	return sowDate.AddDate(0, 0, RecipeGrowDays(steps))
}
