package entity

import (
	"time"
)

// 步骤时长单位
const (
	StepUnitDay  = "day"
	StepUnitHour = "hour"
)

// Recipe 种植配方
// farm_id 为空表示全局模板配方，只读；农场首次使用时复制为自有配方
type Recipe struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID         *string    `json:"farm_id" gorm:"size:32;index"`
	VarietyID      *string    `json:"variety_id" gorm:"size:32;index"`
	Name           string     `json:"name" gorm:"size:128;not null"`
	Description    string     `json:"description" gorm:"type:text"`
	SourceRecipeID *string    `json:"source_recipe_id" gorm:"size:32;index"`
	CreatedBy      string     `json:"created_by" gorm:"size:32"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Variety *Variety `json:"variety,omitempty" gorm:"foreignKey:VarietyID"`
	Steps   []Step   `json:"steps,omitempty" gorm:"foreignKey:RecipeID"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// IsGlobal 是否为全局模板配方
func (r *Recipe) IsGlobal() bool {
	return r.FarmID == nil
}

// Step 配方步骤
// 同一配方内 sequence 唯一，步骤按 sequence 全序排列
type Step struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	RecipeID      string    `json:"recipe_id" gorm:"size:32;not null;uniqueIndex:uniq_recipe_sequence"`
	Sequence      int       `json:"sequence" gorm:"not null;uniqueIndex:uniq_recipe_sequence"`
	Name          string    `json:"name" gorm:"size:128;not null"`
	Description   string    `json:"description" gorm:"type:text"`
	DurationValue float64   `json:"duration_value" gorm:"not null;default:0"`
	DurationUnit  string    `json:"duration_unit" gorm:"size:8;not null;default:day"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Step) TableName() string {
	return "recipe_steps"
}
