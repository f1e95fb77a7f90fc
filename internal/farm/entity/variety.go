package entity

import (
	"time"
)

// 种子质量单位
const (
	MassUnitGram  = "g"
	MassUnitOunce = "oz"
)

// GramsPerOunce 盎司转克
const GramsPerOunce = 28.35

// Variety 品种
// farm_id 为空表示共享品种库条目
type Variety struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	FarmID           *string   `json:"farm_id" gorm:"size:32;index"`
	Name             string    `json:"name" gorm:"size:128;not null"`
	SeedMassPerTray  float64   `json:"seed_mass_per_tray" gorm:"not null;default:0"`
	SeedMassUnit     string    `json:"seed_mass_unit" gorm:"size:8;not null;default:g"`
	RequiresSoak     bool      `json:"requires_soak" gorm:"not null;default:false"`
	SoakHours        int       `json:"soak_hours" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Variety) TableName() string {
	return "varieties"
}

// SeedGramsPerTray 单盘所需种子克数（统一换算为克）
func (v *Variety) SeedGramsPerTray() float64 {
	if v.SeedMassUnit == MassUnitOunce {
		return v.SeedMassPerTray * GramsPerOunce
	}
	return v.SeedMassPerTray
}

// SeedBatch 种子批次
// remaining_grams 以克为唯一权威单位存储。历史数据里出现过单位标注
// 与数值量级不一致的行（见 DESIGN.md 技术债说明），新写入一律按克。
type SeedBatch struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	FarmID         string     `json:"farm_id" gorm:"size:32;not null;index"`
	VarietyID      string     `json:"variety_id" gorm:"size:32;not null;index"`
	LotCode        string     `json:"lot_code" gorm:"size:64"`
	Supplier       string     `json:"supplier" gorm:"size:128"`
	RemainingGrams float64    `json:"remaining_grams" gorm:"not null;default:0"`
	PurchasedAt    *time.Time `json:"purchased_at" gorm:"type:date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// 关联
	Variety *Variety `json:"variety,omitempty" gorm:"foreignKey:VarietyID"`
}

func (SeedBatch) TableName() string {
	return "seed_batches"
}
