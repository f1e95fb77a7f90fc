package service

import (
	"sort"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
)

// ScheduleEntry 播种计划条目（派生数据，不落库，随用随算）
// 由长期订单行反推：播种日 = 交付日 − 生长天数 − 交付前置期
type ScheduleEntry struct {
	Type             string    `json:"type"`
	Date             time.Time `json:"date"`
	RecipeID         string    `json:"recipe_id"`
	RecipeName       string    `json:"recipe_name"`
	VarietyName      string    `json:"variety_name"`
	CustomerID       *string   `json:"customer_id,omitempty"`
	CustomerName     string    `json:"customer_name,omitempty"`
	ProductID        *string   `json:"product_id,omitempty"`
	ProductName      string    `json:"product_name,omitempty"`
	Trays            float64   `json:"trays"`
	SeedGramsPerTray float64   `json:"seed_grams_per_tray"`
	DeliveryDate     time.Time `json:"delivery_date"`
	LeadTimeDays     int       `json:"lead_time_days"`
}

// DateOnly 去掉时分秒，计划推导全部按自然日比较
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart 归一化到所在周的周一
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// nextWeekday 返回 from 当天或之后第一个指定星期几的日期
func nextWeekday(from time.Time, weekday int) time.Time {
	d := DateOnly(from)
	diff := (weekday - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, diff)
}

// DeriveSchedule 在 [from, to) 窗口内从长期订单推导播种计划
// 交付按订单行的星期几每周循环。浸种任务固定排在播种日前一天，
// 该偏移与窗口边界无关：即使落进上一周，也会在查询那一周时出现。
func DeriveSchedule(orders []entity.StandingOrder, recipes map[string]*entity.Recipe, from, to time.Time) []ScheduleEntry {
	from = DateOnly(from)
	to = DateOnly(to)

	var entries []ScheduleEntry
	for oi := range orders {
		order := &orders[oi]
		if order.Status != entity.OrderStatusActive {
			continue
		}
		for ii := range order.Items {
			item := &order.Items[ii]
			recipe, ok := recipes[item.RecipeID]
			if !ok || recipe == nil {
				continue
			}
			entries = append(entries, deriveItemEntries(order, item, recipe, from, to)...)
		}
	}
	return entries
}

func deriveItemEntries(order *entity.StandingOrder, item *entity.StandingOrderItem, recipe *entity.Recipe, from, to time.Time) []ScheduleEntry {
	growDays := RecipeGrowDays(recipe.Steps)

	varietyName := ""
	seedGrams := 0.0
	requiresSoak := false
	if recipe.Variety != nil {
		varietyName = recipe.Variety.Name
		seedGrams = recipe.Variety.SeedGramsPerTray()
		requiresSoak = recipe.Variety.RequiresSoak
	}

	customerName := ""
	if order.Customer != nil {
		customerName = order.Customer.Name
	}
	productName := ""
	if item.Product != nil {
		productName = item.Product.Name
	}

	base := ScheduleEntry{
		RecipeID:         recipe.ID,
		RecipeName:       recipe.Name,
		VarietyName:      varietyName,
		CustomerID:       &order.CustomerID,
		CustomerName:     customerName,
		ProductID:        &item.ProductID,
		ProductName:      productName,
		Trays:            item.TraysPerDelivery,
		SeedGramsPerTray: seedGrams,
		LeadTimeDays:     item.LeadTimeDays,
	}

	// 交付日最多比窗口晚 grow+lead+1 天时，它反推出的任务才可能落进窗口
	horizon := to.AddDate(0, 0, growDays+item.LeadTimeDays+1)

	var entries []ScheduleEntry
	emit := func(taskType string, date, delivery time.Time) {
		if date.Before(from) || !date.Before(to) {
			return
		}
		e := base
		e.Type = taskType
		e.Date = date
		e.DeliveryDate = delivery
		entries = append(entries, e)
	}

	for delivery := nextWeekday(from, item.DeliveryWeekday); delivery.Before(horizon); delivery = delivery.AddDate(0, 0, 7) {
		harvest := delivery.AddDate(0, 0, -item.LeadTimeDays)
		sow := harvest.AddDate(0, 0, -growDays)

		if requiresSoak {
			emit(entity.TaskTypeSoak, sow.AddDate(0, 0, -1), delivery)
		}
		emit(entity.TaskTypeSeed, sow, delivery)
		emit(entity.TaskTypeHarvest, harvest, delivery)
		emit(entity.TaskTypeDeliver, delivery, delivery)
	}
	return entries
}

type mergeKey struct {
	Type       string
	Date       time.Time
	RecipeID   string
	CustomerID string
	ProductID  string
}

// MergeEntries 合并相同 (类型, 日期, 配方[, 客户, 产品]) 的条目，数量累加
// 输出顺序确定，同一份输入多次推导得到逐字节一致的结果
func MergeEntries(entries []ScheduleEntry) []ScheduleEntry {
	merged := make(map[mergeKey]*ScheduleEntry)
	order := make([]mergeKey, 0, len(entries))

	for i := range entries {
		e := entries[i]
		key := mergeKey{
			Type:     e.Type,
			Date:     e.Date,
			RecipeID: e.RecipeID,
		}
		if e.CustomerID != nil {
			key.CustomerID = *e.CustomerID
		}
		if e.ProductID != nil {
			key.ProductID = *e.ProductID
		}
		if existing, ok := merged[key]; ok {
			existing.Trays += e.Trays
			continue
		}
		copied := e
		merged[key] = &copied
		order = append(order, key)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.RecipeID != b.RecipeID {
			return a.RecipeID < b.RecipeID
		}
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		return a.ProductID < b.ProductID
	})

	out := make([]ScheduleEntry, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}
