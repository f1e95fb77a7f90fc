package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/entity"
	"github.com/boilermanc/sproutify-micro-sub002/internal/farm/repository"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
)

// PlanLine 播种计划里一条贡献订单行
type PlanLine struct {
	CustomerName string    `json:"customer_name"`
	ProductName  string    `json:"product_name"`
	Trays        float64   `json:"trays"`
	TrayCount    int       `json:"tray_count"`
	DeliveryDate time.Time `json:"delivery_date"`
	LeadTimeDays int       `json:"lead_time_days"`
}

// PlanGroup 按配方汇总的播种计划组
type PlanGroup struct {
	RecipeID         string     `json:"recipe_id"`
	RecipeName       string     `json:"recipe_name"`
	VarietyName      string     `json:"variety_name"`
	SeedGramsPerTray float64    `json:"seed_grams_per_tray"`
	TotalTrays       int        `json:"total_trays"`
	TotalSeedGrams   float64    `json:"total_seed_grams"`
	Lines            []PlanLine `json:"lines"`
}

// SeedingPlan 单个播种日的完整计划，供打印/导出
type SeedingPlan struct {
	Date           time.Time   `json:"date"`
	VarietyCount   int         `json:"variety_count"`
	TotalTrays     int         `json:"total_trays"`
	TotalSeedGrams float64     `json:"total_seed_grams"`
	Groups         []PlanGroup `json:"groups"`
}

// BuildSeedingPlan 把一天的播种条目按配方分组汇总
// 盘数按贡献订单行逐行向上取整再求和——半盘没法播，
// ceil(2.4)+ceil(3.1) 是 7 盘而不是 ceil(5.5)=6 盘。
// 纯投影，无副作用。
func BuildSeedingPlan(date time.Time, entries []ScheduleEntry) *SeedingPlan {
	day := DateOnly(date)
	groups := make(map[string]*PlanGroup)
	var order []string

	for _, e := range entries {
		if e.Type != entity.TaskTypeSeed || !DateOnly(e.Date).Equal(day) {
			continue
		}
		group, ok := groups[e.RecipeID]
		if !ok {
			group = &PlanGroup{
				RecipeID:         e.RecipeID,
				RecipeName:       e.RecipeName,
				VarietyName:      e.VarietyName,
				SeedGramsPerTray: e.SeedGramsPerTray,
			}
			groups[e.RecipeID] = group
			order = append(order, e.RecipeID)
		}
		trayCount := int(math.Ceil(e.Trays))
		group.TotalTrays += trayCount
		group.Lines = append(group.Lines, PlanLine{
			CustomerName: e.CustomerName,
			ProductName:  e.ProductName,
			Trays:        e.Trays,
			TrayCount:    trayCount,
			DeliveryDate: e.DeliveryDate,
			LeadTimeDays: e.LeadTimeDays,
		})
	}

	sort.Strings(order)

	plan := &SeedingPlan{Date: day}
	varieties := make(map[string]bool)
	for _, recipeID := range order {
		group := groups[recipeID]
		group.TotalSeedGrams = group.SeedGramsPerTray * float64(group.TotalTrays)
		plan.Groups = append(plan.Groups, *group)
		plan.TotalTrays += group.TotalTrays
		plan.TotalSeedGrams += group.TotalSeedGrams
		if group.VarietyName != "" {
			varieties[group.VarietyName] = true
		}
	}
	plan.VarietyCount = len(varieties)
	return plan
}

// PlanService 播种计划报表服务
type PlanService struct {
	orderRepo   *repository.OrderRepository
	recipeRepo  *repository.RecipeRepository
	minioClient *minio.Client
	bucket      string
}

// NewPlanService 创建播种计划服务
func NewPlanService(orderRepo *repository.OrderRepository, recipeRepo *repository.RecipeRepository, minioClient *minio.Client, bucket string) *PlanService {
	return &PlanService{
		orderRepo:   orderRepo,
		recipeRepo:  recipeRepo,
		minioClient: minioClient,
		bucket:      bucket,
	}
}

// SeedingPlan 生成某个播种日的计划
func (s *PlanService) SeedingPlan(ctx context.Context, farmID string, date time.Time) (*SeedingPlan, error) {
	day := DateOnly(date)
	entries, err := loadScheduleEntries(ctx, s.orderRepo, s.recipeRepo, farmID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return BuildSeedingPlan(day, entries), nil
}

// ExportXLSX 渲染计划为 XLSX 工作簿
func (s *PlanService) ExportXLSX(plan *SeedingPlan) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Seeding Plan"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Seeding Plan")
	f.SetCellValue(sheet, "B1", plan.Date.Format("2006-01-02"))
	f.SetCellValue(sheet, "A2", "Varieties")
	f.SetCellValue(sheet, "B2", plan.VarietyCount)
	f.SetCellValue(sheet, "A3", "Total trays")
	f.SetCellValue(sheet, "B3", plan.TotalTrays)
	f.SetCellValue(sheet, "A4", "Total seed (g)")
	f.SetCellValue(sheet, "B4", plan.TotalSeedGrams)

	row := 6
	headers := []string{"Recipe", "Variety", "Trays", "Seed/tray (g)", "Seed total (g)", "Customer", "Product", "Delivery", "Lead (d)"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, header)
	}
	row++

	for _, group := range plan.Groups {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), group.RecipeName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), group.VarietyName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), group.TotalTrays)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), group.SeedGramsPerTray)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), group.TotalSeedGrams)
		row++
		for _, line := range group.Lines {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.TrayCount)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), line.CustomerName)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), line.ProductName)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), line.DeliveryDate.Format("2006-01-02"))
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), line.LeadTimeDays)
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// StoreExport 把导出的工作簿存到对象存储（未配置时跳过）
func (s *PlanService) StoreExport(ctx context.Context, farmID string, date time.Time, data []byte) (string, error) {
	if s.minioClient == nil {
		return "", nil
	}
	objectName := fmt.Sprintf("seeding-plans/%s/%s.xlsx", farmID, DateOnly(date).Format("2006-01-02"))
	_, err := s.minioClient.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	return objectName, nil
}
