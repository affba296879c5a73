package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ConsumptionProfileResponse struct {
	ItemID                  int              `json:"ItemId"`
	ItemName                string           `json:"ItemName"`
	Sku                     string           `json:"Sku"`
	CategoryName            *string          `json:"CategoryName,omitempty"`
	CurrentQty              decimal.Decimal  `json:"CurrentQty"`
	AverageDailyConsumption *decimal.Decimal `json:"AverageDailyConsumption,omitempty"`
	ConsumptionCv           *decimal.Decimal `json:"ConsumptionCv,omitempty"`
	VolatilityClass         *string          `json:"VolatilityClass,omitempty"`
	CoverageDays            *int             `json:"CoverageDays,omitempty"`
	ExpectedStockoutDate    *time.Time       `json:"ExpectedStockoutDate,omitempty"`
	LastStatisticsUpdate    *time.Time       `json:"LastStatisticsUpdate,omitempty"`
}

// GetConsumptionProfileReport lists every active item with its current
// statistical profile. Items with no computed profile come back with the
// statistical columns null rather than being filtered out.
func GetConsumptionProfileReport(ctx context.Context, categoryId *int) ([]*ConsumptionProfileResponse, error) {

	sql := `
SELECT
    items.id AS item_id,
    items.name AS item_name,
    items.sku,
    item_categories.name AS category_name,
    items.current_qty,
    items.average_daily_consumption,
    items.consumption_cv,
    items.volatility_class,
    items.coverage_days,
    items.expected_stockout_date,
    items.last_statistics_update
FROM
    items
        LEFT JOIN
    item_categories ON item_categories.id = items.category_id
WHERE
    items.business_id = @businessId
        AND items.is_active = 1
        AND (@categoryId = 0 OR items.category_id = @categoryId)
ORDER BY items.name;
`

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if categoryId != nil && *categoryId != 0 {
		if err := utils.ValidateResourceId[models.ItemCategory](ctx, businessId, *categoryId); err != nil {
			return nil, errors.New("category not found")
		}
	}

	var records []*ConsumptionProfileResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId": businessId,
		"categoryId": utils.DereferencePtr(categoryId),
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

type CorrelationReportResponse struct {
	Item1ID         int             `json:"Item1Id"`
	Item1Name       string          `json:"Item1Name"`
	Item2ID         int             `json:"Item2Id"`
	Item2Name       string          `json:"Item2Name"`
	Coefficient     decimal.Decimal `json:"Coefficient"`
	CorrelationType string          `json:"CorrelationType"`
	ConfidenceLevel string          `json:"ConfidenceLevel"`
	DataPoints      int             `json:"DataPoints"`
	LastCalculated  time.Time       `json:"LastCalculated"`
}

// GetCorrelationReport lists active correlations at or above minCoefficient
// (absolute value), strongest first.
func GetCorrelationReport(ctx context.Context, minCoefficient float64) ([]*CorrelationReportResponse, error) {

	sql := `
SELECT
    ic.item1_id,
    i1.name AS item1_name,
    ic.item2_id,
    i2.name AS item2_name,
    ic.coefficient,
    ic.correlation_type,
    ic.confidence_level,
    ic.data_points,
    ic.last_calculated
FROM
    item_correlations AS ic
        JOIN
    items AS i1 ON i1.id = ic.item1_id
        JOIN
    items AS i2 ON i2.id = ic.item2_id
WHERE
    ic.business_id = @businessId
        AND ic.is_active = 1
        AND ABS(ic.coefficient) >= @minCoefficient
ORDER BY ABS(ic.coefficient) DESC;
`

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var records []*CorrelationReportResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"businessId":     businessId,
		"minCoefficient": minCoefficient,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// ExportConsumptionAnalyticsXlsx builds a workbook with one sheet of item
// profiles and one of correlations. The caller streams it to the response.
func ExportConsumptionAnalyticsXlsx(ctx context.Context) (*excelize.File, error) {

	profiles, err := GetConsumptionProfileReport(ctx, nil)
	if err != nil {
		return nil, err
	}
	correlations, err := GetCorrelationReport(ctx, 0)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	profileSheet := "Profiles"
	if err := f.SetSheetName("Sheet1", profileSheet); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue(profileSheet, "A1", "ItemName")
	f.SetCellValue(profileSheet, "B1", "SKU")
	f.SetCellValue(profileSheet, "C1", "Category")
	f.SetCellValue(profileSheet, "D1", "CurrentQty")
	f.SetCellValue(profileSheet, "E1", "AvgDailyConsumption")
	f.SetCellValue(profileSheet, "F1", "CV")
	f.SetCellValue(profileSheet, "G1", "Volatility")
	f.SetCellValue(profileSheet, "H1", "CoverageDays")
	f.SetCellValue(profileSheet, "I1", "ExpectedStockout")

	// Add data
	for i, p := range profiles {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(profileSheet, "A"+row, p.ItemName)
		f.SetCellValue(profileSheet, "B"+row, p.Sku)
		f.SetCellValue(profileSheet, "C"+row, utils.DereferencePtr(p.CategoryName, ""))
		f.SetCellValue(profileSheet, "D"+row, p.CurrentQty.String())
		if p.AverageDailyConsumption != nil {
			f.SetCellValue(profileSheet, "E"+row, p.AverageDailyConsumption.String())
		}
		if p.ConsumptionCv != nil {
			f.SetCellValue(profileSheet, "F"+row, p.ConsumptionCv.String())
		}
		f.SetCellValue(profileSheet, "G"+row, utils.DereferencePtr(p.VolatilityClass, ""))
		if p.CoverageDays != nil {
			f.SetCellValue(profileSheet, "H"+row, *p.CoverageDays)
		}
		if p.ExpectedStockoutDate != nil {
			f.SetCellValue(profileSheet, "I"+row, p.ExpectedStockoutDate.Format("2006-01-02"))
		}
	}

	corrSheet := "Correlations"
	if _, err := f.NewSheet(corrSheet); err != nil {
		return nil, err
	}

	f.SetCellValue(corrSheet, "A1", "Item1")
	f.SetCellValue(corrSheet, "B1", "Item2")
	f.SetCellValue(corrSheet, "C1", "Coefficient")
	f.SetCellValue(corrSheet, "D1", "Type")
	f.SetCellValue(corrSheet, "E1", "Confidence")
	f.SetCellValue(corrSheet, "F1", "DataPoints")
	f.SetCellValue(corrSheet, "G1", "LastCalculated")

	for i, c := range correlations {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(corrSheet, "A"+row, c.Item1Name)
		f.SetCellValue(corrSheet, "B"+row, c.Item2Name)
		f.SetCellValue(corrSheet, "C"+row, c.Coefficient.String())
		f.SetCellValue(corrSheet, "D"+row, c.CorrelationType)
		f.SetCellValue(corrSheet, "E"+row, c.ConfidenceLevel)
		f.SetCellValue(corrSheet, "F"+row, c.DataPoints)
		f.SetCellValue(corrSheet, "G"+row, c.LastCalculated.Format("2006-01-02 15:04"))
	}

	return f, nil
}
