package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Expected sheet layout (Sheet1, header in row 1):
// A: SKU | B: Date (YYYY-MM-DD) | C: OpeningQty | D: ReceivedQty |
// E: ConsumedQty | F: CostCenter | G: EmployeeCount

// ExcelRow is one parsed consumption line from the import sheet.
type ExcelRow struct {
	Sku           string
	RecordDate    time.Time
	OpeningQty    decimal.Decimal
	ReceivedQty   decimal.Decimal
	ConsumedQty   decimal.Decimal
	CostCenter    *string
	EmployeeCount *int
}

// ImportSummary reports per-row outcomes. Duplicate and unknown-SKU rows are
// skipped with a message, not treated as a failed import.
type ImportSummary struct {
	RowsImported int      `json:"rows_imported"`
	RowsSkipped  int      `json:"rows_skipped"`
	SkipMessages []string `json:"skip_messages"`
}

func populateExcelRow(row []string) (*ExcelRow, error) {
	if len(row) < 5 {
		return nil, errors.New("too few columns")
	}

	excelRow := ExcelRow{Sku: strings.TrimSpace(row[0])}
	if excelRow.Sku == "" {
		return nil, errors.New("sku is empty")
	}

	recordDate, err := utils.ParseDate(row[1])
	if err != nil {
		return nil, fmt.Errorf("could not parse date: %v", err)
	}
	excelRow.RecordDate = recordDate

	if excelRow.OpeningQty, err = parseQty(row[2]); err != nil {
		return nil, fmt.Errorf("could not parse opening quantity: %v", err)
	}
	if excelRow.ReceivedQty, err = parseQty(row[3]); err != nil {
		return nil, fmt.Errorf("could not parse received quantity: %v", err)
	}
	if excelRow.ConsumedQty, err = parseQty(row[4]); err != nil {
		return nil, fmt.Errorf("could not parse consumed quantity: %v", err)
	}
	if excelRow.ConsumedQty.IsNegative() || excelRow.ReceivedQty.IsNegative() {
		return nil, errors.New("quantities cannot be negative")
	}

	if len(row) > 5 {
		excelRow.CostCenter = utils.NilIfEmpty(strings.TrimSpace(row[5]))
	}
	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		count, err := strconv.Atoi(strings.TrimSpace(row[6]))
		if err != nil || count < 0 {
			return nil, errors.New("invalid employee count")
		}
		excelRow.EmployeeCount = &count
	}

	return &excelRow, nil
}

func parseQty(value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return utils.ParseDecimal(value)
}

// ImportConsumptionFromXlsx loads daily consumption rows from an .xlsx stream.
// The whole import runs in one transaction under the per-business lock; parse
// errors abort it, duplicates and unknown SKUs are skipped row by row. Touched
// items are dirty-marked in the same transaction so the next stale-only pass
// picks them up.
func ImportConsumptionFromXlsx(ctx context.Context, filename string, file io.Reader) (*ImportSummary, error) {
	if file == nil {
		return nil, errors.New("nil file provided")
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		return nil, fmt.Errorf("invalid file type: only .xlsx files are allowed")
	}

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("sheet has no data rows")
	}

	release, err := utils.BusinessLock(ctx, businessId, "consumptionImport", "importer", "ImportConsumptionFromXlsx")
	if err != nil {
		return nil, err
	}
	defer release()

	// Parse everything before touching the database.
	parsed := make([]*ExcelRow, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		excelRow, err := populateExcelRow(row)
		if err != nil {
			return nil, fmt.Errorf("error in row %d: %v", idx+2, err)
		}
		parsed = append(parsed, excelRow)
	}

	itemIdBySku, err := resolveSkus(ctx, businessId, parsed)
	if err != nil {
		return nil, err
	}

	summary := ImportSummary{}
	dirtyItems := make(map[int]bool)

	db := config.GetDB()
	tx := db.Begin()

	for idx, excelRow := range parsed {
		itemId, found := itemIdBySku[strings.ToLower(excelRow.Sku)]
		if !found {
			summary.RowsSkipped++
			summary.SkipMessages = append(summary.SkipMessages,
				fmt.Sprintf("Row %d: no item with SKU %s", idx+2, excelRow.Sku))
			continue
		}

		recordDate, err := utils.ConvertToDate(excelRow.RecordDate.UTC(), "UTC")
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("error in row %d: %v", idx+2, err)
		}

		var count int64
		if err := tx.WithContext(ctx).Model(&models.ConsumptionRecord{}).
			Where("business_id = ? AND item_id = ? AND record_date = ?", businessId, itemId, recordDate).
			Count(&count).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if count > 0 {
			summary.RowsSkipped++
			summary.SkipMessages = append(summary.SkipMessages,
				fmt.Sprintf("Row %d: record already exists for SKU %s on %s", idx+2, excelRow.Sku, recordDate.Format("2006-01-02")))
			continue
		}

		record := models.ConsumptionRecord{
			BusinessId:    businessId,
			ItemId:        itemId,
			RecordDate:    recordDate,
			OpeningQty:    excelRow.OpeningQty,
			ReceivedQty:   excelRow.ReceivedQty,
			ConsumedQty:   excelRow.ConsumedQty,
			CostCenter:    excelRow.CostCenter,
			EmployeeCount: excelRow.EmployeeCount,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("error in row %d: %v", idx+2, err)
		}

		dirtyItems[itemId] = true
		summary.RowsImported++
	}

	now := time.Now().UTC()
	for itemId := range dirtyItems {
		if err := models.MarkItemDirty(tx.WithContext(ctx), businessId, itemId, now); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	logSummary(businessId, &summary)
	return &summary, nil
}

// resolveSkus maps the distinct SKUs of the parsed rows to item ids in one query.
func resolveSkus(ctx context.Context, businessId string, parsed []*ExcelRow) (map[string]int, error) {
	skus := make([]string, 0, len(parsed))
	for _, row := range parsed {
		skus = append(skus, row.Sku)
	}
	skus = utils.UniqueSlice(skus)

	db := config.GetDB()
	var items []*models.Item
	err := db.WithContext(ctx).
		Where("business_id = ? AND sku IN ?", businessId, skus).
		Find(&items).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	byLowerSku := make(map[string]int, len(items))
	for _, item := range items {
		byLowerSku[strings.ToLower(item.Sku)] = item.ID
	}
	return byLowerSku, nil
}

func logSummary(businessId string, summary *ImportSummary) {
	config.GetLogger().
		WithField("business_id", businessId).
		WithField("rows_imported", summary.RowsImported).
		WithField("rows_skipped", summary.RowsSkipped).
		Info("Consumption import completed")
}
