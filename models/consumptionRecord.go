package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConsumptionRecord is one day of consumption for one item.
// Grain: (business_id, item_id, record_date) — at most one row per item per day.
//
// NOTE: The analytics core reads this table but never writes it; writes come
// from ingestion (CRUD + Excel import) only.
type ConsumptionRecord struct {
	ID          int       `gorm:"primary_key" json:"id"`
	BusinessId  string    `gorm:"index;uniqueIndex:idx_cr_item_date,priority:1;not null" json:"business_id"`
	ItemId      int       `gorm:"uniqueIndex:idx_cr_item_date,priority:2;not null" json:"item_id"`
	RecordDate  time.Time `gorm:"uniqueIndex:idx_cr_item_date,priority:3;not null" json:"record_date"`
	OpeningQty  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_qty"`
	ReceivedQty decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"received_qty"`
	ConsumedQty decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"consumed_qty"`
	ClosingQty  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"closing_qty"`
	CostCenter  *string         `gorm:"size:100" json:"cost_center"`

	EmployeeCount        *int             `json:"employee_count"`
	ConsumptionPerCapita *decimal.Decimal `gorm:"type:decimal(20,4)" json:"consumption_per_capita"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewConsumptionRecord struct {
	ItemId        int             `json:"itemId" binding:"required"`
	RecordDate    time.Time       `json:"recordDate" binding:"required"`
	OpeningQty    decimal.Decimal `json:"openingQty"`
	ReceivedQty   decimal.Decimal `json:"receivedQty"`
	ConsumedQty   decimal.Decimal `json:"consumedQty"`
	CostCenter    *string         `json:"costCenter"`
	EmployeeCount *int            `json:"employeeCount"`
}

// BeforeSave enforces the balance invariant and derives per-capita consumption.
//
// We ensure:
// - ClosingQty always equals OpeningQty + ReceivedQty - ConsumedQty
// - ConsumptionPerCapita is set only when EmployeeCount > 0
// - RecordDate is normalized to a UTC calendar date
func (cr *ConsumptionRecord) BeforeSave(tx *gorm.DB) error {
	_ = tx // signature required by gorm; tx may be nil in tests
	if cr == nil {
		return nil
	}
	cr.RecordDate = time.Date(cr.RecordDate.Year(), cr.RecordDate.Month(), cr.RecordDate.Day(), 0, 0, 0, 0, time.UTC)
	cr.ClosingQty = cr.OpeningQty.Add(cr.ReceivedQty).Sub(cr.ConsumedQty)
	if cr.EmployeeCount != nil && *cr.EmployeeCount > 0 {
		perCapita := cr.ConsumedQty.Div(decimal.NewFromInt(int64(*cr.EmployeeCount)))
		cr.ConsumptionPerCapita = &perCapita
	} else {
		cr.ConsumptionPerCapita = nil
	}
	return nil
}

func (input *NewConsumptionRecord) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateResourceId[Item](ctx, businessId, input.ItemId); err != nil {
		return errors.New("item not found")
	}
	if input.ConsumedQty.IsNegative() || input.ReceivedQty.IsNegative() {
		return errors.New("quantities cannot be negative")
	}
	if input.EmployeeCount != nil && *input.EmployeeCount < 0 {
		return errors.New("employee count cannot be negative")
	}
	return nil
}

func CreateConsumptionRecord(ctx context.Context, input *NewConsumptionRecord) (*ConsumptionRecord, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	recordDate, err := utils.ConvertToDate(input.RecordDate.UTC(), "UTC")
	if err != nil {
		return nil, err
	}
	count, err := utils.ResourceCountWhere[ConsumptionRecord](ctx, businessId,
		"item_id = ? AND record_date = ?", input.ItemId, recordDate)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("record already exists for item and date")
	}

	record := ConsumptionRecord{
		BusinessId:    businessId,
		ItemId:        input.ItemId,
		RecordDate:    recordDate,
		OpeningQty:    input.OpeningQty,
		ReceivedQty:   input.ReceivedQty,
		ConsumedQty:   input.ConsumedQty,
		CostCenter:    input.CostCenter,
		EmployeeCount: input.EmployeeCount,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := MarkItemDirty(tx.WithContext(ctx), businessId, input.ItemId, time.Now().UTC()); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &record, tx.Commit().Error
}

func UpdateConsumptionRecord(ctx context.Context, id int, input *NewConsumptionRecord) (*ConsumptionRecord, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	record, err := utils.FetchModel[ConsumptionRecord](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	record.OpeningQty = input.OpeningQty
	record.ReceivedQty = input.ReceivedQty
	record.ConsumedQty = input.ConsumedQty
	record.CostCenter = input.CostCenter
	record.EmployeeCount = input.EmployeeCount

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Save(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := MarkItemDirty(tx.WithContext(ctx), businessId, record.ItemId, time.Now().UTC()); err != nil {
		tx.Rollback()
		return nil, err
	}

	return record, tx.Commit().Error
}

func DeleteConsumptionRecord(ctx context.Context, id int) (*ConsumptionRecord, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	record, err := utils.FetchModel[ConsumptionRecord](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := MarkItemDirty(tx.WithContext(ctx), businessId, record.ItemId, time.Now().UTC()); err != nil {
		tx.Rollback()
		return nil, err
	}

	return record, tx.Commit().Error
}

// FetchConsumptionRecords returns the item's records within [start, end],
// ordered by date. This is the analytics core's read path.
func FetchConsumptionRecords(ctx context.Context, businessId string, itemId int, start, end time.Time) ([]*ConsumptionRecord, error) {
	db := config.GetDB()
	var records []*ConsumptionRecord
	err := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ?", businessId, itemId).
		Where("record_date BETWEEN ? AND ?", start, end).
		Order("record_date").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func GetConsumptionRecords(ctx context.Context, itemId int, start, end *time.Time) ([]*ConsumptionRecord, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ?", businessId, itemId)
	if start != nil {
		dbCtx = dbCtx.Where("record_date >= ?", *start)
	}
	if end != nil {
		dbCtx = dbCtx.Where("record_date <= ?", *end)
	}
	var records []*ConsumptionRecord
	if err := dbCtx.Order("record_date").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
