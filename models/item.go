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

// Item is the catalog entity. The statistical profile columns are derived data
// owned by the profiler; they are nullable because "never computed" and
// "insufficient history" are distinct from zero.
type Item struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	Name         string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Sku          string          `gorm:"index;size:100;not null" json:"sku" binding:"required"`
	CategoryId   int             `gorm:"index;not null" json:"category_id"`
	UnitName     string          `gorm:"size:50" json:"unit_name"`
	CurrentQty   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_qty"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reorder_level"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`

	AverageDailyConsumption *decimal.Decimal `gorm:"type:decimal(20,4)" json:"average_daily_consumption"`
	ConsumptionStdDeviation *decimal.Decimal `gorm:"type:decimal(20,4)" json:"consumption_std_deviation"`
	ConsumptionCv           *decimal.Decimal `gorm:"type:decimal(10,6)" json:"consumption_cv"`
	VolatilityClass         *VolatilityClass `gorm:"size:20" json:"volatility_class"`
	IsHighlyVolatile        *bool            `json:"is_highly_volatile"`
	CoverageDays            *int             `json:"coverage_days"`
	ExpectedStockoutDate    *time.Time       `json:"expected_stockout_date"`
	LastStatisticsUpdate    *time.Time       `gorm:"index" json:"last_statistics_update"`

	// Stamped whenever consumption rows for this item change (imports, CRUD).
	// The scheduler compares it against LastStatisticsUpdate.
	ConsumptionDirtyAt *time.Time `gorm:"index" json:"consumption_dirty_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name         string          `json:"name" binding:"required"`
	Sku          string          `json:"sku" binding:"required"`
	CategoryId   int             `json:"categoryId"`
	UnitName     string          `json:"unitName"`
	CurrentQty   decimal.Decimal `json:"currentQty"`
	ReorderLevel decimal.Decimal `json:"reorderLevel"`
}

// ItemProfileUpdate carries the profiler's output into the catalog row.
// Nil fields are written as NULL, not skipped; an undefined statistic must
// overwrite a previously defined one.
type ItemProfileUpdate struct {
	AverageDailyConsumption *decimal.Decimal
	ConsumptionStdDeviation *decimal.Decimal
	ConsumptionCv           *decimal.Decimal
	VolatilityClass         *VolatilityClass
	IsHighlyVolatile        *bool
	CoverageDays            *int
	ExpectedStockoutDate    *time.Time
	LastStatisticsUpdate    time.Time
}

// validate input for both create & update. (id = 0 for create)
func (input *NewItem) validate(ctx context.Context, businessId string, id int) error {
	// sku
	if err := utils.ValidateUnique[Item](ctx, businessId, "sku", input.Sku, id); err != nil {
		return err
	}
	// category
	if input.CategoryId > 0 {
		if err := utils.ValidateResourceId[ItemCategory](ctx, businessId, input.CategoryId); err != nil {
			return errors.New("category not found")
		}
	}
	if input.CurrentQty.IsNegative() {
		return errors.New("current qty cannot be negative")
	}
	return nil
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	item := Item{
		BusinessId:   businessId,
		Name:         input.Name,
		Sku:          input.Sku,
		CategoryId:   input.CategoryId,
		UnitName:     input.UnitName,
		CurrentQty:   input.CurrentQty,
		ReorderLevel: input.ReorderLevel,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&item).Error
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func UpdateItem(ctx context.Context, id int, input *NewItem) (*Item, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Sku":          input.Sku,
		"CategoryId":   input.CategoryId,
		"UnitName":     input.UnitName,
		"CurrentQty":   input.CurrentQty,
		"ReorderLevel": input.ReorderLevel,
	}).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes the item, its consumption history and logically deletes
// correlations touching it (active = false, rows kept for audit).
func DeleteItem(ctx context.Context, id int) (*Item, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).
		Where("business_id = ? AND item_id = ?", businessId, id).
		Delete(&ConsumptionRecord{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := deactivateCorrelationsForItem(tx.WithContext(ctx), businessId, id); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return item, tx.Commit().Error
}

func GetItem(ctx context.Context, id int) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Item](ctx, businessId, id)
}

func GetItems(ctx context.Context, name *string, categoryId *int) ([]*Item, error) {

	db := config.GetDB()
	var results []*Item

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if categoryId != nil && *categoryId > 0 {
		dbCtx = dbCtx.Where("category_id = ?", *categoryId)
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveItem(ctx context.Context, id int, isActive bool) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"is_active": isActive,
	}).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemProfile writes the profiler's computed fields onto the catalog row.
func UpdateItemProfile(ctx context.Context, businessId string, itemId int, profile *ItemProfileUpdate) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Item{}).
		Where("business_id = ? AND id = ?", businessId, itemId).
		Updates(map[string]interface{}{
			"average_daily_consumption": profile.AverageDailyConsumption,
			"consumption_std_deviation": profile.ConsumptionStdDeviation,
			"consumption_cv":            profile.ConsumptionCv,
			"volatility_class":          profile.VolatilityClass,
			"is_highly_volatile":        profile.IsHighlyVolatile,
			"coverage_days":             profile.CoverageDays,
			"expected_stockout_date":    profile.ExpectedStockoutDate,
			"last_statistics_update":    profile.LastStatisticsUpdate,
			"consumption_dirty_at":      gorm.Expr("NULL"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// MarkItemDirty stamps consumption_dirty_at so the scheduler picks the item up
// on the next stale-only pass.
func MarkItemDirty(tx *gorm.DB, businessId string, itemId int, at time.Time) error {
	return tx.Model(&Item{}).
		Where("business_id = ? AND id = ?", businessId, itemId).
		Update("consumption_dirty_at", at).Error
}

// active items with at least one consumption row inside [start, end],
// used to bound pair enumeration during full recomputes
func GetConsumingItemIds(ctx context.Context, businessId string, start, end time.Time) ([]int, error) {
	db := config.GetDB()
	var ids []int
	err := db.WithContext(ctx).Model(&ConsumptionRecord{}).
		Distinct("consumption_records.item_id").
		Joins("JOIN items ON items.id = consumption_records.item_id").
		Where("consumption_records.business_id = ?", businessId).
		Where("consumption_records.record_date BETWEEN ? AND ?", start, end).
		Where("items.is_active = ?", true).
		Scan(&ids).Error
	return ids, err
}
