package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemCorrelation stores one row per unordered item pair.
// The pair is canonicalized (Item1Id < Item2Id) before every lookup and write,
// and the unique index on (business_id, item1_id, item2_id) backs the atomic upsert.
//
// NOTE: This table is derived data and can be rebuilt from consumption_records.
type ItemCorrelation struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"uniqueIndex:idx_corr_pair,priority:1;not null" json:"business_id"`
	Item1Id    int    `gorm:"uniqueIndex:idx_corr_pair,priority:2;index;not null" json:"item1_id"`
	Item2Id    int    `gorm:"uniqueIndex:idx_corr_pair,priority:3;index;not null" json:"item2_id"`

	Coefficient        decimal.Decimal `gorm:"type:decimal(10,6);default:0" json:"coefficient"`
	CorrelationType    CorrelationType `gorm:"size:30" json:"correlation_type"`
	ConfidenceLevel    ConfidenceLevel `gorm:"size:10" json:"confidence_level"`
	DataPoints         int             `json:"data_points"`
	CoConsumptionCount int             `json:"co_consumption_count"`
	AverageGapDays     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"average_gap_days"`
	LastCalculated     time.Time       `gorm:"index" json:"last_calculated"`
	IsActive           *bool           `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CanonicalPair orders two item ids ascending. Every read and write of the
// correlation store goes through this, which is what guarantees a single row
// per unordered pair.
func CanonicalPair(itemA, itemB int) (int, int) {
	if itemA > itemB {
		return itemB, itemA
	}
	return itemA, itemB
}

func (ic *ItemCorrelation) BeforeSave(tx *gorm.DB) error {
	_ = tx
	if ic == nil {
		return nil
	}
	ic.Item1Id, ic.Item2Id = CanonicalPair(ic.Item1Id, ic.Item2Id)
	if ic.IsActive == nil {
		ic.IsActive = utils.NewTrue()
	}
	return nil
}

// UpsertCorrelation inserts the row for the canonical pair, or overwrites the
// computed fields in place if the pair already exists. Concurrent recomputation
// of the same pair resolves through ON DUPLICATE KEY, never through a second row.
func UpsertCorrelation(ctx context.Context, corr *ItemCorrelation) error {
	if corr.Item1Id == corr.Item2Id {
		return errors.New("correlation requires two distinct items")
	}
	corr.Item1Id, corr.Item2Id = CanonicalPair(corr.Item1Id, corr.Item2Id)

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "business_id"}, {Name: "item1_id"}, {Name: "item2_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"coefficient", "correlation_type", "confidence_level",
			"data_points", "co_consumption_count", "average_gap_days",
			"last_calculated", "is_active",
		}),
	}).Create(corr).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Race fallback: another writer inserted between plan and execute;
		// retry once as a plain update against the existing row.
		return db.WithContext(ctx).Model(&ItemCorrelation{}).
			Where("business_id = ? AND item1_id = ? AND item2_id = ?",
				corr.BusinessId, corr.Item1Id, corr.Item2Id).
			Updates(map[string]interface{}{
				"coefficient":          corr.Coefficient,
				"correlation_type":     corr.CorrelationType,
				"confidence_level":     corr.ConfidenceLevel,
				"data_points":          corr.DataPoints,
				"co_consumption_count": corr.CoConsumptionCount,
				"average_gap_days":     corr.AverageGapDays,
				"last_calculated":      corr.LastCalculated,
				"is_active":            corr.IsActive,
			}).Error
	}
	return err
}

// FetchCorrelation returns the stored row for the unordered pair, or nil.
func FetchCorrelation(ctx context.Context, businessId string, itemA, itemB int) (*ItemCorrelation, error) {
	id1, id2 := CanonicalPair(itemA, itemB)
	db := config.GetDB()
	var corr ItemCorrelation
	err := db.WithContext(ctx).
		Where("business_id = ? AND item1_id = ? AND item2_id = ?", businessId, id1, id2).
		First(&corr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &corr, nil
}

// ListActiveCorrelations returns all active rows touching the item, either side.
func ListActiveCorrelations(ctx context.Context, businessId string, itemId int) ([]*ItemCorrelation, error) {
	db := config.GetDB()
	var results []*ItemCorrelation
	err := db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessId, true).
		Where("item1_id = ? OR item2_id = ?", itemId, itemId).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllActiveCorrelations(ctx context.Context, businessId string) ([]*ItemCorrelation, error) {
	db := config.GetDB()
	var results []*ItemCorrelation
	err := db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessId, true).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func deactivateCorrelationsForItem(tx *gorm.DB, businessId string, itemId int) error {
	return tx.Model(&ItemCorrelation{}).
		Where("business_id = ?", businessId).
		Where("item1_id = ? OR item2_id = ?", itemId, itemId).
		Update("is_active", false).Error
}
