package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"gorm.io/gorm"
)

type ItemCategory struct {
	ID               int       `gorm:"primary_key" json:"id"`
	BusinessId       string    `gorm:"index;not null" json:"business_id"`
	Name             string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	ParentCategoryId int       `gorm:"index;not null" json:"parentCategoryId"`
	IsActive         *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItemCategory struct {
	Name             string `json:"name" binding:"required"`
	ParentCategoryId int    `json:"parentCategoryId"`
}

// get ids of associated items
func (ic ItemCategory) ItemIds(ctx context.Context) (ids []int, err error) {
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&Item{}).
		Where("category_id = ?", ic.ID).
		Select("id").Scan(&ids).Error
	return
}

// validate input for both create & update. (id = 0 for create)
func (input *NewItemCategory) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if id == input.ParentCategoryId {
			return errors.New("self-parent not allowed")
		}
	}
	// name
	if err := utils.ValidateUnique[ItemCategory](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// parent category
	if input.ParentCategoryId > 0 {
		if err := utils.ValidateResourceId[ItemCategory](ctx, businessId, input.ParentCategoryId); err != nil {
			return errors.New("parent not found")
		}
	}
	return nil
}

func CreateItemCategory(ctx context.Context, input *NewItemCategory) (*ItemCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	category := ItemCategory{
		BusinessId:       businessId,
		Name:             input.Name,
		ParentCategoryId: input.ParentCategoryId,
		IsActive:         utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&category).Error
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func UpdateItemCategory(ctx context.Context, id int, input *NewItemCategory) (*ItemCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[ItemCategory](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"Name":             input.Name,
		"ParentCategoryId": input.ParentCategoryId,
	}).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteItemCategory(ctx context.Context, id int) (*ItemCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	result, err := utils.FetchModel[ItemCategory](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// don't delete if category has children
	count, err := utils.ResourceCountWhere[ItemCategory](ctx, businessId, "parent_category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("category has children")
	}

	// don't delete if category is used by an item
	count, err = utils.ResourceCountWhere[Item](ctx, businessId, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by item")
	}

	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func GetItemCategory(ctx context.Context, id int) (*ItemCategory, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[ItemCategory](ctx, businessId, id)
}

func GetItemCategories(ctx context.Context, name *string) ([]*ItemCategory, error) {

	db := config.GetDB()
	var results []*ItemCategory

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveItemCategory(ctx context.Context, id int, isActive bool) (*ItemCategory, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var category ItemCategory
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("business_id = ? AND id = ?", businessId, id).Find(&category).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.Model(&category).Updates(map[string]interface{}{
		"is_active": isActive,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := toggleChildrenCategories(ctx, tx, id, isActive); err != nil {
		tx.Rollback()
		return &category, err
	}

	return &category, tx.Commit().Error
}

// toggle children of the parent recursively, parent is assumed to have toggled
func toggleChildrenCategories(ctx context.Context, tx *gorm.DB, parentId int, isActive bool) error {

	var childrenIds []int
	if err := tx.WithContext(ctx).
		Model(&ItemCategory{}).
		Where("parent_category_id = ?", parentId).
		Select("id").
		Scan(&childrenIds).Error; err != nil {
		return err
	}

	// base case
	// break when parent has no children
	if len(childrenIds) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).Model(&ItemCategory{}).
		Where("id IN ?", childrenIds).Updates(map[string]interface{}{
		"is_active": isActive,
	}).Error; err != nil {
		return err
	}

	for _, childId := range childrenIds {
		// each child becomes a parent
		if err := toggleChildrenCategories(ctx, tx, childId, isActive); err != nil {
			return err
		}
	}
	return nil
}
