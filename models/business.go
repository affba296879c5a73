package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Business struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	Timezone  string    `gorm:"size:50;default:UTC" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	_ = tx
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if input.Name == "" {
		return nil, errors.New("business name is required")
	}

	business := Business{
		Name:     input.Name,
		Email:    input.Email,
		Timezone: input.Timezone,
		IsActive: utils.NewTrue(),
	}
	if business.Timezone == "" {
		business.Timezone = "UTC"
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func GetActiveBusinessIds(ctx context.Context) ([]string, error) {
	db := config.GetDB()
	var ids []string
	err := db.WithContext(ctx).Model(&Business{}).
		Where("is_active = ?", true).
		Select("id").Scan(&ids).Error
	return ids, err
}
