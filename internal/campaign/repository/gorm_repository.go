package repository

import (
	"context"

	"outreach-backend/internal/campaign/domain"

	"gorm.io/gorm"
)

// gormCampaignRepository implements CampaignRepository using GORM
type gormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a GORM-based CampaignRepository
func NewGormCampaignRepository(db *gorm.DB) CampaignRepository {
	return &gormCampaignRepository{db: db}
}

func (r *gormCampaignRepository) FindByShortCode(ctx context.Context, code string) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *gormCampaignRepository) RecordClick(ctx context.Context, id, referrer string) error {
	var ref *string
	if referrer != "" {
		ref = &referrer
	}

	return r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"clicks":        gorm.Expr("clicks + 1"),
		"last_click_at": gorm.Expr("NOW()"),
		"last_referrer": ref,
	}).Error
}
