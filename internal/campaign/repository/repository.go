package repository

import (
	"context"

	"outreach-backend/internal/campaign/domain"
)

// CampaignRepository defines the storage operations behind short links
type CampaignRepository interface {
	// FindByShortCode returns the campaign owning code, or nil when none does
	FindByShortCode(ctx context.Context, code string) (*domain.Campaign, error)

	// RecordClick increments the click counter and stamps the last click.
	// An empty referrer is stored as null.
	RecordClick(ctx context.Context, id, referrer string) error
}
