package usecase

import (
	"context"
	"fmt"
	"strings"

	"outreach-backend/internal/campaign/domain"
	"outreach-backend/internal/campaign/repository"
	"outreach-backend/pkg/metrics"
)

// CampaignUsecase defines the interface for short-link handling
type CampaignUsecase interface {
	// ResolveShortLink records a click on the campaign owning code and
	// returns the URL to redirect to
	ResolveShortLink(ctx context.Context, code, referrer string) (string, error)
}

// campaignUsecase implements CampaignUsecase interface
type campaignUsecase struct {
	campaignRepo repository.CampaignRepository
	defaultURL   string
}

// NewCampaignUsecase creates a new instance of campaignUsecase. defaultURL is
// used for campaigns without a target.
func NewCampaignUsecase(campaignRepo repository.CampaignRepository, defaultURL string) CampaignUsecase {
	return &campaignUsecase{
		campaignRepo: campaignRepo,
		defaultURL:   defaultURL,
	}
}

func (u *campaignUsecase) ResolveShortLink(ctx context.Context, code, referrer string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		metrics.RecordShortLinkClick("not_found")
		return "", domain.ErrCampaignNotFound
	}

	campaign, err := u.campaignRepo.FindByShortCode(ctx, code)
	if err != nil {
		metrics.RecordShortLinkClick("error")
		return "", fmt.Errorf("find campaign %q: %w", code, err)
	}
	if campaign == nil {
		metrics.RecordShortLinkClick("not_found")
		return "", domain.ErrCampaignNotFound
	}

	if err := u.campaignRepo.RecordClick(ctx, campaign.ID, referrer); err != nil {
		metrics.RecordShortLinkClick("error")
		return "", fmt.Errorf("record click on %s: %w", campaign.ID, err)
	}
	metrics.RecordShortLinkClick("redirected")

	if campaign.TargetURL != "" {
		return campaign.TargetURL, nil
	}
	return u.defaultURL, nil
}
