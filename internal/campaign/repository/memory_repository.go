package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"outreach-backend/internal/campaign/domain"
)

// MemoryCampaignRepository keeps campaigns in process memory
type MemoryCampaignRepository struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	now       func() time.Time
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{
		campaigns: make(map[string]*domain.Campaign),
		now:       time.Now,
	}
}

// Put stores a copy of c under c.ID
func (r *MemoryCampaignRepository) Put(c domain.Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = &c
}

// Get returns a copy of the campaign stored under id
func (r *MemoryCampaignRepository) Get(id string) (domain.Campaign, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return domain.Campaign{}, false
	}
	return *c, true
}

func (r *MemoryCampaignRepository) FindByShortCode(ctx context.Context, code string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.campaigns {
		if c.ShortCode == code {
			found := *c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *MemoryCampaignRepository) RecordClick(ctx context.Context, id, referrer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[id]
	if !ok {
		return errors.New("memory store: campaign " + id + " does not exist")
	}
	now := r.now()
	c.Clicks++
	c.LastClickAt = &now
	c.LastReferrer = nil
	if referrer != "" {
		c.LastReferrer = &referrer
	}
	return nil
}
