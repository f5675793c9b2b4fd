package repository

import (
	"context"
	"fmt"

	"outreach-backend/internal/campaign/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const campaignsCollection = "campaigns"

// firestoreCampaignRepository implements CampaignRepository on Firestore
type firestoreCampaignRepository struct {
	client *firestore.Client
}

// NewFirestoreCampaignRepository creates a CampaignRepository backed by the
// "campaigns" collection
func NewFirestoreCampaignRepository(client *firestore.Client) CampaignRepository {
	return &firestoreCampaignRepository{client: client}
}

func (r *firestoreCampaignRepository) FindByShortCode(ctx context.Context, code string) (*domain.Campaign, error) {
	iter := r.client.Collection(campaignsCollection).
		Where("shortCode", "==", code).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c domain.Campaign
	if err := snap.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", snap.Ref.ID, err)
	}
	c.ID = snap.Ref.ID
	return &c, nil
}

func (r *firestoreCampaignRepository) RecordClick(ctx context.Context, id, referrer string) error {
	var ref interface{}
	if referrer != "" {
		ref = referrer
	}

	_, err := r.client.Collection(campaignsCollection).Doc(id).Set(ctx, map[string]interface{}{
		"clicks":       firestore.Increment(1),
		"lastClickAt":  firestore.ServerTimestamp,
		"lastReferrer": ref,
	}, firestore.MergeAll)
	return err
}
