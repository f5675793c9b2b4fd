package repository

import (
	"context"
	"fmt"
	"time"

	"outreach-backend/internal/lead/domain"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	leadsCollection = "leads"
	// Firestore rejects write batches above 500 operations.
	firestoreMaxBatch = 500
)

// firestoreLeadRepository implements LeadRepository on a Firestore collection
type firestoreLeadRepository struct {
	client *firestore.Client
}

// NewFirestoreLeadRepository creates a LeadRepository backed by the "leads"
// collection
func NewFirestoreLeadRepository(client *firestore.Client) LeadRepository {
	return &firestoreLeadRepository{client: client}
}

func (r *firestoreLeadRepository) col() *firestore.CollectionRef {
	return r.client.Collection(leadsCollection)
}

func (r *firestoreLeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return leadFromSnapshot(snap)
}

func (r *firestoreLeadRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.col().Doc(id)
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.Exists() {
			found[snap.Ref.ID] = true
		}
	}
	return found, nil
}

// CommitBatch writes every upsert with Set+MergeAll in a single WriteBatch.
// Cleared attributes use the Delete sentinel so they disappear from the
// document instead of being stored as empty strings.
func (r *firestoreLeadRepository) CommitBatch(ctx context.Context, upserts []Upsert) error {
	if len(upserts) == 0 {
		return nil
	}
	if len(upserts) > firestoreMaxBatch {
		return fmt.Errorf("batch of %d exceeds firestore limit %d", len(upserts), firestoreMaxBatch)
	}

	batch := r.client.Batch()
	for _, u := range upserts {
		data := make(map[string]interface{}, len(u.Set)+len(u.Clear)+2)
		for k, v := range u.Set {
			data[k] = v
		}
		for _, k := range u.Clear {
			data[k] = firestore.Delete
		}
		if u.Create {
			data[domain.AttrCreatedAt] = firestore.ServerTimestamp
		}
		data[domain.AttrUpdatedAt] = firestore.ServerTimestamp

		batch.Set(r.col().Doc(u.ID), data, firestore.MergeAll)
	}

	_, err := batch.Commit(ctx)
	return err
}

func (r *firestoreLeadRepository) MaxBatchSize() int {
	return firestoreMaxBatch
}

func (r *firestoreLeadRepository) Count(ctx context.Context) (int64, error) {
	return countQuery(ctx, r.col().Query)
}

func (r *firestoreLeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return countQuery(ctx, r.col().Where(domain.AttrCreatedAt, ">=", since))
}

func (r *firestoreLeadRepository) Recent(ctx context.Context, limit int) ([]*domain.Lead, error) {
	snaps, err := r.col().
		OrderBy(domain.AttrCreatedAt, firestore.Desc).
		Limit(limit).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}

	leads := make([]*domain.Lead, 0, len(snaps))
	for _, snap := range snaps {
		lead, err := leadFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

func countQuery(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result type %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}

func leadFromSnapshot(snap *firestore.DocumentSnapshot) (*domain.Lead, error) {
	var lead domain.Lead
	if err := snap.DataTo(&lead); err != nil {
		return nil, fmt.Errorf("decode lead %s: %w", snap.Ref.ID, err)
	}
	lead.ID = snap.Ref.ID
	return &lead, nil
}
