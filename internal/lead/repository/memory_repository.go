package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"outreach-backend/internal/lead/domain"
)

// MemoryLeadRepository keeps lead documents in process memory. It backs
// STORAGE_DRIVER=memory and the tests.
type MemoryLeadRepository struct {
	mu       sync.Mutex
	docs     map[string]map[string]interface{}
	maxBatch int
	now      func() time.Time

	// Observed traffic, for assertions.
	ExistenceQueries int
	LargestQuery     int
	Commits          int

	// FailCommitAt makes the Nth CommitBatch call (1-based) fail. Zero disables.
	FailCommitAt int
}

// NewMemoryLeadRepository creates an empty store that accepts batches of up to
// maxBatch writes.
func NewMemoryLeadRepository(maxBatch int) *MemoryLeadRepository {
	if maxBatch <= 0 {
		maxBatch = 500
	}
	return &MemoryLeadRepository{
		docs:     make(map[string]map[string]interface{}),
		maxBatch: maxBatch,
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source.
func (r *MemoryLeadRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryLeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return leadFromDoc(id, doc), nil
}

func (r *MemoryLeadRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ExistenceQueries++
	if len(ids) > r.LargestQuery {
		r.LargestQuery = len(ids)
	}

	found := make(map[string]bool)
	for _, id := range ids {
		if _, ok := r.docs[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

func (r *MemoryLeadRepository) CommitBatch(ctx context.Context, upserts []Upsert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.Commits++
	if r.FailCommitAt > 0 && r.Commits == r.FailCommitAt {
		return errors.New("memory store: injected commit failure")
	}
	if len(upserts) > r.maxBatch {
		return fmt.Errorf("memory store: batch of %d exceeds limit %d", len(upserts), r.maxBatch)
	}

	ts := r.now()
	for _, u := range upserts {
		doc, ok := r.docs[u.ID]
		if !ok {
			doc = make(map[string]interface{})
			r.docs[u.ID] = doc
		}
		for k, v := range u.Set {
			doc[k] = v
		}
		for _, k := range u.Clear {
			delete(doc, k)
		}
		if u.Create {
			doc[domain.AttrCreatedAt] = ts
		}
		doc[domain.AttrUpdatedAt] = ts
	}
	return nil
}

func (r *MemoryLeadRepository) MaxBatchSize() int {
	return r.maxBatch
}

func (r *MemoryLeadRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.docs)), nil
}

func (r *MemoryLeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, doc := range r.docs {
		if created, ok := doc[domain.AttrCreatedAt].(time.Time); ok && !created.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryLeadRepository) Recent(ctx context.Context, limit int) ([]*domain.Lead, error) {
	r.mu.Lock()
	leads := make([]*domain.Lead, 0, len(r.docs))
	for id, doc := range r.docs {
		leads = append(leads, leadFromDoc(id, doc))
	}
	r.mu.Unlock()

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].ID < leads[j].ID
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

// Doc returns a copy of the raw document stored under id.
func (r *MemoryLeadRepository) Doc(id string) (map[string]interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, true
}

func leadFromDoc(id string, doc map[string]interface{}) *domain.Lead {
	lead := &domain.Lead{ID: id}
	for _, f := range domain.Fields {
		if v, ok := doc[string(f)].(string); ok {
			lead.Set(f, v)
		}
	}
	if tags, ok := doc[domain.AttrTags].([]string); ok {
		lead.Tags = append([]string(nil), tags...)
	}
	lead.OrgID, _ = doc[domain.AttrOrgID].(string)
	lead.Dedupe, _ = doc[domain.AttrDedupe].(string)
	lead.Score, _ = doc[domain.AttrScore].(int)
	lead.CreatedAt, _ = doc[domain.AttrCreatedAt].(time.Time)
	lead.UpdatedAt, _ = doc[domain.AttrUpdatedAt].(time.Time)
	return lead
}
