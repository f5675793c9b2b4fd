package repository

import (
	"context"
	"time"

	"outreach-backend/internal/lead/domain"
)

// Upsert is one pending write of a lead document.
type Upsert struct {
	// ID is the storage identifier derived from the identity key.
	ID string
	// Set holds attribute values to merge into the document.
	Set map[string]interface{}
	// Clear names attributes to remove from the document.
	Clear []string
	// Create marks a new document: the store stamps createdAt as well as
	// updatedAt. Updates only stamp updatedAt.
	Create bool
}

// LeadRepository defines the storage operations the reconciler needs
type LeadRepository interface {
	// FindByID returns the lead stored under id, or nil when none exists
	FindByID(ctx context.Context, id string) (*domain.Lead, error)

	// ExistingIDs returns the subset of ids that have a stored document.
	// Callers keep len(ids) within the store's read batch limit.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// CommitBatch applies all upserts as one batched write.
	// len(upserts) must not exceed MaxBatchSize.
	CommitBatch(ctx context.Context, upserts []Upsert) error

	// MaxBatchSize is the largest batch CommitBatch accepts
	MaxBatchSize() int

	// Count returns the number of stored leads
	Count(ctx context.Context) (int64, error)

	// CountCreatedSince counts leads created at or after since
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)

	// Recent returns the newest leads by createdAt
	Recent(ctx context.Context, limit int) ([]*domain.Lead, error)
}
