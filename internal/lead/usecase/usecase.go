package usecase

import (
	"context"
	"time"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"
)

// LeadUsecase defines the interface for lead reconciliation
type LeadUsecase interface {
	// UpsertLead creates or merges a single lead
	UpsertLead(ctx context.Context, req dto.UpsertLeadRequest) (*dto.UpsertLeadResponse, error)

	// ImportLeads reconciles a CSV batch against stored leads
	ImportLeads(ctx context.Context, req dto.ImportRequest) (*dto.ImportResponse, error)

	// GetStats returns the dashboard snapshot
	GetStats(ctx context.Context) (*dto.StatsResponse, error)

	// SetEventPublisher sets the publisher for import-completed events
	SetEventPublisher(pub EventPublisher)
}

// EventPublisher sends domain events to a message bus
type EventPublisher interface {
	Publish(ctx context.Context, attrs map[string]string, data []byte) error
}

// Options tunes the reconciler. Zero values fall back to defaults.
type Options struct {
	MaxImportRows        int
	ExistenceChunkSize   int
	ExistenceConcurrency int
	WriteBatchSize       int
	DefaultOrgID         string
	Now                  func() time.Time
}

const (
	defaultMaxImportRows        = 5000
	defaultExistenceChunkSize   = 500
	defaultExistenceConcurrency = 4
	defaultWriteBatchSize       = 500
	recentLeadsLimit            = 10
	statsWindow                 = 7 * 24 * time.Hour
)

func (o Options) withDefaults() Options {
	if o.MaxImportRows <= 0 {
		o.MaxImportRows = defaultMaxImportRows
	}
	if o.ExistenceChunkSize <= 0 {
		o.ExistenceChunkSize = defaultExistenceChunkSize
	}
	if o.ExistenceConcurrency <= 0 {
		o.ExistenceConcurrency = defaultExistenceConcurrency
	}
	if o.WriteBatchSize <= 0 {
		o.WriteBatchSize = defaultWriteBatchSize
	}
	if o.DefaultOrgID == "" {
		o.DefaultOrgID = domain.DefaultOrgID
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ImportCompletedEvent is published after a bulk import commits
type ImportCompletedEvent struct {
	OrgID       string    `json:"orgId"`
	Source      string    `json:"source,omitempty"`
	Inserted    int       `json:"inserted"`
	Updated     int       `json:"updated"`
	Merged      int       `json:"merged"`
	Skipped     int       `json:"skipped"`
	Total       int       `json:"total"`
	CompletedAt time.Time `json:"completedAt"`
}

// EventImportCompleted is the type attribute of ImportCompletedEvent messages
const EventImportCompleted = "lead.import.completed"
