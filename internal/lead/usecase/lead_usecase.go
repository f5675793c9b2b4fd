package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"
	"outreach-backend/internal/lead/repository"
	"outreach-backend/pkg/csvparse"
	"outreach-backend/pkg/metrics"
)

// leadUsecase implements LeadUsecase interface
type leadUsecase struct {
	leadRepo  repository.LeadRepository
	publisher EventPublisher
	opts      Options
}

// NewLeadUsecase creates a new instance of leadUsecase
func NewLeadUsecase(leadRepo repository.LeadRepository, opts Options) LeadUsecase {
	return &leadUsecase{
		leadRepo: leadRepo,
		opts:     opts.withDefaults(),
	}
}

func (u *leadUsecase) SetEventPublisher(pub EventPublisher) {
	u.publisher = pub
}

func (u *leadUsecase) UpsertLead(ctx context.Context, req dto.UpsertLeadRequest) (*dto.UpsertLeadResponse, error) {
	if errs := ValidateUpsertLeadRequest(req); len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}

	cand := domain.NewCandidate(domain.Normalize(req.OrgID))
	for f, raw := range req.Lead.Fields() {
		if raw != nil {
			cand.Put(f, *raw)
		}
	}
	cand.Tags = domain.NormalizeTags(req.Lead.Tags)

	key, ok := domain.DeriveKey(cand)
	if !ok {
		return nil, domain.NewValidationError(domain.FieldError{Field: "lead", Message: domain.ErrNoIdentity.Error()})
	}
	id := domain.StorageID(key)

	existing, err := u.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "read lead", Err: err}
	}
	create := existing == nil

	if err := u.leadRepo.CommitBatch(ctx, []repository.Upsert{planUpsert(id, key, cand, create, u.opts.DefaultOrgID)}); err != nil {
		log.Printf("[LeadUsecase] Failed to write lead %s: %v", id, err)
		return nil, &domain.StorageError{Op: "write lead", Err: err}
	}

	resp := &dto.UpsertLeadResponse{ID: id}
	if create {
		resp.Inserted = 1
		metrics.RecordReconcile(1, 0, 0, 0)
	} else {
		resp.Updated = 1
		metrics.RecordReconcile(0, 1, 0, 0)
	}
	return resp, nil
}

func (u *leadUsecase) ImportLeads(ctx context.Context, req dto.ImportRequest) (*dto.ImportResponse, error) {
	if errs := ValidateImportRequest(req); len(errs) > 0 {
		metrics.RecordImportRejected("validation")
		return nil, domain.NewValidationError(errs...)
	}

	rows := req.Rows
	if rows == nil {
		var delim rune
		for _, r := range req.Delimiter {
			delim = r
		}
		parsed, err := csvparse.ParseString(req.CSVText, csvparse.Options{Delimiter: delim})
		if err != nil {
			metrics.RecordImportRejected("validation")
			return nil, domain.NewValidationError(domain.FieldError{Field: "csvText", Message: err.Error()})
		}
		for _, w := range parsed.Warnings {
			log.Printf("[LeadUsecase] CSV row %d: %s", w.Row, w.Message)
		}
		rows = parsed.Records
	}

	mapping := make(map[domain.Field]string, len(req.Mapping))
	for field, column := range req.Mapping {
		mapping[domain.Field(field)] = domain.Normalize(column)
	}

	batch := ImportBatch{
		OrgID:    domain.Normalize(req.OrgID),
		Rows:     rows,
		Mapping:  mapping,
		BulkTags: domain.NormalizeTags(req.BulkTags),
		Source:   domain.Normalize(req.Source),
	}

	res, err := u.reconcile(ctx, batch)
	if err != nil {
		var limitErr *domain.RowLimitError
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &limitErr):
			metrics.RecordImportRejected("row_limit")
		case errors.As(err, &validationErr):
			metrics.RecordImportRejected("validation")
		default:
			metrics.RecordImportRejected("storage")
		}
		return nil, err
	}

	u.publishImportCompleted(ctx, batch, res)
	return res, nil
}

func (u *leadUsecase) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	total, err := u.leadRepo.Count(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "count leads", Err: err}
	}

	week, err := u.leadRepo.CountCreatedSince(ctx, u.opts.Now().Add(-statsWindow))
	if err != nil {
		return nil, &domain.StorageError{Op: "count recent leads", Err: err}
	}

	recent, err := u.leadRepo.Recent(ctx, recentLeadsLimit)
	if err != nil {
		return nil, &domain.StorageError{Op: "list recent leads", Err: err}
	}

	return &dto.StatsResponse{
		TotalLeads:       total,
		ImportsLast7Days: week,
		Recent:           recent,
	}, nil
}

func (u *leadUsecase) orgID(raw string) string {
	if org := domain.Normalize(raw); org != "" {
		return org
	}
	return u.opts.DefaultOrgID
}

func (u *leadUsecase) publishImportCompleted(ctx context.Context, batch ImportBatch, res *dto.ImportResponse) {
	if u.publisher == nil {
		return
	}

	orgID := u.orgID(batch.OrgID)
	data, err := json.Marshal(ImportCompletedEvent{
		OrgID:       orgID,
		Source:      batch.Source,
		Inserted:    res.Inserted,
		Updated:     res.Updated,
		Merged:      res.Merged,
		Skipped:     res.Skipped,
		Total:       res.Total,
		CompletedAt: u.opts.Now(),
	})
	if err != nil {
		log.Printf("[LeadUsecase] Failed to encode import event: %v", err)
		return
	}

	attrs := map[string]string{"type": EventImportCompleted, "orgId": orgID}
	if err := u.publisher.Publish(ctx, attrs, data); err != nil {
		log.Printf("[LeadUsecase] Failed to publish %s: %v", EventImportCompleted, err)
	}
}
