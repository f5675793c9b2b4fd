package usecase

import (
	"context"
	"fmt"
	"log"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"
	"outreach-backend/internal/lead/repository"
	"outreach-backend/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// ImportBatch is one tokenized import, already normalized at the request
// level. Mapping goes from canonical field to source column. OrgID is empty
// when the request named none.
type ImportBatch struct {
	OrgID    string
	Rows     []map[string]string
	Mapping  map[domain.Field]string
	BulkTags []string
	Source   string
}

// pendingLead is the surviving candidate for one identity key
type pendingLead struct {
	key  string
	id   string
	cand domain.Candidate
}

// reconcile merges a batch into storage. Any row with a malformed or
// oversized field rejects the whole batch before storage is touched. Rows
// without an identity are skipped. Rows sharing an identity key collapse to
// the last one seen. Existing ids are looked up in chunks and the writes are
// committed in sub-batches; a failed sub-batch fails the call but does not
// roll back earlier ones.
func (u *leadUsecase) reconcile(ctx context.Context, batch ImportBatch) (*dto.ImportResponse, error) {
	res := &dto.ImportResponse{Total: len(batch.Rows)}
	metrics.RecordImportRows(res.Total)

	if res.Total > u.opts.MaxImportRows {
		return nil, &domain.RowLimitError{Limit: u.opts.MaxImportRows, Rows: res.Total}
	}

	cands := make([]domain.Candidate, len(batch.Rows))
	var rowErrs []domain.FieldError
	for i, row := range batch.Rows {
		cands[i] = candidateFromRow(row, batch)
		rowErrs = append(rowErrs, ValidateCandidate(fmt.Sprintf("rows[%d]", i), cands[i])...)
	}
	if len(rowErrs) > 0 {
		return nil, domain.NewValidationError(rowErrs...)
	}

	index := make(map[string]int, len(cands))
	pending := make([]pendingLead, 0, len(cands))
	identified := 0

	for _, cand := range cands {
		key, ok := domain.DeriveKey(cand)
		if !ok {
			res.Skipped++
			continue
		}
		identified++

		if i, seen := index[key]; seen {
			pending[i].cand = cand
			continue
		}
		index[key] = len(pending)
		pending = append(pending, pendingLead{key: key, id: domain.StorageID(key), cand: cand})
	}
	res.Merged = identified - len(pending)

	if len(pending) == 0 {
		metrics.RecordReconcile(0, 0, res.Merged, res.Skipped)
		return res, nil
	}

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.id
	}
	existing, err := u.existingIDs(ctx, ids)
	if err != nil {
		log.Printf("[LeadUsecase] Existence check failed: %v", err)
		return nil, &domain.StorageError{Op: "existence check", Err: err}
	}

	upserts := make([]repository.Upsert, 0, len(pending))
	for _, p := range pending {
		create := !existing[p.id]
		if create {
			res.Inserted++
		} else {
			res.Updated++
		}
		upserts = append(upserts, planUpsert(p.id, p.key, p.cand, create, u.opts.DefaultOrgID))
	}

	if err := u.commit(ctx, upserts); err != nil {
		return nil, err
	}

	metrics.RecordReconcile(res.Inserted, res.Updated, res.Merged, res.Skipped)
	log.Printf("[LeadUsecase] Import for org %s: inserted=%d updated=%d merged=%d skipped=%d total=%d",
		u.orgID(batch.OrgID), res.Inserted, res.Updated, res.Merged, res.Skipped, res.Total)
	return res, nil
}

// candidateFromRow maps one row onto canonical fields. A column missing from
// the row leaves the field absent; a present but blank cell clears it.
func candidateFromRow(row map[string]string, batch ImportBatch) domain.Candidate {
	cand := domain.NewCandidate(batch.OrgID)
	for f, column := range batch.Mapping {
		if v, ok := row[column]; ok {
			cand.Put(f, v)
		}
	}
	if batch.Source != "" {
		cand.Put(domain.FieldSource, batch.Source)
	}
	if len(batch.BulkTags) > 0 {
		cand.Tags = batch.BulkTags
	}
	return cand
}

// existingIDs queries the store chunk by chunk, running chunks concurrently.
func (u *leadUsecase) existingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	chunks := chunk(ids, u.opts.ExistenceChunkSize)
	found := make([]map[string]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.ExistenceConcurrency)
	for i, part := range chunks {
		i, part := i, part // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			m, err := u.leadRepo.ExistingIDs(gctx, part)
			if err != nil {
				return err
			}
			found[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	existing := make(map[string]bool)
	for _, m := range found {
		for id := range m {
			existing[id] = true
		}
	}
	return existing, nil
}

func (u *leadUsecase) commit(ctx context.Context, upserts []repository.Upsert) error {
	size := u.opts.WriteBatchSize
	if limit := u.leadRepo.MaxBatchSize(); limit > 0 && size > limit {
		size = limit
	}

	parts := chunk(upserts, size)
	for i, part := range parts {
		if err := u.leadRepo.CommitBatch(ctx, part); err != nil {
			log.Printf("[LeadUsecase] Commit of sub-batch %d/%d failed (%d already committed): %v", i+1, len(parts), i, err)
			return &domain.StorageError{Op: "commit", Err: err}
		}
	}
	return nil
}

// planUpsert builds the write for one candidate. Present non-empty fields are
// set and present empty fields are cleared. Tags follow the same rule, with nil
// meaning untouched. The org id is written when supplied; new documents
// without one get defaultOrg. New documents start with a zero score.
func planUpsert(id, key string, cand domain.Candidate, create bool, defaultOrg string) repository.Upsert {
	up := repository.Upsert{
		ID: id,
		Set: map[string]interface{}{
			domain.AttrDedupe: key,
		},
		Create: create,
	}

	switch {
	case cand.OrgID != "":
		up.Set[domain.AttrOrgID] = cand.OrgID
	case create:
		up.Set[domain.AttrOrgID] = defaultOrg
	}

	for _, f := range domain.Fields {
		if !cand.Has(f) {
			continue
		}
		if v := cand.Get(f); v != "" {
			up.Set[string(f)] = v
		} else {
			up.Clear = append(up.Clear, string(f))
		}
	}

	if cand.Tags != nil {
		if len(cand.Tags) > 0 {
			up.Set[domain.AttrTags] = cand.Tags
		} else {
			up.Clear = append(up.Clear, domain.AttrTags)
		}
	}

	if create {
		up.Set[domain.AttrScore] = 0
	}
	return up
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
