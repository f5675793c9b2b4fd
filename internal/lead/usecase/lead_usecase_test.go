package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"
	"outreach-backend/internal/lead/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakePublisher struct {
	attrs []map[string]string
	data  [][]byte
	err   error
}

func (p *fakePublisher) Publish(ctx context.Context, attrs map[string]string, data []byte) error {
	p.attrs = append(p.attrs, attrs)
	p.data = append(p.data, data)
	return p.err
}

func newTestUsecase(opts Options) (LeadUsecase, *repository.MemoryLeadRepository) {
	repo := repository.NewMemoryLeadRepository(500)
	repo.SetClock(func() time.Time { return baseTime })
	if opts.Now == nil {
		opts.Now = func() time.Time { return baseTime }
	}
	return NewLeadUsecase(repo, opts), repo
}

func strPtr(s string) *string {
	return &s
}

func emailNameMapping() map[string]string {
	return map[string]string{"email": "Email", "contactName": "Name"}
}

func TestImportLeads_MergesDuplicateEmails(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows: []map[string]string{
			{"Email": "Jane@Acme.com ", "Name": "Jane"},
			{"Email": "jane@acme.com", "Name": "Jane D."},
		},
		Mapping: emailNameMapping(),
	})
	require.NoError(t, err)

	assert.Equal(t, &dto.ImportResponse{Inserted: 1, Updated: 0, Merged: 1, Skipped: 0, Total: 2}, res)

	doc, ok := repo.Doc("jane@acme.com")
	require.True(t, ok)
	assert.Equal(t, "jane@acme.com", doc["email"])
	assert.Equal(t, "Jane D.", doc["contactName"])
	assert.Equal(t, "email:jane@acme.com", doc[domain.AttrDedupe])
	assert.Equal(t, domain.DefaultOrgID, doc[domain.AttrOrgID])
	assert.Equal(t, 0, doc[domain.AttrScore])
}

func TestImportLeads_ReimportIsIdempotent(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	req := dto.ImportRequest{
		Rows: []map[string]string{
			{"Email": "a@x.com", "Name": "A"},
			{"Email": "b@x.com", "Name": "B"},
			{"Email": "", "Name": "Nobody"},
		},
		Mapping: emailNameMapping(),
	}

	first, err := uc.ImportLeads(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 1, first.Skipped)

	before, _ := repo.Doc("a@x.com")

	later := baseTime.Add(time.Hour)
	repo.SetClock(func() time.Time { return later })

	second, err := uc.ImportLeads(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &dto.ImportResponse{Inserted: 0, Updated: 2, Merged: 0, Skipped: 1, Total: 3}, second)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	after, _ := repo.Doc("a@x.com")
	assert.Equal(t, before[domain.AttrCreatedAt], after[domain.AttrCreatedAt])
	assert.Equal(t, later, after[domain.AttrUpdatedAt])
	assert.Equal(t, before["contactName"], after["contactName"])
}

func TestImportLeads_RowLimit(t *testing.T) {
	uc, repo := newTestUsecase(Options{MaxImportRows: 3})

	rows := make([]map[string]string, 4)
	for i := range rows {
		rows[i] = map[string]string{"Email": fmt.Sprintf("u%d@x.com", i)}
	}

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    rows,
		Mapping: map[string]string{"email": "Email"},
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var limitErr *domain.RowLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
	assert.Contains(t, err.Error(), "too many rows")

	assert.Zero(t, repo.ExistenceQueries)
	assert.Zero(t, repo.Commits)
}

func TestImportLeads_AtRowLimitIsAccepted(t *testing.T) {
	uc, _ := newTestUsecase(Options{MaxImportRows: 2})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}, {"Email": "b@x.com"}},
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
}

func TestImportLeads_ClearsEmptyMappedFields(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	_, err := uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com", "Phone": "555-1234", "Company": "Acme"}},
		Mapping: map[string]string{"email": "Email", "phone": "Phone", "company": "Company"},
	})
	require.NoError(t, err)

	res, err := uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com", "Phone": "   "}},
		Mapping: map[string]string{"email": "Email", "phone": "Phone"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	doc, _ := repo.Doc("a@x.com")
	_, hasPhone := doc["phone"]
	assert.False(t, hasPhone)
	assert.Equal(t, "Acme", doc["company"])
}

func TestImportLeads_MissingColumnLeavesFieldUntouched(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	_, err := uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com", "Role": "CTO"}},
		Mapping: map[string]string{"email": "Email", "role": "Role"},
	})
	require.NoError(t, err)

	_, err = uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}},
		Mapping: map[string]string{"email": "Email", "role": "Role"},
	})
	require.NoError(t, err)

	doc, _ := repo.Doc("a@x.com")
	assert.Equal(t, "CTO", doc["role"])
}

func TestImportLeads_SkipsRowsWithoutIdentity(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows: []map[string]string{
			{"Phone": "555"},
			{"Name": "Only Name"},
			{"Email": "  ", "Company": "Acme"},
			{"Email": "ok@x.com"},
		},
		Mapping: map[string]string{"email": "Email", "contactName": "Name", "phone": "Phone", "company": "Company"},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.ImportResponse{Inserted: 1, Skipped: 3, Total: 4}, res)

	count, _ := repo.Count(context.Background())
	assert.EqualValues(t, 1, count)
}

func TestImportLeads_RejectsMalformedEmail(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows: []map[string]string{
			{"Email": "ok@x.com", "Name": "Ok", "Company": "Acme"},
			{"Email": "jane at acme", "Name": "Jane", "Company": "Acme"},
		},
		Mapping: map[string]string{"email": "Email", "contactName": "Name", "company": "Company"},
	})
	assert.Nil(t, res)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []domain.FieldError{{Field: "rows[1].email", Message: "is invalid"}}, vErr.Errors)

	assert.Zero(t, repo.ExistenceQueries)
	assert.Zero(t, repo.Commits)
}

func TestImportLeads_RejectsOversizedFields(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows: []map[string]string{
			{"Email": "a@x.com", "Company": strings.Repeat("c", 5000), "Phone": "555"},
			{"Email": "b@x.com", "Company": "Acme", "Phone": strings.Repeat("1", 101)},
		},
		Mapping: map[string]string{"email": "Email", "company": "Company", "phone": "Phone"},
	})
	assert.Nil(t, res)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	fields := make([]string, 0, len(vErr.Errors))
	for _, fe := range vErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"rows[0].company", "rows[1].phone"}, fields)
	assert.Contains(t, err.Error(), "must not exceed 200 characters")

	assert.Zero(t, repo.Commits)
}

func TestImportLeads_NameCompanyIdentity(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows: []map[string]string{
			{"Name": "Ann Lee", "Company": "Initech", "Role": "VP"},
			{"Name": " Ann Lee ", "Company": "Initech", "Role": "CEO"},
		},
		Mapping: map[string]string{"contactName": "Name", "company": "Company", "role": "Role"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Merged)

	key := "name+company:Ann Lee::Initech"
	doc, ok := repo.Doc(domain.StorageID(key))
	require.True(t, ok)
	assert.Equal(t, "CEO", doc["role"])
	assert.Equal(t, key, doc[domain.AttrDedupe])
}

func TestImportLeads_BulkTagsAndSourceOverrideRows(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	_, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		OrgID:    "acme",
		Rows:     []map[string]string{{"Email": "a@x.com", "Src": "row"}},
		Mapping:  map[string]string{"email": "Email", "source": "Src"},
		BulkTags: []string{" expo ", "expo", "2024"},
		Source:   "trade-show",
	})
	require.NoError(t, err)

	doc, _ := repo.Doc("a@x.com")
	assert.Equal(t, []string{"expo", "2024"}, doc[domain.AttrTags])
	assert.Equal(t, "trade-show", doc["source"])
	assert.Equal(t, "acme", doc[domain.AttrOrgID])
}

func TestImportLeads_NoBulkTagsLeavesTagsUntouched(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	_, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{
		Email: strPtr("a@x.com"),
		Tags:  []string{"vip"},
	}})
	require.NoError(t, err)

	_, err = uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}},
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)

	doc, _ := repo.Doc("a@x.com")
	assert.Equal(t, []string{"vip"}, doc[domain.AttrTags])
}

func TestImportLeads_FromCSVText(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		CSVText:   "Email;Company\nbob@x.com;Acme, Inc\n",
		Delimiter: ";",
		Mapping:   map[string]string{"email": "Email", "company": "Company"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	doc, _ := repo.Doc("bob@x.com")
	assert.Equal(t, "Acme, Inc", doc["company"])
}

func TestImportLeads_InvalidRequest(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	_, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		CSVText: "Email\na@x.com\n",
		Rows:    []map[string]string{{"Email": "a@x.com"}},
		Mapping: map[string]string{"nickname": "Nick"},
	})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	fields := make([]string, 0, len(vErr.Errors))
	for _, fe := range vErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "csvText")
	assert.Contains(t, fields, "mapping.nickname")
	assert.Zero(t, repo.Commits)
}

func TestImportLeads_ChunksExistenceChecks(t *testing.T) {
	uc, repo := newTestUsecase(Options{})

	rows := make([]map[string]string, 1200)
	for i := range rows {
		rows[i] = map[string]string{"Email": fmt.Sprintf("user%d@example.com", i)}
	}

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    rows,
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1200, res.Inserted)

	assert.Equal(t, 3, repo.ExistenceQueries)
	assert.LessOrEqual(t, repo.LargestQuery, 500)
	assert.Equal(t, 3, repo.Commits)
}

func TestImportLeads_SubBatchFailureFailsCall(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	repo.FailCommitAt = 2

	rows := make([]map[string]string, 1200)
	for i := range rows {
		rows[i] = map[string]string{"Email": fmt.Sprintf("user%d@example.com", i)}
	}

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    rows,
		Mapping: map[string]string{"email": "Email"},
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var storageErr *domain.StorageError
	assert.True(t, errors.As(err, &storageErr))

	// The first sub-batch stays committed.
	count, _ := repo.Count(context.Background())
	assert.EqualValues(t, 500, count)
}

func TestImportLeads_WriteBatchSizeIsCappedByStore(t *testing.T) {
	uc, repo := newTestUsecase(Options{WriteBatchSize: 10000})

	rows := make([]map[string]string, 501)
	for i := range rows {
		rows[i] = map[string]string{"Email": fmt.Sprintf("user%d@example.com", i)}
	}

	_, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    rows,
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Commits)
}

func TestImportLeads_CancelledContext(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}},
		Mapping: map[string]string{"email": "Email"},
	})
	require.Error(t, err)

	count, _ := repo.Count(context.Background())
	assert.Zero(t, count)
}

func TestImportLeads_PublishesCompletedEvent(t *testing.T) {
	uc, _ := newTestUsecase(Options{})
	pub := &fakePublisher{}
	uc.SetEventPublisher(pub)

	_, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		OrgID:   "acme",
		Rows:    []map[string]string{{"Email": "a@x.com"}, {"Email": "a@x.com"}},
		Mapping: map[string]string{"email": "Email"},
		Source:  "expo",
	})
	require.NoError(t, err)

	require.Len(t, pub.data, 1)
	assert.Equal(t, EventImportCompleted, pub.attrs[0]["type"])
	assert.Equal(t, "acme", pub.attrs[0]["orgId"])

	var event ImportCompletedEvent
	require.NoError(t, json.Unmarshal(pub.data[0], &event))
	assert.Equal(t, 1, event.Inserted)
	assert.Equal(t, 1, event.Merged)
	assert.Equal(t, 2, event.Total)
	assert.Equal(t, "expo", event.Source)
}

func TestImportLeads_PublishFailureIsIgnored(t *testing.T) {
	uc, _ := newTestUsecase(Options{})
	uc.SetEventPublisher(&fakePublisher{err: errors.New("topic not found")})

	res, err := uc.ImportLeads(context.Background(), dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}},
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
}

func TestUpsertLead_InsertThenUpdate(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	first, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{
		OrgID: "acme",
		Lead: dto.LeadPayload{
			Email:   strPtr(" Jane@Acme.com"),
			Phone:   strPtr("555"),
			Company: strPtr("Acme"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.UpsertLeadResponse{Inserted: 1, ID: "jane@acme.com"}, first)

	repo.SetClock(func() time.Time { return baseTime.Add(time.Minute) })

	second, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{
		Lead: dto.LeadPayload{
			Email: strPtr("jane@acme.com"),
			Phone: strPtr(""),
			Role:  strPtr("CTO"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &dto.UpsertLeadResponse{Updated: 1, ID: "jane@acme.com"}, second)

	lead, err := repo.FindByID(ctx, "jane@acme.com")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Empty(t, lead.Phone)
	assert.Equal(t, "Acme", lead.Company)
	assert.Equal(t, "CTO", lead.Role)
	assert.Equal(t, baseTime, lead.CreatedAt)
	assert.Equal(t, baseTime.Add(time.Minute), lead.UpdatedAt)
}

func TestUpsertLead_OmittedOrgIDKeepsStoredOrg(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	_, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{OrgID: "acme", Lead: dto.LeadPayload{Email: strPtr("a@x.com")}})
	require.NoError(t, err)

	_, err = uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{Email: strPtr("a@x.com"), Role: strPtr("CTO")}})
	require.NoError(t, err)

	doc, _ := repo.Doc("a@x.com")
	assert.Equal(t, "acme", doc[domain.AttrOrgID])
	assert.Equal(t, "CTO", doc["role"])

	_, err = uc.ImportLeads(ctx, dto.ImportRequest{
		Rows:    []map[string]string{{"Email": "a@x.com"}, {"Email": "new@x.com"}},
		Mapping: map[string]string{"email": "Email"},
	})
	require.NoError(t, err)

	doc, _ = repo.Doc("a@x.com")
	assert.Equal(t, "acme", doc[domain.AttrOrgID])
	created, _ := repo.Doc("new@x.com")
	assert.Equal(t, domain.DefaultOrgID, created[domain.AttrOrgID])

	_, err = uc.UpsertLead(ctx, dto.UpsertLeadRequest{OrgID: "globex", Lead: dto.LeadPayload{Email: strPtr("a@x.com")}})
	require.NoError(t, err)
	doc, _ = repo.Doc("a@x.com")
	assert.Equal(t, "globex", doc[domain.AttrOrgID])
}

func TestUpsertLead_ExplicitEmptyTagsClear(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	_, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{
		Email: strPtr("a@x.com"),
		Tags:  []string{"vip"},
	}})
	require.NoError(t, err)

	_, err = uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{
		Email: strPtr("a@x.com"),
		Tags:  []string{},
	}})
	require.NoError(t, err)

	doc, _ := repo.Doc("a@x.com")
	_, hasTags := doc[domain.AttrTags]
	assert.False(t, hasTags)
}

func TestUpsertLead_NameCompanyFallback(t *testing.T) {
	uc, _ := newTestUsecase(Options{})

	resp, err := uc.UpsertLead(context.Background(), dto.UpsertLeadRequest{Lead: dto.LeadPayload{
		ContactName: strPtr("Ann Lee"),
		Company:     strPtr("Initech"),
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.StorageID("name+company:Ann Lee::Initech"), resp.ID)
	assert.Equal(t, 1, resp.Inserted)
}

func TestUpsertLead_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		lead  dto.LeadPayload
		field string
	}{
		{
			name:  "no identity",
			lead:  dto.LeadPayload{ContactName: strPtr("Ann"), Phone: strPtr("555")},
			field: "lead",
		},
		{
			name:  "blank identity",
			lead:  dto.LeadPayload{Email: strPtr("   "), Company: strPtr("Acme")},
			field: "lead",
		},
		{
			name:  "malformed email",
			lead:  dto.LeadPayload{Email: strPtr("jane at acme")},
			field: "lead.email",
		},
		{
			name:  "email with slash",
			lead:  dto.LeadPayload{Email: strPtr("a/b@x.com")},
			field: "lead.email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo := newTestUsecase(Options{})

			_, err := uc.UpsertLead(context.Background(), dto.UpsertLeadRequest{Lead: tt.lead})

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			require.NotEmpty(t, vErr.Errors)
			assert.Equal(t, tt.field, vErr.Errors[0].Field)
			assert.Zero(t, repo.Commits)
		})
	}
}

func TestGetStats(t *testing.T) {
	uc, repo := newTestUsecase(Options{})
	ctx := context.Background()

	repo.SetClock(func() time.Time { return baseTime.Add(-10 * 24 * time.Hour) })
	for i := 0; i < 2; i++ {
		_, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{Email: strPtr(fmt.Sprintf("old%d@x.com", i))}})
		require.NoError(t, err)
	}

	repo.SetClock(func() time.Time { return baseTime.Add(-time.Hour) })
	_, err := uc.UpsertLead(ctx, dto.UpsertLeadRequest{Lead: dto.LeadPayload{Email: strPtr("new@x.com")}})
	require.NoError(t, err)

	stats, err := uc.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalLeads)
	assert.EqualValues(t, 1, stats.ImportsLast7Days)
	require.Len(t, stats.Recent, 3)
	assert.Equal(t, "new@x.com", stats.Recent[0].ID)
}
