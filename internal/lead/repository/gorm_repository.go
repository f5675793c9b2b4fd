package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"outreach-backend/internal/lead/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres caps bind parameters per statement; 500 rows keeps each write well
// inside it and matches the Firestore batch size.
const gormMaxBatch = 500

// LeadRecord is the relational row for a lead (STORAGE_DRIVER=postgres)
type LeadRecord struct {
	ID          string    `gorm:"primaryKey"`
	Email       *string   `gorm:"index"`
	ContactName *string
	Phone       *string
	Company     *string
	Role        *string
	Website     *string
	Industry    *string
	Source      *string
	Tags        *string   `gorm:"type:jsonb"`
	OrgID       string    `gorm:"index"`
	Dedupe      string    `gorm:"index"`
	Score       int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (LeadRecord) TableName() string {
	return "leads"
}

// columns maps stored attribute names to LeadRecord columns
var columns = map[string]string{
	string(domain.FieldEmail):       "email",
	string(domain.FieldContactName): "contact_name",
	string(domain.FieldPhone):       "phone",
	string(domain.FieldCompany):     "company",
	string(domain.FieldRole):        "role",
	string(domain.FieldWebsite):     "website",
	string(domain.FieldIndustry):    "industry",
	string(domain.FieldSource):      "source",
	domain.AttrTags:                 "tags",
	domain.AttrOrgID:                "org_id",
	domain.AttrDedupe:               "dedupe",
	domain.AttrScore:                "score",
}

// gormLeadRepository implements LeadRepository using GORM
type gormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a GORM-based LeadRepository
func NewGormLeadRepository(db *gorm.DB) LeadRepository {
	return &gormLeadRepository{db: db}
}

func (r *gormLeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	var rec LeadRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return rec.toDomain()
}

func (r *gormLeadRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}

	var existing []string
	err := r.db.WithContext(ctx).Model(&LeadRecord{}).Where("id IN ?", ids).Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// CommitBatch applies the upserts in one transaction. Inserts use
// ON CONFLICT (id) DO UPDATE so a row created concurrently is merged rather
// than failing the batch.
func (r *gormLeadRepository) CommitBatch(ctx context.Context, upserts []Upsert) error {
	if len(upserts) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range upserts {
			updates, err := assignments(u)
			if err != nil {
				return err
			}
			now := gorm.Expr("NOW()")
			updates["updated_at"] = now

			if !u.Create {
				if err := tx.Model(&LeadRecord{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
					return err
				}
				continue
			}

			row := make(map[string]interface{}, len(updates)+2)
			for k, v := range updates {
				row[k] = v
			}
			row["id"] = u.ID
			row["created_at"] = now

			err = tx.Model(&LeadRecord{}).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(updates),
			}).Create(row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormLeadRepository) MaxBatchSize() int {
	return gormMaxBatch
}

func (r *gormLeadRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&LeadRecord{}).Count(&total).Error
	return total, err
}

func (r *gormLeadRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&LeadRecord{}).Where("created_at >= ?", since).Count(&total).Error
	return total, err
}

func (r *gormLeadRepository) Recent(ctx context.Context, limit int) ([]*domain.Lead, error) {
	var recs []LeadRecord
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}

	leads := make([]*domain.Lead, 0, len(recs))
	for i := range recs {
		lead, err := recs[i].toDomain()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// assignments converts an Upsert into column assignments. Cleared attributes
// become NULL.
func assignments(u Upsert) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(u.Set)+len(u.Clear))
	for k, v := range u.Set {
		col, ok := columns[k]
		if !ok {
			continue
		}
		if k == domain.AttrTags {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			v = string(raw)
		}
		out[col] = v
	}
	for _, k := range u.Clear {
		if col, ok := columns[k]; ok {
			out[col] = nil
		}
	}
	return out, nil
}

func (rec *LeadRecord) toDomain() (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:        rec.ID,
		OrgID:     rec.OrgID,
		Dedupe:    rec.Dedupe,
		Score:     rec.Score,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	values := map[domain.Field]*string{
		domain.FieldEmail:       rec.Email,
		domain.FieldContactName: rec.ContactName,
		domain.FieldPhone:       rec.Phone,
		domain.FieldCompany:     rec.Company,
		domain.FieldRole:        rec.Role,
		domain.FieldWebsite:     rec.Website,
		domain.FieldIndustry:    rec.Industry,
		domain.FieldSource:      rec.Source,
	}
	for f, v := range values {
		if v != nil {
			lead.Set(f, *v)
		}
	}
	if rec.Tags != nil {
		if err := json.Unmarshal([]byte(*rec.Tags), &lead.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of lead %s: %w", rec.ID, err)
		}
	}
	return lead, nil
}
