package dto

import "outreach-backend/internal/lead/domain"

// LeadPayload is a raw lead as sent by clients. Nil fields were not sent and
// leave stored values untouched; empty strings clear them.
type LeadPayload struct {
	Email       *string  `json:"email,omitempty"`
	ContactName *string  `json:"contactName,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Company     *string  `json:"company,omitempty"`
	Role        *string  `json:"role,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Industry    *string  `json:"industry,omitempty"`
	Source      *string  `json:"source,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Fields returns the supplied canonical fields with their raw values.
func (p LeadPayload) Fields() map[domain.Field]*string {
	return map[domain.Field]*string{
		domain.FieldEmail:       p.Email,
		domain.FieldContactName: p.ContactName,
		domain.FieldPhone:       p.Phone,
		domain.FieldCompany:     p.Company,
		domain.FieldRole:        p.Role,
		domain.FieldWebsite:     p.Website,
		domain.FieldIndustry:    p.Industry,
		domain.FieldSource:      p.Source,
	}
}

// UpsertLeadRequest is the body of POST /api/leads
type UpsertLeadRequest struct {
	OrgID string      `json:"orgId,omitempty"`
	Lead  LeadPayload `json:"lead"`
}

// UpsertLeadResponse reports whether the lead was created or merged
type UpsertLeadResponse struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	ID       string `json:"id"`
}

// ImportRequest is the body of POST /api/leads/import. Exactly one of CSVText
// and Rows must be set.
type ImportRequest struct {
	OrgID     string              `json:"orgId,omitempty"`
	CSVText   string              `json:"csvText,omitempty"`
	Rows      []map[string]string `json:"rows,omitempty"`
	Mapping   map[string]string   `json:"mapping"`
	BulkTags  []string            `json:"bulkTags,omitempty"`
	Source    string              `json:"source,omitempty"`
	Delimiter string              `json:"delimiter,omitempty"`
}

// ImportResponse carries the reconciliation tallies. Inserted + Updated +
// Merged + Skipped always equals Total.
type ImportResponse struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// StatsResponse is the dashboard snapshot
type StatsResponse struct {
	TotalLeads       int64          `json:"totalLeads"`
	ImportsLast7Days int64          `json:"importsLast7Days"`
	Recent           []*domain.Lead `json:"recent"`
}
