package domain

import "time"

// Field is a canonical scalar lead field, named as it is stored.
type Field string

const (
	FieldEmail       Field = "email"
	FieldContactName Field = "contactName"
	FieldPhone       Field = "phone"
	FieldCompany     Field = "company"
	FieldRole        Field = "role"
	FieldWebsite     Field = "website"
	FieldIndustry    Field = "industry"
	FieldSource      Field = "source"
)

// Fields lists every canonical scalar field in a stable order.
var Fields = []Field{
	FieldEmail,
	FieldContactName,
	FieldPhone,
	FieldCompany,
	FieldRole,
	FieldWebsite,
	FieldIndustry,
	FieldSource,
}

// Stored attribute names that are not canonical scalar fields.
const (
	AttrTags      = "tags"
	AttrOrgID     = "orgId"
	AttrDedupe    = "dedupe"
	AttrScore     = "score"
	AttrCreatedAt = "createdAt"
	AttrUpdatedAt = "updatedAt"
)

// DefaultOrgID is used when a request does not name an org.
const DefaultOrgID = "default"

// IsField reports whether name is a canonical scalar field.
func IsField(name string) bool {
	for _, f := range Fields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// Lead is a stored lead record.
type Lead struct {
	ID          string    `json:"id" firestore:"-"`
	Email       string    `json:"email,omitempty" firestore:"email,omitempty"`
	ContactName string    `json:"contactName,omitempty" firestore:"contactName,omitempty"`
	Phone       string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Company     string    `json:"company,omitempty" firestore:"company,omitempty"`
	Role        string    `json:"role,omitempty" firestore:"role,omitempty"`
	Website     string    `json:"website,omitempty" firestore:"website,omitempty"`
	Industry    string    `json:"industry,omitempty" firestore:"industry,omitempty"`
	Source      string    `json:"source,omitempty" firestore:"source,omitempty"`
	Tags        []string  `json:"tags,omitempty" firestore:"tags,omitempty"`
	OrgID       string    `json:"orgId,omitempty" firestore:"orgId,omitempty"`
	Dedupe      string    `json:"dedupe,omitempty" firestore:"dedupe,omitempty"`
	Score       int       `json:"score" firestore:"score"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Get returns the value of a canonical field.
func (l *Lead) Get(f Field) string {
	switch f {
	case FieldEmail:
		return l.Email
	case FieldContactName:
		return l.ContactName
	case FieldPhone:
		return l.Phone
	case FieldCompany:
		return l.Company
	case FieldRole:
		return l.Role
	case FieldWebsite:
		return l.Website
	case FieldIndustry:
		return l.Industry
	case FieldSource:
		return l.Source
	}
	return ""
}

// Set assigns a canonical field. Unknown fields are ignored.
func (l *Lead) Set(f Field, v string) {
	switch f {
	case FieldEmail:
		l.Email = v
	case FieldContactName:
		l.ContactName = v
	case FieldPhone:
		l.Phone = v
	case FieldCompany:
		l.Company = v
	case FieldRole:
		l.Role = v
	case FieldWebsite:
		l.Website = v
	case FieldIndustry:
		l.Industry = v
	case FieldSource:
		l.Source = v
	}
}

// Candidate is a normalized lead on its way to storage.
//
// Values holds only the fields the caller supplied. A present field with an
// empty value is cleared on write; an absent field is left untouched.
// Tags is nil when the caller supplied none.
type Candidate struct {
	Values map[Field]string
	Tags   []string
	OrgID  string
}

// NewCandidate returns an empty candidate for orgID.
func NewCandidate(orgID string) Candidate {
	return Candidate{Values: make(map[Field]string), OrgID: orgID}
}

// Get returns the normalized value of f, or "" when absent.
func (c Candidate) Get(f Field) string {
	return c.Values[f]
}

// Has reports whether f was supplied.
func (c Candidate) Has(f Field) bool {
	_, ok := c.Values[f]
	return ok
}

// Put stores the normalized form of v under f.
func (c Candidate) Put(f Field, v string) {
	if f == FieldEmail {
		c.Values[f] = NormalizeEmail(v)
		return
	}
	c.Values[f] = Normalize(v)
}
