package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"outreach-backend/internal/lead/domain"
	"outreach-backend/internal/lead/dto"

	"github.com/go-playground/validator/v10"
)

const (
	maxTextLen    = 200
	maxPhoneLen   = 100
	maxWebsiteLen = 2048
	maxOrgIDLen   = 128
	maxTagLen     = 100
	maxTags       = 100
)

var validate = validator.New()

// maxLen is the length bound of each canonical field
var maxLen = map[domain.Field]int{
	domain.FieldEmail:       254,
	domain.FieldContactName: maxTextLen,
	domain.FieldPhone:       maxPhoneLen,
	domain.FieldCompany:     maxTextLen,
	domain.FieldRole:        maxTextLen,
	domain.FieldWebsite:     maxWebsiteLen,
	domain.FieldIndustry:    maxTextLen,
	domain.FieldSource:      maxTextLen,
}

// ValidEmail reports whether s (already normalized) is usable as an email
// and as a document id.
func ValidEmail(s string) bool {
	if strings.Contains(s, "/") {
		return false
	}
	return validate.Var(s, "required,email") == nil
}

// ValidateUpsertLeadRequest checks field shapes and bounds. The identity rule
// is enforced later, after normalization.
func ValidateUpsertLeadRequest(req dto.UpsertLeadRequest) []domain.FieldError {
	var errs []domain.FieldError

	errs = append(errs, validateOrgID(req.OrgID)...)

	fields := req.Lead.Fields()
	for _, f := range domain.Fields {
		raw := fields[f]
		if raw == nil {
			continue
		}
		v := domain.Normalize(*raw)
		if f == domain.FieldEmail {
			v = domain.NormalizeEmail(v)
		}
		if fe := checkField("lead."+string(f), f, v); fe != nil {
			errs = append(errs, *fe)
		}
	}

	errs = append(errs, validateTags("lead.tags", req.Lead.Tags)...)
	return errs
}

// ValidateImportRequest checks the shape of an import request before any row
// is touched.
func ValidateImportRequest(req dto.ImportRequest) []domain.FieldError {
	var errs []domain.FieldError

	errs = append(errs, validateOrgID(req.OrgID)...)

	hasCSV := strings.TrimSpace(req.CSVText) != ""
	hasRows := req.Rows != nil
	switch {
	case hasCSV && hasRows:
		errs = append(errs, domain.FieldError{Field: "csvText", Message: "must not be combined with rows"})
	case !hasCSV && !hasRows:
		errs = append(errs, domain.FieldError{Field: "csvText", Message: "csvText or rows is required"})
	}

	if len(req.Mapping) == 0 {
		errs = append(errs, domain.FieldError{Field: "mapping", Message: "is required"})
	}
	for field, column := range req.Mapping {
		if !domain.IsField(field) {
			errs = append(errs, domain.FieldError{Field: "mapping." + field, Message: "is not a lead field"})
			continue
		}
		if strings.TrimSpace(column) == "" {
			errs = append(errs, domain.FieldError{Field: "mapping." + field, Message: "column name is required"})
		}
	}

	if req.Delimiter != "" && utf8.RuneCountInString(req.Delimiter) != 1 {
		errs = append(errs, domain.FieldError{Field: "delimiter", Message: "must be a single character"})
	}
	if utf8.RuneCountInString(domain.Normalize(req.Source)) > maxTextLen {
		errs = append(errs, domain.FieldError{Field: "source", Message: fmt.Sprintf("must not exceed %d characters", maxTextLen)})
	}

	errs = append(errs, validateTags("bulkTags", req.BulkTags)...)
	return errs
}

// ValidateCandidate checks the normalized fields of one import row. prefix
// names the row in the reported errors, e.g. "rows[3]".
func ValidateCandidate(prefix string, cand domain.Candidate) []domain.FieldError {
	var errs []domain.FieldError
	for _, f := range domain.Fields {
		if !cand.Has(f) {
			continue
		}
		if fe := checkField(prefix+"."+string(f), f, cand.Get(f)); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// checkField applies the length bound of f and, for emails, the shape rule.
// v must already be normalized.
func checkField(name string, f domain.Field, v string) *domain.FieldError {
	if utf8.RuneCountInString(v) > maxLen[f] {
		return &domain.FieldError{Field: name, Message: fmt.Sprintf("must not exceed %d characters", maxLen[f])}
	}
	if f == domain.FieldEmail && v != "" && !ValidEmail(v) {
		return &domain.FieldError{Field: name, Message: "is invalid"}
	}
	return nil
}

func validateOrgID(orgID string) []domain.FieldError {
	if utf8.RuneCountInString(orgID) > maxOrgIDLen {
		return []domain.FieldError{{Field: "orgId", Message: fmt.Sprintf("must not exceed %d characters", maxOrgIDLen)}}
	}
	return nil
}

func validateTags(name string, tags []string) []domain.FieldError {
	var errs []domain.FieldError
	if len(tags) > maxTags {
		errs = append(errs, domain.FieldError{Field: name, Message: fmt.Sprintf("must not contain more than %d tags", maxTags)})
	}
	for i, tag := range tags {
		if utf8.RuneCountInString(domain.Normalize(tag)) > maxTagLen {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("%s[%d]", name, i), Message: fmt.Sprintf("must not exceed %d characters", maxTagLen)})
		}
	}
	return errs
}
