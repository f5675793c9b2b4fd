package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	emailKeyPrefix       = "email:"
	nameCompanyKeyPrefix = "name+company:"
	nameCompanySeparator = "::"
)

// leadNamespace seeds UUIDv5 storage ids for name+company identities.
// Changing it re-keys every such lead.
var leadNamespace = uuid.MustParse("6f1c8a52-3c1e-5b7a-9d0e-2f4b8c61a7d3")

// Normalize trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(Normalize(s))
}

// NormalizeTags trims tags and drops empties and duplicates, keeping first
// occurrence order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DeriveKey returns the identity key of c. ok is false when c has neither an
// email nor both a contact name and a company.
func DeriveKey(c Candidate) (key string, ok bool) {
	if email := NormalizeEmail(c.Get(FieldEmail)); email != "" {
		return emailKeyPrefix + email, true
	}
	name := Normalize(c.Get(FieldContactName))
	company := Normalize(c.Get(FieldCompany))
	if name != "" && company != "" {
		return nameCompanyKeyPrefix + name + nameCompanySeparator + company, true
	}
	return "", false
}

// StorageID maps an identity key to its document id: the email itself for
// email keys, a UUIDv5 of the key otherwise.
func StorageID(key string) string {
	if email, ok := strings.CutPrefix(key, emailKeyPrefix); ok {
		return email
	}
	return uuid.NewSHA1(leadNamespace, []byte(key)).String()
}
