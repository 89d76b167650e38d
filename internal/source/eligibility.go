package source

import (
	"strings"

	"github.com/sells-group/community-cli/internal/model"
)

var placeholderNames = map[string]struct{}{
	"":                   {},
	"not applicable":     {},
	"n/a":                {},
	"na":                 {},
	"none":               {},
	"no subdivision":     {},
	"not in subdivision": {},
}

// IsPlaceholder reports whether a raw subdivision name means "no community".
func IsPlaceholder(name string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// NormalizeKey returns the grouping key for a listing: the trimmed raw name,
// or "Non-HOA {city}" for empty and placeholder names.
func NormalizeKey(name, city string) string {
	if IsPlaceholder(name) {
		return model.NonHOAPrefix + city
	}
	return strings.TrimSpace(name)
}

// Eligibility returns the exclusion reason for a listing, or "" when it is
// eligible. Status is checked first so inactive records with missing
// fields are not reported as incidents.
func Eligibility(l model.RawListing) string {
	switch {
	case !strings.EqualFold(strings.TrimSpace(l.Status), "active"):
		return ReasonInactive
	case strings.TrimSpace(l.City) == "":
		return ReasonMissingCity
	case l.Price <= 0:
		return ReasonMissingPrice
	}
	return ""
}
