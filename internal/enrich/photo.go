package enrich

import (
	"regexp"
	"strings"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/source"
)

// PhotoIndex holds every eligible listing that carries a photo, by city.
type PhotoIndex struct {
	byCity map[string][]model.RawListing // lower-cased city
}

// NewPhotoIndex indexes listings with a photo URL.
func NewPhotoIndex(members map[string][]model.RawListing) *PhotoIndex {
	idx := &PhotoIndex{byCity: make(map[string][]model.RawListing)}
	for _, ls := range members {
		for _, l := range ls {
			if strings.TrimSpace(l.PhotoURL) == "" {
				continue
			}
			key := strings.ToLower(l.City)
			idx.byCity[key] = append(idx.byCity[key], l)
		}
	}
	return idx
}

// best returns the photo of the highest-priced listing accepted by keep.
// Ties go to the lower listing key so the choice is stable.
func (idx *PhotoIndex) best(city string, keep func(l *model.RawListing) bool) (string, bool) {
	var (
		found bool
		top   model.RawListing
	)
	for _, l := range idx.byCity[strings.ToLower(city)] {
		if !keep(&l) {
			continue
		}
		if !found || l.Price > top.Price || (l.Price == top.Price && l.ListingKey < top.ListingKey) {
			top, found = l, true
		}
	}
	return strings.TrimSpace(top.PhotoURL), found
}

// Exact matches listings whose raw subdivision name and city equal the
// subdivision's exactly.
func (idx *PhotoIndex) Exact(sub *model.Subdivision) (string, bool) {
	return idx.best(sub.City, func(l *model.RawListing) bool {
		return l.SubdivisionName == sub.Name && l.City == sub.City
	})
}

// Pattern matches the name case-insensitively, ignoring surrounding space.
func (idx *PhotoIndex) Pattern(sub *model.Subdivision) (string, bool) {
	re, err := regexp.Compile(`(?i)^\s*` + regexp.QuoteMeta(sub.Name) + `\s*$`)
	if err != nil {
		return "", false
	}
	return idx.best(sub.City, func(l *model.RawListing) bool {
		return re.MatchString(l.SubdivisionName)
	})
}

// CityWide serves Non-HOA buckets from any no-community listing in the city.
func (idx *PhotoIndex) CityWide(sub *model.Subdivision) (string, bool) {
	if !sub.IsNonHOA() {
		return "", false
	}
	return idx.best(sub.City, func(l *model.RawListing) bool {
		return source.IsPlaceholder(l.SubdivisionName)
	})
}

// Representative returns the highest-priced member listing, used as the
// key for external photo lookups.
func Representative(ls []model.RawListing) (model.RawListing, bool) {
	var (
		found bool
		top   model.RawListing
	)
	for _, l := range ls {
		if l.ListingKey == "" {
			continue
		}
		if !found || l.Price > top.Price || (l.Price == top.Price && l.ListingKey < top.ListingKey) {
			top, found = l, true
		}
	}
	return top, found
}
