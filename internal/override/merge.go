package override

import (
	"strings"

	"github.com/sells-group/community-cli/internal/model"
)

// RetainedSource names manual content carried over from the previous run.
const RetainedSource = "retained"

// placeholderPhotoHost marks sample photos left in curated files.
const placeholderPhotoHost = "example.com"

// content is one candidate of manual content for a subdivision.
type content struct {
	source      string
	description string
	photo       string
	features    []string
	keywords    []string
	coordinates *model.Coordinates
}

// strategy finds manual content for a subdivision.
type strategy func(sub *model.Subdivision) (content, bool)

// Merger overlays manual content in precedence order: content retained from
// the previous run, then the loaded override records.
type Merger struct {
	chain []strategy
}

// NewMerger builds a Merger. retained is keyed by slug; either argument may
// be nil.
func NewMerger(retained map[string]model.ManualContent, set *Set) *Merger {
	return &Merger{chain: []strategy{
		func(sub *model.Subdivision) (content, bool) {
			mc, ok := retained[sub.Slug]
			if !ok {
				return content{}, false
			}
			return content{source: RetainedSource, description: mc.Description, photo: mc.Photo}, true
		},
		func(sub *model.Subdivision) (content, bool) {
			rec, ok := set.Lookup(sub.Name, sub.City)
			if !ok {
				return content{}, false
			}
			return content{
				source:      rec.Source,
				description: strings.TrimSpace(rec.Description),
				photo:       strings.TrimSpace(rec.Photo),
				features:    rec.Features,
				keywords:    rec.Keywords,
				coordinates: rec.Coordinates,
			}, true
		},
	}}
}

// MergeResult counts what the merger applied.
type MergeResult struct {
	// Applied counts matched subdivisions per source name.
	Applied            map[string]int
	Matched            int
	CoordinatesFilled  int
	DescriptionsSet    int
	PhotosSet          int
	PlaceholderSkipped int
}

// Apply overlays manual content onto subs in place. Description and photo
// are only set when not already manual; features and keywords are replaced
// when the record has them.
func (m *Merger) Apply(subs []*model.Subdivision) MergeResult {
	res := MergeResult{Applied: map[string]int{}}
	for _, sub := range subs {
		matched := false
		for _, find := range m.chain {
			c, ok := find(sub)
			if !ok {
				continue
			}
			matched = true
			res.Applied[c.source]++
			m.apply(sub, c, &res)
		}
		if matched {
			res.Matched++
		}
	}
	return res
}

func (m *Merger) apply(sub *model.Subdivision, c content, res *MergeResult) {
	sub.HasManualData = true

	if c.description != "" && sub.DescriptionSource != model.ContentManual {
		sub.Description = c.description
		sub.DescriptionSource = model.ContentManual
		res.DescriptionsSet++
	}

	if c.photo != "" && sub.PhotoSource != model.ContentManual {
		if strings.Contains(c.photo, placeholderPhotoHost) {
			res.PlaceholderSkipped++
		} else {
			sub.Photo = c.photo
			sub.PhotoSource = model.ContentManual
			res.PhotosSet++
		}
	}

	if len(c.features) > 0 {
		sub.Features = append([]string(nil), c.features...)
	}
	if len(c.keywords) > 0 {
		sub.Keywords = append([]string(nil), c.keywords...)
	}

	if sub.Coordinates == nil && c.coordinates != nil {
		coords := *c.coordinates
		sub.Coordinates = &coords
		res.CoordinatesFilled++
	}
}

// CountsWith returns the per-source counts with applied totals filled in.
func (s *Set) CountsWith(res MergeResult) []model.OverrideCounts {
	out := make([]model.OverrideCounts, len(s.Counts))
	for i, c := range s.Counts {
		c.Applied = res.Applied[c.Name]
		out[i] = c
	}
	return out
}
