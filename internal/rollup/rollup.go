// Package rollup builds the city, county and region hierarchy from
// subdivisions.
package rollup

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/community-cli/internal/model"
)

// TopN is the length of every precomputed top-children list.
const TopN = 10

// child is the view of one entity a parent rolls up.
type child struct {
	name  string
	slug  string
	stats *model.Stats
}

// Combine merges child statistics: summed counts and property types,
// count-weighted average, min/max range, the median of child medians and
// the listing-weighted centroid of non-ocean children.
func Combine(children []*model.Stats) model.Stats {
	var (
		s                model.Stats
		weight           float64
		lat, lng, coordW float64
		medians          []float64
		sources          = map[string]struct{}{}
	)
	s.PriceRange = model.PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, c := range children {
		if c.ListingCount == 0 {
			continue
		}
		s.ListingCount += c.ListingCount
		s.PropertyTypes = s.PropertyTypes.Add(c.PropertyTypes)
		s.PriceRange.Min = math.Min(s.PriceRange.Min, c.PriceRange.Min)
		s.PriceRange.Max = math.Max(s.PriceRange.Max, c.PriceRange.Max)
		weight += c.AvgPrice * float64(c.ListingCount)
		medians = append(medians, c.MedianPrice)
		for _, src := range c.MLSSources {
			sources[src] = struct{}{}
		}
		if c.Coordinates != nil && !c.IsOcean {
			w := float64(c.ListingCount)
			lat += c.Coordinates.Lat * w
			lng += c.Coordinates.Lng * w
			coordW += w
		}
	}

	s.MLSSources = make([]string, 0, len(sources))
	for src := range sources {
		s.MLSSources = append(s.MLSSources, src)
	}
	sort.Strings(s.MLSSources)

	if s.ListingCount == 0 {
		s.PriceRange = model.PriceRange{}
		return s
	}
	s.AvgPrice = math.Round(weight / float64(s.ListingCount))
	sort.Float64s(medians)
	s.MedianPrice = medians[len(medians)/2]
	if coordW > 0 {
		s.Coordinates = &model.Coordinates{Lat: lat / coordW, Lng: lng / coordW}
	}
	return s
}

// top returns up to TopN children by listing count desc, then slug,
// leaving out ocean-flagged ones.
func top(children []child) []model.TopChild {
	sorted := make([]child, 0, len(children))
	for _, c := range children {
		if !c.stats.IsOcean {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].stats.ListingCount != sorted[j].stats.ListingCount {
			return sorted[i].stats.ListingCount > sorted[j].stats.ListingCount
		}
		return sorted[i].slug < sorted[j].slug
	})
	if len(sorted) > TopN {
		sorted = sorted[:TopN]
	}
	out := make([]model.TopChild, len(sorted))
	for i, c := range sorted {
		out[i] = model.TopChild{
			Name:         c.name,
			Slug:         c.slug,
			Coordinates:  c.stats.Coordinates,
			AvgPrice:     c.stats.AvgPrice,
			ListingCount: c.stats.ListingCount,
		}
	}
	return out
}

func less(a, b *model.Stats, slugA, slugB string) bool {
	if a.ListingCount != b.ListingCount {
		return a.ListingCount > b.ListingCount
	}
	return slugA < slugB
}

// bucket groups items under a case-insensitive key, keeping the first
// spelling and first-seen order.
type bucket[T any] struct {
	name  string
	items []T
}

func groupBy[T any](items []T, key func(T) string) []*bucket[T] {
	index := make(map[string]*bucket[T])
	var out []*bucket[T]
	for _, it := range items {
		name := key(it)
		k := strings.ToLower(name)
		b, ok := index[k]
		if !ok {
			b = &bucket[T]{name: name}
			index[k] = b
			out = append(out, b)
		}
		b.items = append(b.items, it)
	}
	// Slug allocation below must not depend on input order.
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].name) < strings.ToLower(out[j].name) })
	return out
}
