package aggregate

import (
	"sort"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/normalize"
	"github.com/sells-group/community-cli/internal/source"
)

// Collision records a slug that needed a disambiguating suffix.
type Collision struct {
	Name string
	City string
	Base string
	Slug string
}

// Result is the aggregated subdivision set.
type Result struct {
	// Subdivisions sorted by listingCount desc, then slug.
	Subdivisions []*model.Subdivision
	// Members holds each subdivision's listings, keyed by slug.
	Members    map[string][]model.RawListing
	Collisions []Collision
}

// Build groups records into subdivisions with deterministic slugs.
// prior maps identity to the slug stored by an earlier run; those identities
// keep their slug. Classification and enrichment are left to later stages.
func Build(records []source.Record, prior map[string]string) *Result {
	groups := Merge(GroupBySource(records))

	// Slug allocation runs in identity order so the result does not depend
	// on source ordering.
	sort.Slice(groups, func(i, j int) bool { return groups[i].Identity < groups[j].Identity })

	alloc := normalize.NewAllocator()
	identities := make([]string, 0, len(prior))
	for id := range prior {
		identities = append(identities, id)
	}
	sort.Strings(identities)
	for _, id := range identities {
		alloc.Reserve(prior[id], id)
	}

	res := &Result{Members: make(map[string][]model.RawListing, len(groups))}
	for _, g := range groups {
		base := g.Name + "-" + g.City
		slug, collided := alloc.Assign(base, g.Identity)
		if collided {
			res.Collisions = append(res.Collisions, Collision{Name: g.Name, City: g.City, Base: normalize.Slugify(base), Slug: slug})
		}

		listings := g.Listings()
		stats := MergeStats(g)
		stats.MedianPrice = Median(listings)
		stats.Coordinates = Centroid(listings)

		res.Subdivisions = append(res.Subdivisions, &model.Subdivision{
			Name:              g.Name,
			Slug:              slug,
			NormalizedName:    normalize.Name(g.Name),
			City:              g.City,
			Stats:             stats,
			CommunityFeatures: CommunityFeatures(listings),
			SeniorCommunity:   SeniorCommunity(listings),
			HOA:               HOA(listings),
		})
		res.Members[slug] = listings
	}

	SortEntities(res.Subdivisions)
	return res
}

// SortEntities orders subdivisions by listing count desc, then slug.
func SortEntities(subs []*model.Subdivision) {
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].ListingCount != subs[j].ListingCount {
			return subs[i].ListingCount > subs[j].ListingCount
		}
		return subs[i].Slug < subs[j].Slug
	})
}
