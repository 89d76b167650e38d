// Package aggregate groups eligible listings into subdivisions, merging
// per-source partial aggregates additively.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/normalize"
	"github.com/sells-group/community-cli/internal/source"
)

// Partial is one source's aggregate for a (key, city) group.
type Partial struct {
	Source        string
	Name          string
	City          string
	Count         int
	Min           float64
	Max           float64
	Avg           float64
	PropertyTypes model.PropertyTypes
	Listings      []model.RawListing

	sum float64
}

// Group is the cross-source merge of every Partial sharing an identity.
// Display name and city come from the first partial in source order.
type Group struct {
	Identity string
	Name     string
	City     string
	Parts    []*Partial
}

// Listings returns every member listing in source order.
func (g *Group) Listings() []model.RawListing {
	var out []model.RawListing
	for _, p := range g.Parts {
		out = append(out, p.Listings...)
	}
	return out
}

// GroupBySource builds one Partial per (source, identity), preserving
// first-appearance order.
func GroupBySource(records []source.Record) []*Partial {
	index := make(map[string]*Partial)
	var out []*Partial
	for _, r := range records {
		k := r.Listing.Source + "\x00" + normalize.Identity(r.Key, r.City)
		p, ok := index[k]
		if !ok {
			p = &Partial{Source: r.Listing.Source, Name: r.Key, City: r.City, Min: math.Inf(1), Max: math.Inf(-1)}
			index[k] = p
			out = append(out, p)
		}
		p.add(r.Listing)
	}
	return out
}

func (p *Partial) add(l model.RawListing) {
	p.sum += l.Price
	p.Count++
	p.Avg = p.sum / float64(p.Count)
	p.Min = math.Min(p.Min, l.Price)
	p.Max = math.Max(p.Max, l.Price)
	switch l.PropertyType {
	case model.PropertyTypeResidential:
		p.PropertyTypes.Residential++
	case model.PropertyTypeLease:
		p.PropertyTypes.Lease++
	case model.PropertyTypeMultiFamily:
		p.PropertyTypes.MultiFamily++
	}
	p.Listings = append(p.Listings, l)
}

// Merge combines partials across sources by identity.
func Merge(parts []*Partial) []*Group {
	index := make(map[string]*Group)
	var out []*Group
	for _, p := range parts {
		id := normalize.Identity(p.Name, p.City)
		g, ok := index[id]
		if !ok {
			g = &Group{Identity: id, Name: p.Name, City: p.City}
			index[id] = g
			out = append(out, g)
		}
		g.Parts = append(g.Parts, p)
	}
	return out
}

// MergeStats computes the additive statistics of a group: summed counts and
// property types, min/max range, count-weighted average and source union.
func MergeStats(g *Group) model.Stats {
	var (
		s       model.Stats
		weight  float64
		sources = map[string]struct{}{}
	)
	s.PriceRange = model.PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range g.Parts {
		s.ListingCount += p.Count
		s.PriceRange.Min = math.Min(s.PriceRange.Min, p.Min)
		s.PriceRange.Max = math.Max(s.PriceRange.Max, p.Max)
		s.PropertyTypes = s.PropertyTypes.Add(p.PropertyTypes)
		weight += p.Avg * float64(p.Count)
		sources[p.Source] = struct{}{}
	}
	if s.ListingCount == 0 {
		return model.Stats{MLSSources: []string{}}
	}
	s.AvgPrice = math.Round(weight / float64(s.ListingCount))

	s.MLSSources = make([]string, 0, len(sources))
	for src := range sources {
		s.MLSSources = append(s.MLSSources, src)
	}
	sort.Strings(s.MLSSources)
	return s
}

// Median returns the upper median of the listing prices.
func Median(listings []model.RawListing) float64 {
	if len(listings) == 0 {
		return 0
	}
	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.Price
	}
	sort.Float64s(prices)
	return prices[len(prices)/2]
}

// Centroid is the mean coordinate of listings that carry one.
func Centroid(listings []model.RawListing) *model.Coordinates {
	var lat, lng float64
	n := 0
	for _, l := range listings {
		if !l.HasCoordinates() {
			continue
		}
		lat += *l.Latitude
		lng += *l.Longitude
		n++
	}
	if n == 0 {
		return nil
	}
	return &model.Coordinates{Lat: lat / float64(n), Lng: lng / float64(n)}
}

// CommunityFeatures merges comma-separated feature text into unique tokens
// in first-seen order. Matching is case-insensitive.
func CommunityFeatures(listings []model.RawListing) string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, l := range listings {
		for _, tok := range strings.Split(l.CommunityFeatures, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			k := strings.ToLower(tok)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, ", ")
}

// SeniorCommunity is a strict majority vote of the senior flag.
func SeniorCommunity(listings []model.RawListing) bool {
	n := 0
	for _, l := range listings {
		if l.SeniorCommunity {
			n++
		}
	}
	return n*2 > len(listings)
}

// HOA averages the positive primary association fees, falling back to the
// secondary field when no primary fee exists. Any secondary fee marks the
// community as dual-HOA. Nil when no listing reports a fee.
func HOA(listings []model.RawListing) *model.HOA {
	var (
		primary, secondary   float64
		nPrimary, nSecondary int
	)
	for _, l := range listings {
		if l.AssociationFee > 0 {
			primary += l.AssociationFee
			nPrimary++
		}
		if l.AssociationFee2 > 0 {
			secondary += l.AssociationFee2
			nSecondary++
		}
	}
	switch {
	case nPrimary > 0:
		return &model.HOA{AvgMonthlyFee: math.Round(primary / float64(nPrimary)), Dual: nSecondary > 0}
	case nSecondary > 0:
		return &model.HOA{AvgMonthlyFee: math.Round(secondary / float64(nSecondary)), Dual: true}
	}
	return nil
}
