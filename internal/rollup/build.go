package rollup

import (
	"sort"
	"strings"

	"github.com/sells-group/community-cli/internal/geo"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/normalize"
)

// Builder rolls subdivisions up the hierarchy, classifying and
// ocean-validating each parent.
type Builder struct {
	classifier *geo.Classifier
	validator  *geo.Validator
}

// NewBuilder creates a Builder.
func NewBuilder(c *geo.Classifier, v *geo.Validator) *Builder {
	return &Builder{classifier: c, validator: v}
}

// Result is the full parent hierarchy, each level sorted by listing count
// desc, then slug.
type Result struct {
	Cities   []*model.City
	Counties []*model.County
	Regions  []*model.Region
}

// Build derives cities, counties and regions.
func (b *Builder) Build(subs []*model.Subdivision) *Result {
	cities := b.Cities(subs)
	counties := b.Counties(cities)
	regions := b.Regions(counties)
	return &Result{Cities: cities, Counties: counties, Regions: regions}
}

// Cities groups subdivisions by city.
func (b *Builder) Cities(subs []*model.Subdivision) []*model.City {
	alloc := normalize.NewAllocator()
	var out []*model.City
	for _, g := range groupBy(subs, func(s *model.Subdivision) string { return s.City }) {
		stats := make([]*model.Stats, len(g.items))
		children := make([]child, len(g.items))
		for i, s := range g.items {
			stats[i] = &s.Stats
			children[i] = child{name: s.Name, slug: s.Slug, stats: &s.Stats}
		}
		cls := b.classifier.Classify(g.name)
		slug, _ := alloc.Assign(g.name, strings.ToLower(g.name))

		c := &model.City{
			Name:             g.name,
			Slug:             slug,
			County:           cls.County,
			Region:           cls.Region,
			Stats:            Combine(stats),
			SubdivisionCount: len(g.items),
			TopSubdivisions:  top(children),
		}
		b.validator.Flag(&c.Stats)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i].Stats, &out[j].Stats, out[i].Slug, out[j].Slug) })
	return out
}

// Counties groups cities by county.
func (b *Builder) Counties(cities []*model.City) []*model.County {
	subsByCounty := make(map[string]int)
	for _, c := range cities {
		subsByCounty[strings.ToLower(c.County)] += c.SubdivisionCount
	}

	alloc := normalize.NewAllocator()
	var out []*model.County
	for _, g := range groupBy(cities, func(c *model.City) string { return c.County }) {
		stats := make([]*model.Stats, len(g.items))
		children := make([]child, len(g.items))
		for i, c := range g.items {
			stats[i] = &c.Stats
			children[i] = child{name: c.Name, slug: c.Slug, stats: &c.Stats}
		}
		slug, _ := alloc.Assign(g.name, strings.ToLower(g.name))

		c := &model.County{
			Name:             g.name,
			Slug:             slug,
			Region:           b.classifier.CountyRegion(g.name),
			Stats:            Combine(stats),
			CityCount:        len(g.items),
			SubdivisionCount: subsByCounty[strings.ToLower(g.name)],
			TopCities:        top(children),
		}
		b.validator.Flag(&c.Stats)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i].Stats, &out[j].Stats, out[i].Slug, out[j].Slug) })
	return out
}

// Regions groups counties by macro region.
func (b *Builder) Regions(counties []*model.County) []*model.Region {
	alloc := normalize.NewAllocator()
	var out []*model.Region
	for _, g := range groupBy(counties, func(c *model.County) string { return geo.MacroRegion(c.Region) }) {
		stats := make([]*model.Stats, len(g.items))
		children := make([]child, len(g.items))
		names := make([]string, len(g.items))
		r := &model.Region{Name: g.name, CountyCount: len(g.items)}
		for i, c := range g.items {
			stats[i] = &c.Stats
			children[i] = child{name: c.Name, slug: c.Slug, stats: &c.Stats}
			names[i] = c.Name
			r.CityCount += c.CityCount
			r.SubdivisionCount += c.SubdivisionCount
		}
		sort.Strings(names)
		r.Slug, _ = alloc.Assign(g.name, strings.ToLower(g.name))
		r.Stats = Combine(stats)
		r.Counties = names
		r.TopCounties = top(children)
		b.validator.Flag(&r.Stats)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i].Stats, &out[j].Stats, out[i].Slug, out[j].Slug) })
	return out
}
