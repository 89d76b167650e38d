// Package geo classifies cities into counties and regions and flags
// coordinates that fall in the ocean.
package geo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/community-cli/internal/model"
)

// Classification is the county and region resolved for a city.
type Classification struct {
	County string
	Region string
	Known  bool
}

// Classifier resolves cities against injected lookup tables. It is safe for
// concurrent use once built.
type Classifier struct {
	county    map[string]string // folded city -> county
	canonical map[string]string // folded city -> table spelling
	region    map[string]string // county -> region
	named     map[string]string // folded city -> override region
}

// NewClassifier indexes t for case-insensitive lookups.
func NewClassifier(t *Tables) *Classifier {
	c := &Classifier{
		county:    make(map[string]string),
		canonical: make(map[string]string),
		region:    make(map[string]string, len(t.Regions)),
		named:     make(map[string]string),
	}
	for county, cities := range t.Counties {
		for _, city := range cities {
			c.county[foldCity(city)] = county
			c.canonical[foldCity(city)] = city
		}
	}
	for county, region := range t.Regions {
		c.region[county] = region
	}
	for _, o := range t.Overrides {
		for _, city := range o.Cities {
			key := foldCity(city)
			// First override listing a city wins.
			if _, ok := c.named[key]; !ok {
				c.named[key] = o.Region
			}
			if _, ok := c.canonical[key]; !ok {
				c.canonical[key] = city
			}
		}
	}
	return c
}

func foldCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}

// CanonicalCity returns the table spelling of city, or a title-cased
// version when the feed shouts or whispers an unknown name.
func (c *Classifier) CanonicalCity(city string) string {
	city = strings.Join(strings.Fields(city), " ")
	if name, ok := c.canonical[foldCity(city)]; ok {
		return name
	}
	if city == strings.ToUpper(city) || city == strings.ToLower(city) {
		return cases.Title(language.English).String(city)
	}
	return city
}

// County returns the county for city, or model.UnknownCounty.
func (c *Classifier) County(city string) (string, bool) {
	if county, ok := c.county[foldCity(city)]; ok {
		return county, true
	}
	return model.UnknownCounty, false
}

// Region applies the named city overrides, then the county table. Counties
// missing from the table become "{county} County".
func (c *Classifier) Region(city, county string) string {
	if region, ok := c.named[foldCity(city)]; ok {
		return region
	}
	return c.CountyRegion(county)
}

// CountyRegion is the region of a county without city overrides.
func (c *Classifier) CountyRegion(county string) string {
	if county == "" || county == model.UnknownCounty {
		return model.UnclassifiedRegion
	}
	if region, ok := c.region[county]; ok {
		return region
	}
	return county + " County"
}

// Classify resolves county and region for city.
func (c *Classifier) Classify(city string) Classification {
	county, known := c.County(city)
	return Classification{
		County: county,
		Region: c.Region(city, county),
		Known:  known,
	}
}

// Macro-regions used to bucket counties for region rollups.
const (
	MacroNorthern = "Northern California"
	MacroCentral  = "Central California"
	MacroSouthern = "Southern California"
)

var centralMarkers = []string{"Bay Area", "Sacramento", "Central Valley", "Central Coast", "Sierra"}

// MacroRegion buckets a county region by name. The unclassified bucket
// stays separate so it remains visible.
func MacroRegion(region string) string {
	if region == model.UnclassifiedRegion {
		return model.UnclassifiedRegion
	}
	if strings.Contains(region, "Northern") {
		return MacroNorthern
	}
	for _, m := range centralMarkers {
		if strings.Contains(region, m) {
			return MacroCentral
		}
	}
	return MacroSouthern
}
