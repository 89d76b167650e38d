package model

import "time"

// Collection names one of the canonical output collections.
type Collection string

const (
	CollectionSubdivisions Collection = "subdivisions"
	CollectionCities       Collection = "cities"
	CollectionCounties     Collection = "counties"
	CollectionRegions      Collection = "regions"
)

// Collections lists every output collection in rollup order.
var Collections = []Collection{
	CollectionSubdivisions,
	CollectionCities,
	CollectionCounties,
	CollectionRegions,
}

// ContentSource records which enrichment tier produced a description or photo.
type ContentSource string

const (
	ContentNone     ContentSource = ""
	ContentManual   ContentSource = "manual"
	ContentExact    ContentSource = "exact"
	ContentRegex    ContentSource = "regex"
	ContentCityWide ContentSource = "city_wide"
	ContentExternal ContentSource = "external"
	ContentTemplate ContentSource = "template"
)

// UnknownCounty is assigned to cities missing from the lookup tables.
const UnknownCounty = "Unknown"

// UnclassifiedRegion holds entities whose county is unknown.
const UnclassifiedRegion = "Unclassified"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PriceRange is the inclusive min/max list price.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PropertyTypes counts listings by property type code.
type PropertyTypes struct {
	Residential int `json:"residential"`
	Lease       int `json:"lease"`
	MultiFamily int `json:"multiFamily"`
}

// Add returns the component-wise sum.
func (p PropertyTypes) Add(o PropertyTypes) PropertyTypes {
	return PropertyTypes{
		Residential: p.Residential + o.Residential,
		Lease:       p.Lease + o.Lease,
		MultiFamily: p.MultiFamily + o.MultiFamily,
	}
}

// Total is the number of typed listings.
func (p PropertyTypes) Total() int {
	return p.Residential + p.Lease + p.MultiFamily
}

// Stats is the statistical shape shared by every level of the hierarchy.
type Stats struct {
	Coordinates   *Coordinates  `json:"coordinates,omitempty"`
	ListingCount  int           `json:"listingCount"`
	PriceRange    PriceRange    `json:"priceRange"`
	AvgPrice      float64       `json:"avgPrice"`
	MedianPrice   float64       `json:"medianPrice"`
	PropertyTypes PropertyTypes `json:"propertyTypes"`
	MLSSources    []string      `json:"mlsSources"`
	IsOcean       bool          `json:"isOcean"`
}

// HOA summarizes association fees across a subdivision's listings.
type HOA struct {
	AvgMonthlyFee float64 `json:"avgMonthlyFee"`
	Dual          bool    `json:"dual"`
}

// TopChild is a precomputed child entry for overview maps.
type TopChild struct {
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	AvgPrice     float64      `json:"avgPrice"`
	ListingCount int          `json:"listingCount"`
}

// Subdivision is the canonical community entity.
type Subdivision struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	NormalizedName string `json:"normalizedName"`
	City           string `json:"city"`
	County         string `json:"county"`
	Region         string `json:"region"`
	Stats

	CommunityFeatures string `json:"communityFeatures,omitempty"`
	SeniorCommunity   bool   `json:"seniorCommunity"`
	HOA               *HOA   `json:"hoa,omitempty"`

	HasManualData     bool          `json:"hasManualData"`
	Description       string        `json:"description,omitempty"`
	Photo             string        `json:"photo,omitempty"`
	Features          []string      `json:"features,omitempty"`
	Keywords          []string      `json:"keywords,omitempty"`
	DescriptionSource ContentSource `json:"descriptionSource,omitempty"`
	PhotoSource       ContentSource `json:"photoSource,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// IsNonHOA reports whether the subdivision is a "Non-HOA {city}" bucket.
func (s *Subdivision) IsNonHOA() bool {
	return len(s.Name) >= len(NonHOAPrefix) && s.Name[:len(NonHOAPrefix)] == NonHOAPrefix
}

// NonHOAPrefix starts the key of every no-community bucket.
const NonHOAPrefix = "Non-HOA "

// City is the rollup of subdivisions sharing a city.
type City struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	County string `json:"county"`
	Region string `json:"region"`
	Stats

	SubdivisionCount int        `json:"subdivisionCount"`
	TopSubdivisions  []TopChild `json:"topSubdivisions"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// County is the rollup of cities sharing a county.
type County struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Region string `json:"region"`
	Stats

	CityCount        int        `json:"cityCount"`
	SubdivisionCount int        `json:"subdivisionCount"`
	TopCities        []TopChild `json:"topCities"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Region is a macro-region rollup of counties.
type Region struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Stats

	CountyCount      int        `json:"countyCount"`
	CityCount        int        `json:"cityCount"`
	SubdivisionCount int        `json:"subdivisionCount"`
	Counties         []string   `json:"counties"`
	TopCounties      []TopChild `json:"topCounties"`

	LastUpdated time.Time `json:"lastUpdated"`
}
