package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyTypesAdd(t *testing.T) {
	t.Parallel()

	a := PropertyTypes{Residential: 3, Lease: 1}
	b := PropertyTypes{Residential: 2, MultiFamily: 4}

	sum := a.Add(b)
	assert.Equal(t, PropertyTypes{Residential: 5, Lease: 1, MultiFamily: 4}, sum)
	assert.Equal(t, 10, sum.Total())
}

func TestSubdivisionIsNonHOA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"Non-HOA Indio", true},
		{"Non-HOA ", true},
		{"Sun City Shadow Hills", false},
		{"Non-HOAville", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Subdivision{Name: tt.name}
			assert.Equal(t, tt.want, s.IsNonHOA())
		})
	}
}

func TestRawListingHasCoordinates(t *testing.T) {
	t.Parallel()

	lat, lng, zero := 33.7, -116.2, 0.0

	assert.True(t, (&RawListing{Latitude: &lat, Longitude: &lng}).HasCoordinates())
	assert.False(t, (&RawListing{Latitude: &lat}).HasCoordinates())
	assert.False(t, (&RawListing{Latitude: &zero, Longitude: &zero}).HasCoordinates())
}

func TestSubdivisionJSONFlattensStats(t *testing.T) {
	t.Parallel()

	s := Subdivision{
		Name: "PGA West",
		Slug: "pga-west-la-quinta",
		City: "La Quinta",
		Stats: Stats{
			ListingCount: 4,
			PriceRange:   PriceRange{Min: 500000, Max: 900000},
			MLSSources:   []string{"GPS"},
		},
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, float64(4), doc["listingCount"])
	assert.Equal(t, "pga-west-la-quinta", doc["slug"])
	assert.NotContains(t, doc, "Stats")
	assert.NotContains(t, doc, "coordinates")
}

func TestSourceCountsExcludedTotal(t *testing.T) {
	t.Parallel()

	c := SourceCounts{Excluded: map[string]int{"missing_city": 2, "inactive": 5}}
	assert.Equal(t, 7, c.ExcludedTotal())
	assert.Equal(t, 0, SourceCounts{}.ExcludedTotal())
}
