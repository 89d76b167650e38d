package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/community-cli/internal/model"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1.25M", FormatPrice(1_250_000))
	assert.Equal(t, "$1.00M", FormatPrice(1_000_000))
	assert.Equal(t, "$650k", FormatPrice(649_800))
	assert.Equal(t, "$0k", FormatPrice(0))
}

func TestPropertyTypePhrase(t *testing.T) {
	tests := []struct {
		pt   model.PropertyTypes
		want string
	}{
		{model.PropertyTypes{}, "a residential community"},
		{model.PropertyTypes{Residential: 9, Lease: 1}, "a residential community"},
		{model.PropertyTypes{Residential: 3, Lease: 7}, "a rental community"},
		{model.PropertyTypes{Residential: 4, MultiFamily: 6}, "a multi-family community"},
		{model.PropertyTypes{Residential: 5, Lease: 5}, "a mixed-use community"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PropertyTypePhrase(tt.pt), "%+v", tt.pt)
	}
}

func TestAmenityPhrases(t *testing.T) {
	sub := &model.Subdivision{
		SeniorCommunity:   true,
		CommunityFeatures: "Golf, Pool, Tennis Courts, Pickleball, Fitness Center, Clubhouse",
	}
	assert.Equal(t, []string{
		"a 55+ active adult community",
		"championship golf courses",
		"resort-style pools",
		"tennis courts",
		"pickleball courts",
	}, AmenityPhrases(sub))

	assert.Empty(t, AmenityPhrases(&model.Subdivision{}))
}

func TestDescribe_NonHOA(t *testing.T) {
	sub := &model.Subdivision{
		Name:   "Non-HOA Indio",
		City:   "Indio",
		Region: "Coachella Valley",
		Stats:  model.Stats{ListingCount: 1, AvgPrice: 425_000},
	}
	got := Describe(sub)
	assert.Contains(t, got, "Non-HOA Indio encompasses the diverse properties in Indio, Coachella Valley, that are not part of a homeowners association.")
	assert.Contains(t, got, "With 1 active listing averaging $425k,")
}

func TestDescribe_Community(t *testing.T) {
	sub := &model.Subdivision{
		Name:              "PGA West",
		City:              "La Quinta",
		Region:            "Coachella Valley",
		CommunityFeatures: "Golf, Pool",
		HOA:               &model.HOA{AvgMonthlyFee: 1249.6, Dual: true},
		Stats: model.Stats{
			ListingCount:  42,
			AvgPrice:      1_180_000,
			PropertyTypes: model.PropertyTypes{Residential: 40, Lease: 2},
		},
	}
	got := Describe(sub)
	assert.Contains(t, got, "PGA West is a residential community in La Quinta, Coachella Valley,")
	assert.Contains(t, got, "This exclusive community features championship golf courses, resort-style pools,")
	assert.Contains(t, got, "With 42 active listings averaging $1.18M,")
	assert.Contains(t, got, "dual HOA associations with average monthly fees of approximately $1,250,")

	sub.HOA = &model.HOA{AvgMonthlyFee: 310}
	sub.CommunityFeatures = ""
	got = Describe(sub)
	assert.NotContains(t, got, "This exclusive community features")
	assert.Contains(t, got, "an HOA with average monthly fees of approximately $310,")

	sub.HOA = nil
	assert.NotContains(t, Describe(sub), "HOA")
}

func TestFeatures(t *testing.T) {
	sub := &model.Subdivision{
		Region:            "Coachella Valley",
		SeniorCommunity:   true,
		CommunityFeatures: "Golf, Gym",
		HOA:               &model.HOA{AvgMonthlyFee: 1500},
		Stats:             model.Stats{AvgPrice: 1_500_000},
	}
	assert.Equal(t, []string{"55+ community", "Golf course", "Fitness center", "HOA: $1,500/mo", "Luxury homes"},
		Features(sub, 1_000_000, 400_000))

	entry := &model.Subdivision{Region: "Inland Empire", Stats: model.Stats{AvgPrice: 320_000}}
	assert.Equal(t, []string{"Entry-level pricing", "Inland Empire living"}, Features(entry, 1_000_000, 400_000))

	assert.Empty(t, Features(&model.Subdivision{Region: model.UnclassifiedRegion, Stats: model.Stats{AvgPrice: 600_000}}, 1_000_000, 400_000))
}

func TestKeywords(t *testing.T) {
	sub := &model.Subdivision{Name: "Trilogy", City: "La Quinta", Region: "Coachella Valley"}
	assert.Equal(t, []string{
		"Trilogy homes for sale",
		"Living in Trilogy La Quinta",
		"Trilogy real estate",
		"La Quinta neighborhoods",
		"Coachella Valley communities",
	}, Keywords(sub))
}
