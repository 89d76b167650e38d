package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/community-cli/internal/model"
)

func TestValidatorIsOcean(t *testing.T) {
	v := NewCaliforniaValidator()

	tests := []struct {
		name string
		lat  float64
		lng  float64
		want bool
	}{
		{"offshore LA band", 33.6, -122.0, true},
		{"channel islands carve-out", 33.0, -119.0, false},
		{"indio", 33.72, -116.22, false},
		{"san diego coast", 32.72, -117.16, false},
		{"west of san diego band", 32.6, -119.8, true},
		{"south of state box", 32.0, -117.0, true},
		{"east of state box", 36.0, -113.0, true},
		{"hard cutoff", 40.0, -124.2, true},
		{"central band offshore", 36.0, -123.2, true},
		{"monterey", 36.6, -121.9, false},
		{"bay area offshore", 37.5, -123.6, true},
		{"san francisco", 37.77, -122.42, false},
		{"north coast past hard cutoff", 40.8, -124.16, true},
		{"redding", 40.58, -122.39, false},
		{"state box edge", 42.0, -120.0, false},
		{"LA band upper edge uses LA cutoff", 34.5, -121.0, true},
		{"central band upper edge uses central cutoff", 37.0, -123.2, true},
		{"band edge east of both cutoffs", 37.0, -122.4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsOcean(model.Coordinates{Lat: tt.lat, Lng: tt.lng}))
		})
	}
}

func TestValidatorFlag(t *testing.T) {
	v := NewCaliforniaValidator()

	ocean := &model.Stats{Coordinates: &model.Coordinates{Lat: 33.6, Lng: -122.0}, ListingCount: 3}
	assert.True(t, v.Flag(ocean))
	assert.True(t, ocean.IsOcean)
	assert.Equal(t, 3, ocean.ListingCount, "flagging never touches statistics")

	none := &model.Stats{IsOcean: true}
	assert.False(t, v.Flag(none))
	assert.False(t, none.IsOcean)
}
