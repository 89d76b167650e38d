package geo

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/community-cli/internal/model"
)

// latitudeBand flags points west of cutoff within [minLat, maxLat]. Bands
// share their edges, so a point on an edge is checked against both cutoffs.
type latitudeBand struct {
	minLat, maxLat float64
	cutoff         float64
}

func (b latitudeBand) covers(lat float64) bool {
	return lat >= b.minLat && lat <= b.maxLat
}

// Validator flags centroids that fall in the Pacific. The check is a
// bounding-box heuristic tuned for California coastline, not a coastline
// polygon test.
type Validator struct {
	state      *geom.Bounds
	islands    *geom.Bounds
	hardCutoff float64
	bands      []latitudeBand
}

// NewCaliforniaValidator returns the validator for California markets.
func NewCaliforniaValidator() *Validator {
	return &Validator{
		// X is longitude, Y is latitude.
		state:      geom.NewBounds(geom.XY).Set(-124.5, 32.5, -114.1, 42.0),
		islands:    geom.NewBounds(geom.XY).Set(-120.5, 32.9, -118.3, 34.1),
		hardCutoff: -124.0,
		bands: []latitudeBand{
			{minLat: 32.5, maxLat: 33.5, cutoff: -119.5}, // San Diego
			{minLat: 33.5, maxLat: 34.5, cutoff: -120.0}, // Los Angeles
			{minLat: 34.5, maxLat: 37.0, cutoff: -123.0}, // Central coast
			{minLat: 37.0, maxLat: 38.5, cutoff: -123.5}, // Bay Area
			{minLat: 38.5, maxLat: 42.0, cutoff: -124.5},
		},
	}
}

// IsOcean reports whether c lies outside the state box or west of the
// coastline for its latitude. Channel Islands coordinates are accepted.
func (v *Validator) IsOcean(c model.Coordinates) bool {
	pt := geom.Coord{c.Lng, c.Lat}
	if !v.state.OverlapsPoint(geom.XY, pt) {
		return true
	}
	if v.islands.OverlapsPoint(geom.XY, pt) {
		return false
	}
	if c.Lng < v.hardCutoff {
		return true
	}
	for _, b := range v.bands {
		if b.covers(c.Lat) && c.Lng < b.cutoff {
			return true
		}
	}
	return false
}

// Flag sets stats.IsOcean from the centroid. Stats without a centroid are
// left unflagged. It returns the flag.
func (v *Validator) Flag(stats *model.Stats) bool {
	stats.IsOcean = stats.Coordinates != nil && v.IsOcean(*stats.Coordinates)
	return stats.IsOcean
}
