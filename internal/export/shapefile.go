// Package export writes entity centroids to ESRI shapefiles for review in
// GIS tools.
package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/store"
)

// Point is one entity centroid with the attributes written to the .dbf.
type Point struct {
	Slug         string
	Name         string
	City         string
	County       string
	Region       string
	ListingCount int
	AvgPrice     float64
	IsOcean      bool
	Lat          float64
	Lng          float64
}

// dbf field names are limited to 10 characters.
var fields = []shp.Field{
	shp.StringField("SLUG", 120),
	shp.StringField("NAME", 120),
	shp.StringField("CITY", 60),
	shp.StringField("COUNTY", 60),
	shp.StringField("REGION", 60),
	shp.NumberField("LISTINGS", 10),
	shp.FloatField("AVG_PRICE", 14, 0),
	shp.NumberField("IS_OCEAN", 1),
}

// entityDoc covers the stored fields every collection shares.
type entityDoc struct {
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	City        string             `json:"city"`
	County      string             `json:"county"`
	Region      string             `json:"region"`
	Coordinates *model.Coordinates `json:"coordinates"`
	ListingCnt  int                `json:"listingCount"`
	AvgPrice    float64            `json:"avgPrice"`
	IsOcean     bool               `json:"isOcean"`
}

// Points decodes stored documents into centroid points. Entities without
// coordinates are skipped. oceanOnly keeps ocean-flagged entities only.
func Points(docs []json.RawMessage, coll model.Collection, oceanOnly bool) ([]Point, error) {
	out := make([]Point, 0, len(docs))
	for _, raw := range docs {
		var d entityDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, eris.Wrap(err, "export: decode document")
		}
		if d.Coordinates == nil || (oceanOnly && !d.IsOcean) {
			continue
		}
		p := Point{
			Slug: d.Slug, Name: d.Name, City: d.City, County: d.County, Region: d.Region,
			ListingCount: d.ListingCnt, AvgPrice: d.AvgPrice, IsOcean: d.IsOcean,
			Lat: d.Coordinates.Lat, Lng: d.Coordinates.Lng,
		}
		// Parent documents name themselves rather than their parent.
		switch coll {
		case model.CollectionCities:
			p.City = d.Name
		case model.CollectionCounties:
			p.County = d.Name
		case model.CollectionRegions:
			p.Region = d.Name
		}
		out = append(out, p)
	}
	return out, nil
}

// WriteShapefile writes points as a POINT shapefile at path (.shp, .shx and
// .dbf are created side by side).
func WriteShapefile(path string, points []Point) error {
	if !strings.HasSuffix(strings.ToLower(path), ".shp") {
		path += ".shp"
	}
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := writePoints(w, points); err != nil {
		w.Close()
		return err
	}
	w.Close()

	// go-shp names the attribute table "<base>dbf"; readers expect "<base>.dbf".
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "export: rename attribute table for %s", path)
	}
	return nil
}

func writePoints(w *shp.Writer, points []Point) error {
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set fields")
	}

	for _, p := range points {
		row := int(w.Write(&shp.Point{X: p.Lng, Y: p.Lat}))
		ocean := 0
		if p.IsOcean {
			ocean = 1
		}
		for i, v := range []any{p.Slug, p.Name, p.City, p.County, p.Region, p.ListingCount, p.AvgPrice, ocean} {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "export: write %s attribute %d", p.Slug, i)
			}
		}
	}
	return nil
}

// Centroids exports one stored collection to a shapefile and returns how
// many points were written.
func Centroids(ctx context.Context, st store.Store, coll model.Collection, filter store.Filter, oceanOnly bool, path string) (int, error) {
	docs, err := st.List(ctx, coll, filter)
	if err != nil {
		return 0, eris.Wrapf(err, "export: list %s", coll)
	}
	points, err := Points(docs, coll, oceanOnly)
	if err != nil {
		return 0, err
	}
	if err := WriteShapefile(path, points); err != nil {
		return 0, err
	}
	zap.L().Info("shapefile written",
		zap.String("component", "export"),
		zap.String("collection", string(coll)),
		zap.String("path", path),
		zap.Int("points", len(points)),
	)
	return len(points), nil
}
