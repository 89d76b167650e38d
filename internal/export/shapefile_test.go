package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestPoints(t *testing.T) {
	docs := []json.RawMessage{
		raw(t, &model.City{Name: "Malibu", Slug: "malibu", County: "Los Angeles",
			Stats: model.Stats{ListingCount: 3, IsOcean: true, Coordinates: &model.Coordinates{Lat: 33.6, Lng: -122.0}}}),
		raw(t, &model.City{Name: "Indio", Slug: "indio", County: "Riverside",
			Stats: model.Stats{ListingCount: 17, Coordinates: &model.Coordinates{Lat: 33.76, Lng: -116.24}}}),
		raw(t, &model.City{Name: "Atlantis", Slug: "atlantis"}),
	}

	all, err := Points(docs, model.CollectionCities, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Malibu", all[0].City)

	ocean, err := Points(docs, model.CollectionCities, true)
	require.NoError(t, err)
	require.Len(t, ocean, 1)
	assert.Equal(t, "malibu", ocean[0].Slug)

	_, err = Points([]json.RawMessage{json.RawMessage(`{`)}, model.CollectionCities, false)
	require.Error(t, err)
}

func TestWriteShapefile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocean")
	require.NoError(t, WriteShapefile(path, []Point{
		{Slug: "seaside-cove-malibu", Name: "Seaside Cove", City: "Malibu", ListingCount: 1, AvgPrice: 2_000_000, IsOcean: true, Lat: 33.6, Lng: -122.0},
		{Slug: "pga-west-la-quinta", Name: "PGA West", City: "La Quinta", ListingCount: 42, Lat: 33.65, Lng: -116.27},
	}))

	_, err := os.Stat(path + ".dbf")
	require.NoError(t, err, "attribute table should sit next to the .shp")
	_, err = os.Stat(path + "dbf")
	assert.True(t, os.IsNotExist(err))

	r, err := shp.Open(path + ".shp")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	require.Len(t, r.Fields(), len(fields))
	var slugs []string
	var first *shp.Point
	for r.Next() {
		n, s := r.Shape()
		slugs = append(slugs, strings.TrimSpace(r.ReadAttribute(n, 0)))
		if n == 0 {
			first = s.(*shp.Point)
			assert.Equal(t, "1", strings.TrimSpace(r.ReadAttribute(n, 7)))
		}
	}
	assert.Equal(t, []string{"seaside-cove-malibu", "pga-west-la-quinta"}, slugs)
	require.NotNil(t, first)
	assert.InDelta(t, -122.0, first.X, 1e-9)
	assert.InDelta(t, 33.6, first.Y, 1e-9)
}

func TestCentroids_FromStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	sub := &model.Subdivision{Name: "Seaside Cove", Slug: "seaside-cove-malibu", NormalizedName: "seaside cove", City: "Malibu",
		Stats: model.Stats{ListingCount: 1, IsOcean: true, Coordinates: &model.Coordinates{Lat: 33.6, Lng: -122.0}}}
	doc, err := store.NewDocument(sub)
	require.NoError(t, err)
	_, err = st.UpsertBatch(ctx, model.CollectionSubdivisions, []store.Document{doc})
	require.NoError(t, err)

	n, err := Centroids(ctx, st, model.CollectionSubdivisions, store.Filter{}, true, filepath.Join(t.TempDir(), "subs.shp"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
