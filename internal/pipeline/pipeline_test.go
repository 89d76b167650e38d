package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/enrich"
	"github.com/sells-group/community-cli/internal/geo"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/override"
	"github.com/sells-group/community-cli/internal/resilience"
	"github.com/sells-group/community-cli/internal/source"
	"github.com/sells-group/community-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type staticReader struct {
	name string
	rows []model.RawListing
	err  error
}

func (r staticReader) Source() string { return r.name }

func (r staticReader) Read(context.Context) ([]model.RawListing, error) {
	return r.rows, r.err
}

type staticOverrides struct {
	name string
	recs []model.ManualOverride
}

func (s staticOverrides) Name() string { return s.name }

func (s staticOverrides) Load(context.Context) ([]model.ManualOverride, error) {
	return s.recs, nil
}

func ptr(f float64) *float64 { return &f }

func row(key, sub, city string, price float64, ptype string) model.RawListing {
	return model.RawListing{
		ListingKey: key, Status: "Active", SubdivisionName: sub, City: city, Price: price,
		PropertyType: ptype, Latitude: ptr(33.76), Longitude: ptr(-116.24),
	}
}

// fixture returns two MLS feeds sharing Sun City Shadow Hills.
func fixture() []source.Reader {
	var a, b []model.RawListing
	for i := 0; i < 10; i++ {
		a = append(a, row(fmt.Sprintf("A%02d", i), "Sun City Shadow Hills", "INDIO", 350_000+float64(i)*20_000, model.PropertyTypeResidential))
	}
	for i := 0; i < 7; i++ {
		b = append(b, row(fmt.Sprintf("B%02d", i), "Sun City Shadow Hills", "Indio", 700_000-float64(i)*20_000, model.PropertyTypeLease))
	}
	a = append(a,
		row("A90", "N/A", "Indio", 410_000, model.PropertyTypeResidential),
		row("A91", "Lost City", "Atlantis", 200_000, model.PropertyTypeResidential),
		model.RawListing{ListingKey: "A92", Status: "Closed", City: "Indio", Price: 1},
		model.RawListing{ListingKey: "A93", Status: "Active", SubdivisionName: "Terra Lago", City: "Indio"},
	)
	offshore := row("B90", "Seaside Cove", "Malibu", 2_000_000, model.PropertyTypeResidential)
	offshore.Latitude, offshore.Longitude = ptr(33.6), ptr(-122.0)
	b = append(b, offshore)

	return []source.Reader{staticReader{name: "A", rows: a}, staticReader{name: "B", rows: b}}
}

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "community.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newPipeline(t *testing.T, st store.Store, readers []source.Reader, overrides ...override.Source) *Pipeline {
	t.Helper()
	tables, err := geo.DefaultTables()
	require.NoError(t, err)
	p := New(Deps{
		Store:      st,
		Readers:    readers,
		Overrides:  overrides,
		Classifier: geo.NewClassifier(tables),
		Validator:  geo.NewCaliforniaValidator(),
	})
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	p.newID = func() string { n++; return fmt.Sprintf("run-%d", n) }
	return p
}

func opts() Options {
	return Options{
		Enrich:  enrich.Config{Concurrency: 1, Retry: resilience.RetryConfig{MaxAttempts: 1}},
		Persist: store.PersistOptions{BatchSize: 2, Concurrency: 2},
	}
}

func findSub(t *testing.T, subs []*model.Subdivision, name string) *model.Subdivision {
	t.Helper()
	for _, s := range subs {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("subdivision %q not found", name)
	return nil
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	curated := staticOverrides{name: "curated", recs: []model.ManualOverride{{
		Name: "Sun City Shadow Hills", Location: "Indio, CA", Description: "Del Webb's desert community.",
	}}}

	out, err := newPipeline(t, st, fixture(), curated).Run(ctx, opts())
	require.NoError(t, err)

	sun := findSub(t, out.Subdivisions, "Sun City Shadow Hills")
	assert.Equal(t, "sun-city-shadow-hills-indio", sun.Slug)
	assert.Equal(t, 17, sun.ListingCount)
	assert.Equal(t, model.PriceRange{Min: 350_000, Max: 700_000}, sun.PriceRange)
	assert.Equal(t, []string{"A", "B"}, sun.MLSSources)
	assert.Equal(t, "Riverside", sun.County)
	assert.Equal(t, "Coachella Valley", sun.Region)
	assert.Equal(t, "Del Webb's desert community.", sun.Description)
	assert.Equal(t, model.ContentManual, sun.DescriptionSource)
	assert.True(t, sun.HasManualData)

	nonHOA := findSub(t, out.Subdivisions, "Non-HOA Indio")
	assert.Equal(t, model.ContentTemplate, nonHOA.DescriptionSource)
	assert.True(t, findSub(t, out.Subdivisions, "Seaside Cove").IsOcean)

	rep := out.Run.Report
	assert.Equal(t, model.RunStatusComplete, out.Run.Status)
	require.Len(t, rep.Sources, 2)
	assert.Equal(t, 14, rep.Sources[0].Read)
	assert.Equal(t, 12, rep.Sources[0].Eligible)
	assert.Equal(t, 1, rep.Sources[0].Excluded[source.ReasonInactive])
	assert.Equal(t, 1, rep.Sources[0].Excluded[source.ReasonMissingPrice])
	assert.Equal(t, 1, rep.Unclassified)
	assert.Equal(t, 4, rep.Entities[model.CollectionSubdivisions])
	assert.Equal(t, 1, rep.Ocean[model.CollectionSubdivisions])
	assert.Equal(t, 4, rep.Writes[model.CollectionSubdivisions].Created)
	assert.Equal(t, 1, rep.Overrides[0].Applied)
	assert.Len(t, rep.Phases, 7)

	kinds := map[model.IncidentKind]int{}
	for _, inc := range rep.Incidents {
		kinds[inc.Kind]++
	}
	assert.Equal(t, 1, kinds[model.IncidentMissingField])
	assert.Equal(t, 1, kinds[model.IncidentUnclassifiable])

	saved, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, saved.Status)

	n, err := st.Count(ctx, model.CollectionRegions)
	require.NoError(t, err)
	assert.Equal(t, len(out.Regions), n)
}

func TestRun_IdempotentRerun(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)

	p := newPipeline(t, st, fixture())
	_, err := p.Run(ctx, opts())
	require.NoError(t, err)
	first, err := st.Get(ctx, model.CollectionSubdivisions, "sun-city-shadow-hills-indio")
	require.NoError(t, err)

	p.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	out, err := p.Run(ctx, opts())
	require.NoError(t, err)

	for _, coll := range model.Collections {
		w := out.Run.Report.Writes[coll]
		assert.Zero(t, w.Created, coll)
		assert.Zero(t, w.Updated, coll)
		assert.Equal(t, w.Total, w.Unchanged, coll)
	}

	second, err := st.Get(ctx, model.CollectionSubdivisions, "sun-city-shadow-hills-indio")
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	var doc model.Subdivision
	require.NoError(t, json.Unmarshal(second, &doc))
	assert.Equal(t, 1, doc.LastUpdated.Day())
}

func TestRun_StoredSlugsSurviveNewcomers(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)

	first := []source.Reader{staticReader{name: "A", rows: []model.RawListing{
		row("A01", "Sun-Ridge", "Palm Desert", 500_000, model.PropertyTypeResidential),
	}}}
	_, err := newPipeline(t, st, first).Run(ctx, opts())
	require.NoError(t, err)

	// "Sun Ridge" slugifies the same and sorts ahead of "Sun-Ridge".
	second := []source.Reader{staticReader{name: "A", rows: []model.RawListing{
		row("A01", "Sun-Ridge", "Palm Desert", 500_000, model.PropertyTypeResidential),
		row("A02", "Sun Ridge", "Palm Desert", 600_000, model.PropertyTypeResidential),
	}}}
	out, err := newPipeline(t, st, second).Run(ctx, opts())
	require.NoError(t, err)

	assert.Equal(t, "sun-ridge-palm-desert", findSub(t, out.Subdivisions, "Sun-Ridge").Slug)
	assert.Regexp(t, `^sun-ridge-palm-desert-[0-9a-f]{6}$`, findSub(t, out.Subdivisions, "Sun Ridge").Slug)
	for _, inc := range out.Run.Report.Incidents {
		assert.NotEqual(t, model.IncidentDuplicateKey, inc.Kind, inc.Message)
	}
	w := out.Run.Report.Writes[model.CollectionSubdivisions]
	assert.Equal(t, 1, w.Created)
	assert.Equal(t, 1, w.Unchanged)

	n, err := st.Count(ctx, model.CollectionSubdivisions)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_ManualContentRetainedAcrossRuns(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	curated := staticOverrides{name: "curated", recs: []model.ManualOverride{{
		Name: "Sun City Shadow Hills", City: "Indio", Description: "Hand-written copy.",
	}}}

	_, err := newPipeline(t, st, fixture(), curated).Run(ctx, opts())
	require.NoError(t, err)

	// The override file is gone on the second run; stored manual copy stays.
	out, err := newPipeline(t, st, fixture()).Run(ctx, opts())
	require.NoError(t, err)
	sun := findSub(t, out.Subdivisions, "Sun City Shadow Hills")
	assert.Equal(t, "Hand-written copy.", sun.Description)
	assert.Equal(t, model.ContentManual, sun.DescriptionSource)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	out, err := newPipeline(t, nil, fixture()).Run(context.Background(), Options{
		DryRun: true,
		Enrich: enrich.Config{Concurrency: 1},
	})
	require.NoError(t, err)
	assert.True(t, out.Run.DryRun)
	assert.Empty(t, out.Run.Report.Writes)
	assert.NotEmpty(t, out.Cities)
}

func TestRun_RequiresStoreUnlessDryRun(t *testing.T) {
	_, err := newPipeline(t, nil, fixture()).Run(context.Background(), opts())
	require.Error(t, err)
}

type downStore struct {
	store.Store
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestRun_DatastoreUnavailableIsFatal(t *testing.T) {
	_, err := newPipeline(t, downStore{}, fixture()).Run(context.Background(), opts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datastore unavailable")
}

func TestRun_SourceFailureFailsRun(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	readers := append(fixture(), staticReader{name: "C", err: errors.New("relation \"listings\" does not exist")})

	_, err := newPipeline(t, st, readers).Run(ctx, opts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: extract")

	saved, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.Error)

	n, err := st.Count(ctx, model.CollectionSubdivisions)
	require.NoError(t, err)
	assert.Zero(t, n)
}
