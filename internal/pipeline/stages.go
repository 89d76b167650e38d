package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/aggregate"
	"github.com/sells-group/community-cli/internal/enrich"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/normalize"
	"github.com/sells-group/community-cli/internal/override"
	"github.com/sells-group/community-cli/internal/rollup"
	"github.com/sells-group/community-cli/internal/source"
	"github.com/sells-group/community-cli/internal/store"
)

func (p *Pipeline) extractStage(ctx context.Context, st *runState, _ Options) error {
	ex, err := source.Extract(ctx, p.deps.Readers, p.deps.Classifier.CanonicalCity)
	if err != nil {
		return err
	}
	st.extract = ex
	st.rep.Sources = ex.Sources
	for _, d := range ex.Dropped {
		st.rec.Record(model.Incident{
			Kind:      model.IncidentMissingField,
			Stage:     "extract",
			Source:    d.Source,
			EntityKey: d.ListingKey,
			Message:   d.Reason,
		})
	}
	return nil
}

func (p *Pipeline) aggregateStage(ctx context.Context, st *runState, _ Options) error {
	prior, err := p.priorSlugs(ctx)
	if err != nil {
		return err
	}
	res := aggregate.Build(st.extract.Records, prior)
	st.subs = res.Subdivisions
	st.members = res.Members
	for _, c := range res.Collisions {
		st.rec.Record(model.Incident{
			Kind:      model.IncidentSlugDisambiguate,
			Stage:     "aggregate",
			EntityKey: c.Slug,
			Message:   fmt.Sprintf("%q in %s shares slug %q", c.Name, c.City, c.Base),
		})
	}
	return nil
}

// priorSlugs maps each stored subdivision's identity to its slug so that a
// newcomer sorting ahead of it cannot take the slug over.
func (p *Pipeline) priorSlugs(ctx context.Context) (map[string]string, error) {
	if p.deps.Store == nil {
		return nil, nil
	}
	docs, err := p.deps.Store.List(ctx, model.CollectionSubdivisions, store.Filter{})
	if err != nil {
		return nil, eris.Wrap(err, "read stored slugs")
	}
	prior := make(map[string]string, len(docs))
	for _, raw := range docs {
		var d struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
			City string `json:"city"`
		}
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, eris.Wrap(err, "decode stored subdivision")
		}
		prior[normalize.Identity(d.Name, d.City)] = d.Slug
	}
	return prior, nil
}

func (p *Pipeline) classifyStage(_ context.Context, st *runState, _ Options) error {
	for _, sub := range st.subs {
		cls := p.deps.Classifier.Classify(sub.City)
		sub.County, sub.Region = cls.County, cls.Region
		if !cls.Known {
			st.rep.Unclassified++
			st.rec.Record(model.Incident{
				Kind:      model.IncidentUnclassifiable,
				Stage:     "classify",
				EntityKey: sub.Slug,
				Message:   fmt.Sprintf("city %q is not in the county tables", sub.City),
			})
		}
		p.deps.Validator.Flag(&sub.Stats)
	}
	return nil
}

func (p *Pipeline) overrideStage(ctx context.Context, st *runState, _ Options) error {
	var retained map[string]model.ManualContent
	if p.deps.Store != nil {
		var err error
		retained, err = p.deps.Store.ManualContent(ctx)
		if err != nil {
			return err
		}
	}

	set := override.Load(ctx, p.deps.Overrides)
	for _, f := range set.Failures {
		st.rec.Record(model.Incident{
			Kind:    model.IncidentOverrideParse,
			Stage:   "overrides",
			Source:  f.Source,
			Message: f.Err.Error(),
		})
	}

	res := override.NewMerger(retained, set).Apply(st.subs)
	// Manual coordinates may have moved a centroid.
	for _, sub := range st.subs {
		p.deps.Validator.Flag(&sub.Stats)
	}
	st.rep.Overrides = set.CountsWith(res)
	st.log.Info("overrides merged",
		zap.Int("retained", len(retained)),
		zap.Int("records", set.Len()),
		zap.Int("matched", res.Matched),
		zap.Int("coordinates_filled", res.CoordinatesFilled),
		zap.Int("placeholder_photos", res.PlaceholderSkipped),
	)
	return nil
}

func (p *Pipeline) enrichStage(ctx context.Context, st *runState, opts Options) error {
	eng := enrich.New(opts.Enrich, p.deps.Photos, st.rec)
	st.rep.Enrichment = eng.Enrich(ctx, st.subs, st.members)
	return ctx.Err()
}

func (p *Pipeline) rollupStage(_ context.Context, st *runState, _ Options) error {
	st.parents = rollup.NewBuilder(p.deps.Classifier, p.deps.Validator).Build(st.subs)

	now := p.now()
	for _, s := range st.subs {
		s.LastUpdated = now
	}
	for _, c := range st.parents.Cities {
		c.LastUpdated = now
	}
	for _, c := range st.parents.Counties {
		c.LastUpdated = now
	}
	for _, r := range st.parents.Regions {
		r.LastUpdated = now
	}

	st.rep.Entities[model.CollectionSubdivisions] = len(st.subs)
	st.rep.Entities[model.CollectionCities] = len(st.parents.Cities)
	st.rep.Entities[model.CollectionCounties] = len(st.parents.Counties)
	st.rep.Entities[model.CollectionRegions] = len(st.parents.Regions)
	for coll, entities := range st.entities() {
		n := 0
		for _, e := range entities {
			if oceanOf(e) {
				n++
			}
		}
		st.rep.Ocean[coll] = n
	}
	return nil
}

func (p *Pipeline) persistStage(ctx context.Context, st *runState, opts Options) error {
	if opts.DryRun {
		st.log.Info("dry run: skipping writes")
		return nil
	}

	entities := st.entities()
	for _, coll := range model.Collections {
		docs := make([]store.Document, 0, len(entities[coll]))
		for _, e := range entities[coll] {
			doc, err := store.NewDocument(e)
			if err != nil {
				st.rec.Record(model.Incident{Kind: model.IncidentWriteFailed, Stage: "persist", Message: err.Error()})
				continue
			}
			docs = append(docs, doc)
		}

		res := store.Persist(ctx, p.deps.Store, coll, docs, opts.Persist)
		st.rep.Writes[coll] = res.Counts
		for _, prob := range res.Problems {
			st.rec.Record(model.Incident{
				Kind:      prob.Kind,
				Stage:     "persist",
				Source:    string(coll),
				EntityKey: prob.Slug,
				Message:   prob.Reason,
			})
		}
		for _, err := range res.BatchErrors {
			st.rec.Record(model.Incident{Kind: model.IncidentWriteFailed, Stage: "persist", Source: string(coll), Message: err.Error()})
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// entities returns every entity by collection as the values NewDocument
// accepts.
func (st *runState) entities() map[model.Collection][]any {
	out := make(map[model.Collection][]any, len(model.Collections))
	for _, s := range st.subs {
		out[model.CollectionSubdivisions] = append(out[model.CollectionSubdivisions], s)
	}
	if st.parents == nil {
		return out
	}
	for _, c := range st.parents.Cities {
		out[model.CollectionCities] = append(out[model.CollectionCities], c)
	}
	for _, c := range st.parents.Counties {
		out[model.CollectionCounties] = append(out[model.CollectionCounties], c)
	}
	for _, r := range st.parents.Regions {
		out[model.CollectionRegions] = append(out[model.CollectionRegions], r)
	}
	return out
}

func oceanOf(e any) bool {
	switch v := e.(type) {
	case *model.Subdivision:
		return v.IsOcean
	case *model.City:
		return v.IsOcean
	case *model.County:
		return v.IsOcean
	case *model.Region:
		return v.IsOcean
	}
	return false
}
