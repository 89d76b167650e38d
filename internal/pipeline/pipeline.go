// Package pipeline runs the extract, aggregate, classify, override, enrich,
// rollup and persist stages end to end.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/enrich"
	"github.com/sells-group/community-cli/internal/geo"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/override"
	"github.com/sells-group/community-cli/internal/report"
	"github.com/sells-group/community-cli/internal/rollup"
	"github.com/sells-group/community-cli/internal/source"
	"github.com/sells-group/community-cli/internal/store"
	"github.com/sells-group/community-cli/pkg/spark"
)

// Deps are the collaborators a Pipeline runs against.
type Deps struct {
	Store      store.Store // may be nil for dry runs
	Readers    []source.Reader
	Overrides  []override.Source
	Classifier *geo.Classifier
	Validator  *geo.Validator
	Photos     spark.Client // nil disables external photo lookups
}

// Options tune one run.
type Options struct {
	DryRun       bool
	Enrich       enrich.Config
	Persist      store.PersistOptions
	MaxIncidents int
}

// Output is everything a run produced.
type Output struct {
	Run          *model.Run
	Subdivisions []*model.Subdivision
	Cities       []*model.City
	Counties     []*model.County
	Regions      []*model.Region
}

// Pipeline orchestrates a full rebuild of the community hierarchy.
type Pipeline struct {
	deps  Deps
	now   func() time.Time
	newID func() string
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		deps:  deps,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// runState carries one run's working set between stages.
type runState struct {
	run     *model.Run
	rep     *model.RunReport
	rec     *report.Recorder
	extract *source.Extraction
	members map[string][]model.RawListing
	subs    []*model.Subdivision
	parents *rollup.Result
	log     *zap.Logger
}

// Run executes every stage. Recoverable problems become incidents in the
// run report; the returned error is reserved for fatal conditions: the
// store is unreachable, a source cannot be read, or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Output, error) {
	st := &runState{
		run: &model.Run{ID: p.newID(), Status: model.RunStatusRunning, DryRun: opts.DryRun, StartedAt: p.now()},
		rep: report.New(),
		rec: report.NewRecorder(opts.MaxIncidents),
	}
	st.run.Report = st.rep
	st.log = zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", st.run.ID))
	st.log.Info("run started", zap.Bool("dry_run", opts.DryRun), zap.Int("sources", len(p.deps.Readers)))

	if p.deps.Store == nil && !opts.DryRun {
		return nil, eris.New("pipeline: a store is required unless dry-run")
	}
	if p.deps.Store != nil {
		if err := p.deps.Store.Ping(ctx); err != nil {
			return nil, eris.Wrap(err, "pipeline: datastore unavailable")
		}
		if !opts.DryRun {
			p.saveRun(ctx, st)
		}
	}

	stages := []struct {
		name string
		fn   func(context.Context, *runState, Options) error
	}{
		{"extract", p.extractStage},
		{"aggregate", p.aggregateStage},
		{"classify", p.classifyStage},
		{"overrides", p.overrideStage},
		{"enrich", p.enrichStage},
		{"rollup", p.rollupStage},
		{"persist", p.persistStage},
	}
	for _, s := range stages {
		if err := p.track(ctx, st, opts, s.name, s.fn); err != nil {
			return nil, p.fail(ctx, st, opts, eris.Wrapf(err, "pipeline: %s", s.name))
		}
	}

	finished := p.now()
	st.run.Status = model.RunStatusComplete
	st.run.FinishedAt = &finished
	st.rec.Fill(st.rep)
	if !opts.DryRun {
		p.saveRun(ctx, st)
	}

	st.log.Info("run complete",
		zap.Int("subdivisions", len(st.subs)),
		zap.Int("cities", len(st.parents.Cities)),
		zap.Int("counties", len(st.parents.Counties)),
		zap.Int("regions", len(st.parents.Regions)),
		zap.Int("incidents", len(st.rep.Incidents)+st.rep.Dropped),
	)
	return &Output{
		Run:          st.run,
		Subdivisions: st.subs,
		Cities:       st.parents.Cities,
		Counties:     st.parents.Counties,
		Regions:      st.parents.Regions,
	}, nil
}

func (p *Pipeline) track(ctx context.Context, st *runState, opts Options, name string, fn func(context.Context, *runState, Options) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn(ctx, st, opts)
	phase := model.Phase{Name: name, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		phase.Error = err.Error()
		st.log.Error("phase failed", zap.String("phase", name), zap.Int64("duration_ms", phase.DurationMs), zap.Error(err))
	} else {
		st.log.Info("phase complete", zap.String("phase", name), zap.Int64("duration_ms", phase.DurationMs))
	}
	st.rep.Phases = append(st.rep.Phases, phase)
	return err
}

// fail records a fatal error on the run. Nothing has been written at this
// point unless persist itself failed.
func (p *Pipeline) fail(ctx context.Context, st *runState, opts Options, err error) error {
	finished := p.now()
	st.run.Status = model.RunStatusFailed
	st.run.FinishedAt = &finished
	st.run.Error = err.Error()
	st.rec.Fill(st.rep)
	if !opts.DryRun && p.deps.Store != nil {
		// The run context may be the reason we failed.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		p.saveRun(saveCtx, st)
	}
	return err
}

func (p *Pipeline) saveRun(ctx context.Context, st *runState) {
	if err := p.deps.Store.SaveRun(ctx, st.run); err != nil {
		st.log.Warn("save run failed", zap.Error(err))
	}
}
