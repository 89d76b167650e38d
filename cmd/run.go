package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/enrich"
	"github.com/sells-group/community-cli/internal/fetcher"
	"github.com/sells-group/community-cli/internal/geo"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/override"
	"github.com/sells-group/community-cli/internal/pipeline"
	"github.com/sells-group/community-cli/internal/report"
	"github.com/sells-group/community-cli/internal/resilience"
	"github.com/sells-group/community-cli/internal/source"
	"github.com/sells-group/community-cli/internal/store"
	"github.com/sells-group/community-cli/pkg/notion"
	"github.com/sells-group/community-cli/pkg/spark"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the community hierarchy from every configured source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}
		ctx := cmd.Context()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		output, _ := cmd.Flags().GetString("output")
		skipExternal, _ := cmd.Flags().GetBool("skip-external")
		maxIncidents, _ := cmd.Flags().GetInt("max-incidents")
		if skipExternal {
			cfg.Enrich.SkipExternal = true
		}

		st, err := openMigrated(ctx)
		switch {
		case err == nil:
			defer st.Close() //nolint:errcheck
		case dryRun:
			zap.L().Warn("store unavailable, continuing dry run without retained content", zap.Error(err))
			st = nil
		default:
			return err
		}

		deps, closeSources, err := buildDeps(ctx, st)
		if err != nil {
			return err
		}
		defer closeSources()

		out, err := pipeline.New(deps).Run(ctx, pipeline.Options{
			DryRun:       dryRun,
			Enrich:       enrich.FromConfig(cfg.Enrich),
			Persist:      store.PersistOptions{BatchSize: cfg.Persist.BatchSize, Concurrency: cfg.Persist.Concurrency},
			MaxIncidents: maxIncidents,
		})
		if err != nil {
			return eris.Wrap(err, "run")
		}

		if output != "" {
			if err := writeOutput(output, out); err != nil {
				return err
			}
		}
		formatReport(os.Stdout, out.Run)
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "run every stage but skip writes")
	runCmd.Flags().String("output", "", "write the built entities and report as JSON to this file")
	runCmd.Flags().Bool("skip-external", false, "skip external photo lookups")
	runCmd.Flags().Int("max-incidents", report.DefaultMaxIncidents, "incidents kept in the run report")
	rootCmd.AddCommand(runCmd)
}

func buildDeps(ctx context.Context, st store.Store) (pipeline.Deps, func(), error) {
	tables, err := geo.DefaultTables()
	if cfg.Geo.TablesPath != "" {
		tables, err = geo.LoadTablesFile(cfg.Geo.TablesPath)
	}
	if err != nil {
		return pipeline.Deps{}, nil, err
	}

	f := fetcher.NewRouter(
		fetcher.HTTPOptions{UserAgent: "community-cli", Timeout: 2 * time.Minute, Retry: resilience.DefaultRetryConfig(), PerHostRate: 2},
		fetcher.FTPOptions{Timeout: 2 * time.Minute},
	)

	sdeps := sourceDeps(st)
	sdeps.Fetcher = f
	readers, closeSources, err := source.Open(ctx, cfg.Sources, sdeps)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}

	var nc notion.Client
	if cfg.Notion.Token != "" {
		nc = notion.NewClient(cfg.Notion.Token)
	}
	overrides, err := override.Open(cfg.Overrides, f, nc)
	if err != nil {
		closeSources()
		return pipeline.Deps{}, nil, err
	}

	var photos spark.Client
	if cfg.Spark.Key != "" {
		photos = spark.NewClient(cfg.Spark.Key,
			spark.WithBaseURL(cfg.Spark.BaseURL),
			spark.WithUserAgent(cfg.Spark.UserAgent),
			spark.WithRateLimit(cfg.Spark.RateLimit),
		)
	}

	return pipeline.Deps{
		Store:      st,
		Readers:    readers,
		Overrides:  overrides,
		Classifier: geo.NewClassifier(tables),
		Validator:  geo.NewCaliforniaValidator(),
		Photos:     photos,
	}, closeSources, nil
}

// runOutput is the JSON written by --output for review before publishing.
type runOutput struct {
	Run          *model.Run           `json:"run"`
	Subdivisions []*model.Subdivision `json:"subdivisions"`
	Cities       []*model.City        `json:"cities"`
	Counties     []*model.County      `json:"counties"`
	Regions      []*model.Region      `json:"regions"`
}

func writeOutput(path string, out *pipeline.Output) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "run: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runOutput{
		Run:          out.Run,
		Subdivisions: out.Subdivisions,
		Cities:       out.Cities,
		Counties:     out.Counties,
		Regions:      out.Regions,
	}); err != nil {
		return eris.Wrap(err, "run: encode output")
	}
	return nil
}

// formatReport writes the operator summary of a run to w.
func formatReport(out io.Writer, run *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", run.Status)
	if run.DryRun {
		_, _ = fmt.Fprintln(w, "Mode:\tdry run")
	}
	if run.FinishedAt != nil {
		_, _ = fmt.Fprintf(w, "Duration:\t%s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	rep := run.Report
	if rep == nil {
		_ = w.Flush()
		return
	}

	_, _ = fmt.Fprintln(w, "\nSOURCE\tREAD\tELIGIBLE\tEXCLUDED")
	for _, s := range rep.Sources {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Name, s.Read, s.Eligible, s.ExcludedTotal())
	}

	if len(rep.Overrides) > 0 {
		_, _ = fmt.Fprintln(w, "\nOVERRIDES\tLOADED\tAPPLIED\tERROR")
		for _, o := range rep.Overrides {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", o.Name, o.Loaded, o.Applied, o.Error)
		}
	}

	_, _ = fmt.Fprintln(w, "\nCOLLECTION\tENTITIES\tOCEAN\tCREATED\tUPDATED\tUNCHANGED\tSKIPPED\tFAILED")
	for _, coll := range model.Collections {
		wc := rep.Writes[coll]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			coll, rep.Entities[coll], rep.Ocean[coll], wc.Created, wc.Updated, wc.Unchanged, wc.Skipped, wc.Failed)
	}

	_, _ = fmt.Fprintf(w, "\nUnclassified:\t%d\n", rep.Unclassified)
	_, _ = fmt.Fprintf(w, "Descriptions:\t%s\n", tierSummary(rep.Enrichment.Description))
	_, _ = fmt.Fprintf(w, "Photos:\t%s\n", tierSummary(rep.Enrichment.Photo))
	if rep.Enrichment.ExternalAttempts > 0 {
		_, _ = fmt.Fprintf(w, "External lookups:\t%d (%d failed)\n", rep.Enrichment.ExternalAttempts, rep.Enrichment.ExternalFailures)
	}
	_, _ = fmt.Fprintf(w, "Incidents:\t%d\n", len(rep.Incidents)+rep.Dropped)
	_ = w.Flush()
}

func tierSummary(counts map[model.ContentSource]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		name := k
		if name == "" {
			name = "none"
		}
		s += fmt.Sprintf("%s=%d", name, counts[model.ContentSource(k)])
	}
	return s
}
