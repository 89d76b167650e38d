package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/community-cli/internal/model"
)

// Extraction is the materialized output of every source.
type Extraction struct {
	Records []Record
	Sources []model.SourceCounts
	Dropped []Dropped
}

// CityFormatter canonicalizes a raw city name before it is used in keys.
type CityFormatter func(string) string

// Extract reads every source concurrently, then filters and keys records in
// source order. A source that cannot be read fails the extraction.
func Extract(ctx context.Context, readers []Reader, formatCity CityFormatter) (*Extraction, error) {
	log := zap.L().With(zap.String("component", "source"))
	if formatCity == nil {
		formatCity = strings.TrimSpace
	}

	listings := make([][]model.RawListing, len(readers))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range readers {
		g.Go(func() error {
			rows, err := r.Read(gctx)
			if err != nil {
				return eris.Wrapf(err, "source: read %s", r.Source())
			}
			listings[i] = rows
			log.Info("source read", zap.String("source", r.Source()), zap.Int("rows", len(rows)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ex := &Extraction{}
	for i, r := range readers {
		counts := model.SourceCounts{Name: r.Source(), Excluded: map[string]int{}}
		for _, l := range listings[i] {
			counts.Read++
			l.Source = r.Source()
			l.City = formatCity(l.City)

			if reason := Eligibility(l); reason != "" {
				counts.Excluded[reason]++
				if reason != ReasonInactive {
					ex.Dropped = append(ex.Dropped, Dropped{Source: r.Source(), ListingKey: l.ListingKey, Reason: reason})
				}
				continue
			}

			counts.Eligible++
			ex.Records = append(ex.Records, Record{
				Key:     NormalizeKey(l.SubdivisionName, l.City),
				City:    l.City,
				Listing: l,
			})
		}
		log.Info("source filtered",
			zap.String("source", counts.Name),
			zap.Int("read", counts.Read),
			zap.Int("eligible", counts.Eligible),
			zap.Int("excluded", counts.ExcludedTotal()),
		)
		ex.Sources = append(ex.Sources, counts)
	}
	return ex, nil
}
