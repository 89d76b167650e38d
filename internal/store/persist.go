package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/community-cli/internal/model"
)

// PersistOptions controls batching for Persist.
type PersistOptions struct {
	BatchSize   int
	Concurrency int
}

// PersistResult aggregates every batch written for one collection.
type PersistResult struct {
	Counts      model.WriteCounts
	Problems    []RecordProblem
	BatchErrors []error
}

// Persist splits docs into batches and upserts them concurrently. A failed
// batch counts its records as failed and does not stop the others.
func Persist(ctx context.Context, st Store, coll model.Collection, docs []Document, opts PersistOptions) PersistResult {
	log := zap.L().With(zap.String("component", "store.persist"), zap.String("collection", string(coll)))

	size := opts.BatchSize
	if size <= 0 {
		size = 500
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var batches [][]Document
	for start := 0; start < len(docs); start += size {
		batches = append(batches, docs[start:min(start+size, len(docs))])
	}
	results := make([]*BatchResult, len(batches))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := st.UpsertBatch(ctx, coll, batch)
			if res == nil {
				res = &BatchResult{Collection: coll}
			}
			res.Index = i
			if err != nil {
				res.Err = eris.Wrapf(err, "store: batch %d", i)
				// Records the batch never reached are failures too.
				done := res.Created + res.Updated + res.Unchanged + res.Skipped + res.Failed
				res.Failed += len(batch) - done
				log.Error("batch failed", zap.Int("batch", i), zap.Int("records", len(batch)), zap.Error(err))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := PersistResult{Counts: model.WriteCounts{Total: len(docs), Batches: len(batches)}}
	for _, res := range results {
		out.Counts.Created += res.Created
		out.Counts.Updated += res.Updated
		out.Counts.Unchanged += res.Unchanged
		out.Counts.Skipped += res.Skipped
		out.Counts.Failed += res.Failed
		out.Problems = append(out.Problems, res.Problems...)
		if res.Err != nil {
			out.BatchErrors = append(out.BatchErrors, res.Err)
		}
	}

	log.Info("collection persisted",
		zap.Int("total", out.Counts.Total),
		zap.Int("created", out.Counts.Created),
		zap.Int("updated", out.Counts.Updated),
		zap.Int("unchanged", out.Counts.Unchanged),
		zap.Int("skipped", out.Counts.Skipped),
		zap.Int("failed", out.Counts.Failed),
	)
	return out
}
