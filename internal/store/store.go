// Package store persists canonical entities and run reports.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/model"
)

// ErrNotFound is returned when a slug or run id has no row.
var ErrNotFound = eris.New("store: not found")

// Outcome is what happened to one upserted record.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// RecordProblem describes a record that was skipped or failed.
type RecordProblem struct {
	Slug    string             `json:"slug"`
	Outcome Outcome            `json:"outcome"`
	Kind    model.IncidentKind `json:"kind"`
	Reason  string             `json:"reason"`
}

// BatchResult summarizes one upsert batch.
type BatchResult struct {
	Collection model.Collection `json:"collection"`
	Index      int              `json:"index"`
	Created    int              `json:"created"`
	Updated    int              `json:"updated"`
	Unchanged  int              `json:"unchanged"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	Problems   []RecordProblem  `json:"problems,omitempty"`
	Err        error            `json:"-"`
}

func (b *BatchResult) record(slug string, out Outcome, kind model.IncidentKind, reason string) {
	switch out {
	case OutcomeCreated:
		b.Created++
	case OutcomeUpdated:
		b.Updated++
	case OutcomeUnchanged:
		b.Unchanged++
	case OutcomeSkipped:
		b.Skipped++
	case OutcomeFailed:
		b.Failed++
	}
	if out == OutcomeSkipped || out == OutcomeFailed {
		b.Problems = append(b.Problems, RecordProblem{Slug: slug, Outcome: out, Kind: kind, Reason: reason})
	}
}

// Filter narrows an entity listing. Results are ordered by listing count
// descending, then slug.
type Filter struct {
	City         string
	County       string
	Region       string
	ExcludeOcean bool
	Limit        int
	Offset       int
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus
	Limit  int
}

// Store defines the persistence interface for the pipeline and its readers.
type Store interface {
	// Entities
	UpsertBatch(ctx context.Context, coll model.Collection, docs []Document) (*BatchResult, error)
	Get(ctx context.Context, coll model.Collection, slug string) (json.RawMessage, error)
	List(ctx context.Context, coll model.Collection, filter Filter) ([]json.RawMessage, error)
	Count(ctx context.Context, coll model.Collection) (int, error)
	ManualContent(ctx context.Context) (map[string]model.ManualContent, error)

	// Runs
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

func checkCollection(coll model.Collection) error {
	for _, c := range model.Collections {
		if c == coll {
			return nil
		}
	}
	return eris.Errorf("store: unknown collection %q", coll)
}

// manualFromDocs extracts retained manual description/photo content.
func manualFromDocs(docs [][]byte) (map[string]model.ManualContent, error) {
	out := make(map[string]model.ManualContent, len(docs))
	for _, raw := range docs {
		var s model.Subdivision
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, eris.Wrap(err, "store: decode subdivision")
		}
		mc := model.ManualContent{Slug: s.Slug}
		if s.DescriptionSource == model.ContentManual {
			mc.Description = s.Description
		}
		if s.PhotoSource == model.ContentManual {
			mc.Photo = s.Photo
		}
		if mc.Description != "" || mc.Photo != "" {
			out[s.Slug] = mc
		}
	}
	return out, nil
}
