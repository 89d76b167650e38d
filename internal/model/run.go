package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one execution of the pipeline.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	DryRun     bool       `json:"dry_run"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Report     *RunReport `json:"report,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// IncidentKind classifies a recovered error.
type IncidentKind string

const (
	IncidentMissingField     IncidentKind = "missing_required_field"
	IncidentUnclassifiable   IncidentKind = "unclassifiable_geography"
	IncidentDuplicateKey     IncidentKind = "duplicate_key"
	IncidentValidation       IncidentKind = "validation"
	IncidentExternalEnrich   IncidentKind = "external_enrichment"
	IncidentOverrideParse    IncidentKind = "override_parse"
	IncidentWriteFailed      IncidentKind = "write_failed"
	IncidentSlugDisambiguate IncidentKind = "slug_disambiguated"
)

// Incident is a recovered error with enough context to re-run one entity.
type Incident struct {
	Kind      IncidentKind `json:"kind"`
	Stage     string       `json:"stage"`
	Source    string       `json:"source,omitempty"`
	EntityKey string       `json:"entity_key,omitempty"`
	Message   string       `json:"message"`
}

// SourceCounts tallies what one source contributed.
type SourceCounts struct {
	Name     string         `json:"name"`
	Read     int            `json:"read"`
	Eligible int            `json:"eligible"`
	Excluded map[string]int `json:"excluded,omitempty"` // keyed by reason
}

// ExcludedTotal sums excluded records across reasons.
func (s SourceCounts) ExcludedTotal() int {
	n := 0
	for _, c := range s.Excluded {
		n += c
	}
	return n
}

// OverrideCounts tallies one manual override source.
type OverrideCounts struct {
	Name    string `json:"name"`
	Loaded  int    `json:"loaded"`
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// WriteCounts tallies upsert outcomes for one collection.
type WriteCounts struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Batches   int `json:"batches"`
}

// EnrichmentCounts tallies which tier produced each entity's content.
type EnrichmentCounts struct {
	Description      map[ContentSource]int `json:"description"`
	Photo            map[ContentSource]int `json:"photo"`
	ExternalAttempts int                   `json:"external_attempts"`
	ExternalFailures int                   `json:"external_failures"`
}

// Phase is the timing and outcome of one pipeline stage.
type Phase struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunReport is the operator-facing summary of a run.
type RunReport struct {
	Phases       []Phase                    `json:"phases,omitempty"`
	Sources      []SourceCounts             `json:"sources"`
	Overrides    []OverrideCounts           `json:"overrides,omitempty"`
	Entities     map[Collection]int         `json:"entities"`
	Writes       map[Collection]WriteCounts `json:"writes,omitempty"`
	Ocean        map[Collection]int         `json:"ocean"`
	Unclassified int                        `json:"unclassified"`
	Enrichment   EnrichmentCounts           `json:"enrichment"`
	Incidents    []Incident                 `json:"incidents,omitempty"`
	Dropped      int                        `json:"incidents_dropped,omitempty"`
}
