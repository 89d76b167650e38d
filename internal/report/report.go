// Package report collects recovered incidents and assembles the run report.
package report

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/model"
)

// DefaultMaxIncidents caps how many incidents a report keeps.
const DefaultMaxIncidents = 1000

// Recorder collects incidents from every stage. It is safe for concurrent
// use. Incidents past the cap are counted, not kept.
type Recorder struct {
	mu        sync.Mutex
	max       int
	incidents []model.Incident
	dropped   int
	byKind    map[model.IncidentKind]int
}

// NewRecorder creates a Recorder keeping at most max incidents.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = DefaultMaxIncidents
	}
	return &Recorder{max: max, byKind: make(map[model.IncidentKind]int)}
}

// Record logs and stores one incident.
func (r *Recorder) Record(inc model.Incident) {
	zap.L().Warn("incident",
		zap.String("component", inc.Stage),
		zap.String("kind", string(inc.Kind)),
		zap.String("source", inc.Source),
		zap.String("entity_key", inc.EntityKey),
		zap.String("message", inc.Message),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[inc.Kind]++
	if len(r.incidents) >= r.max {
		r.dropped++
		return
	}
	r.incidents = append(r.incidents, inc)
}

// Count returns how many incidents of kind were recorded, kept or not.
func (r *Recorder) Count(kind model.IncidentKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byKind[kind]
}

// Fill copies the kept incidents and the dropped count into rep.
func (r *Recorder) Fill(rep *model.RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.Incidents = append([]model.Incident(nil), r.incidents...)
	rep.Dropped = r.dropped
}

// New returns an empty report with its maps allocated.
func New() *model.RunReport {
	return &model.RunReport{
		Entities: make(map[model.Collection]int),
		Writes:   make(map[model.Collection]model.WriteCounts),
		Ocean:    make(map[model.Collection]int),
		Enrichment: model.EnrichmentCounts{
			Description: make(map[model.ContentSource]int),
			Photo:       make(map[model.ContentSource]int),
		},
	}
}
