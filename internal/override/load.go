package override

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/internal/normalize"
)

// CityFromLocation takes the first comma-separated part of a location
// string, snapping the two resort cities that often carry prefixes.
func CityFromLocation(location string) string {
	city := strings.TrimSpace(strings.SplitN(location, ",", 2)[0])
	switch {
	case strings.Contains(city, "Palm Springs"):
		return "Palm Springs"
	case strings.Contains(city, "La Quinta"):
		return "La Quinta"
	}
	return city
}

// Key returns the lookup key of a record.
func Key(rec model.ManualOverride) string {
	city := rec.City
	if city == "" && rec.Location != "" {
		city = CityFromLocation(rec.Location)
	}
	return normalize.OverrideKey(rec.Name, city)
}

// Failure is an override source that could not be loaded.
type Failure struct {
	Source string
	Err    error
}

// Set is the merged lookup table of every loaded source.
type Set struct {
	records  map[string]model.ManualOverride
	Counts   []model.OverrideCounts
	Failures []Failure
}

// Lookup returns the record for a (name, city) pair.
func (s *Set) Lookup(name, city string) (model.ManualOverride, bool) {
	if s == nil {
		return model.ManualOverride{}, false
	}
	rec, ok := s.records[normalize.OverrideKey(name, city)]
	return rec, ok
}

// Len is the number of distinct keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Load reads every source in order. The first source to define a key keeps
// it. A source that fails is skipped and recorded; the rest still load.
func Load(ctx context.Context, sources []Source) *Set {
	log := zap.L().With(zap.String("component", "override"))
	set := &Set{records: make(map[string]model.ManualOverride)}

	for _, src := range sources {
		counts := model.OverrideCounts{Name: src.Name()}
		recs, err := src.Load(ctx)
		if err != nil {
			log.Warn("override source skipped", zap.String("source", src.Name()), zap.Error(err))
			counts.Error = err.Error()
			set.Failures = append(set.Failures, Failure{Source: src.Name(), Err: err})
			set.Counts = append(set.Counts, counts)
			continue
		}

		for _, rec := range recs {
			if strings.TrimSpace(rec.Name) == "" {
				continue
			}
			counts.Loaded++
			key := Key(rec)
			if _, dup := set.records[key]; dup {
				continue
			}
			rec.Source = src.Name()
			set.records[key] = rec
		}
		log.Info("override source loaded", zap.String("source", src.Name()), zap.Int("records", counts.Loaded))
		set.Counts = append(set.Counts, counts)
	}
	return set
}
