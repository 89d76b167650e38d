package geo

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// NamedRegion force-maps a set of cities to a region regardless of county.
type NamedRegion struct {
	Region string   `yaml:"region"`
	Cities []string `yaml:"cities"`
}

// Tables holds the static city, county and region lookups.
type Tables struct {
	// Counties lists the cities of each county.
	Counties map[string][]string `yaml:"counties"`
	// Regions maps a county to its region.
	Regions map[string]string `yaml:"regions"`
	// Overrides are checked in order before the county table.
	Overrides []NamedRegion `yaml:"overrides"`
}

// DefaultTables parses the embedded California tables.
func DefaultTables() (*Tables, error) {
	return LoadTables(bytes.NewReader(defaultTables))
}

// LoadTablesFile reads tables from a YAML file.
func LoadTablesFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open tables %s", path)
	}
	defer f.Close() //nolint:errcheck
	return LoadTables(f)
}

// LoadTables decodes and checks lookup tables. A city listed under two
// counties is rejected.
func LoadTables(r io.Reader) (*Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, eris.Wrap(err, "geo: decode tables")
	}
	if len(t.Counties) == 0 {
		return nil, eris.New("geo: tables have no counties")
	}

	seen := make(map[string]string)
	for county, cities := range t.Counties {
		for _, city := range cities {
			key := foldCity(city)
			if prev, ok := seen[key]; ok && prev != county {
				return nil, eris.Errorf("geo: city %q listed under %s and %s", city, prev, county)
			}
			seen[key] = county
		}
	}
	for i, o := range t.Overrides {
		if o.Region == "" {
			return nil, eris.Errorf("geo: overrides[%d] has no region", i)
		}
	}
	return &t, nil
}
