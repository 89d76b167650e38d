package model

// ManualOverride is curated editorial content for one community.
type ManualOverride struct {
	Name        string       `json:"name" yaml:"name"`
	City        string       `json:"city,omitempty" yaml:"city,omitempty"`
	Location    string       `json:"location,omitempty" yaml:"location,omitempty"`
	Slug        string       `json:"slug,omitempty" yaml:"slug,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Photo       string       `json:"photo,omitempty" yaml:"photo,omitempty"`
	Features    []string     `json:"features,omitempty" yaml:"features,omitempty"`
	Keywords    []string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`

	// Source is the override source the record was loaded from.
	Source string `json:"-" yaml:"-"`
}

// ManualContent is manual description/photo content retained from a prior run.
type ManualContent struct {
	Slug        string
	Description string
	Photo       string
}
