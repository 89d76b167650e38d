package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/model"
)

// Document is one entity prepared for upsert: indexed columns plus the full
// JSON body. Hash covers the body without its lastUpdated stamp, so an
// unchanged entity is never rewritten.
type Document struct {
	Slug           string
	Name           string
	NormalizedName string
	City           string
	County         string
	Region         string
	ListingCount   int
	IsOcean        bool
	HasManualData  bool
	Body           []byte
	Hash           string
}

// NewDocument builds a Document from a *model.Subdivision, *model.City,
// *model.County or *model.Region.
func NewDocument(entity any) (Document, error) {
	var (
		d       Document
		stamped any
		bare    any
	)

	switch e := entity.(type) {
	case *model.Subdivision:
		d = Document{Slug: e.Slug, Name: e.Name, NormalizedName: e.NormalizedName, City: e.City,
			County: e.County, Region: e.Region, ListingCount: e.ListingCount, IsOcean: e.IsOcean,
			HasManualData: e.HasManualData}
		c := *e
		c.LastUpdated = time.Time{}
		stamped, bare = e, &c
	case *model.City:
		d = Document{Slug: e.Slug, Name: e.Name, City: e.Name, County: e.County, Region: e.Region,
			ListingCount: e.ListingCount, IsOcean: e.IsOcean}
		c := *e
		c.LastUpdated = time.Time{}
		stamped, bare = e, &c
	case *model.County:
		d = Document{Slug: e.Slug, Name: e.Name, County: e.Name, Region: e.Region,
			ListingCount: e.ListingCount, IsOcean: e.IsOcean}
		c := *e
		c.LastUpdated = time.Time{}
		stamped, bare = e, &c
	case *model.Region:
		d = Document{Slug: e.Slug, Name: e.Name, Region: e.Name,
			ListingCount: e.ListingCount, IsOcean: e.IsOcean}
		c := *e
		c.LastUpdated = time.Time{}
		stamped, bare = e, &c
	default:
		return Document{}, eris.Errorf("store: unsupported entity %T", entity)
	}

	hashBody, err := json.Marshal(bare)
	if err != nil {
		return Document{}, eris.Wrap(err, "store: marshal entity")
	}
	sum := sha256.Sum256(hashBody)
	d.Hash = hex.EncodeToString(sum[:])

	d.Body, err = json.Marshal(stamped)
	if err != nil {
		return Document{}, eris.Wrap(err, "store: marshal entity")
	}
	return d, nil
}

// validate rejects documents the tables would refuse anyway, so they are
// reported as validation skips rather than driver errors.
func (d Document) validate() string {
	switch {
	case d.Slug == "":
		return "empty slug"
	case d.Name == "":
		return "empty name"
	case d.ListingCount < 0:
		return "negative listing count"
	case len(d.Body) == 0:
		return "empty body"
	}
	return ""
}
