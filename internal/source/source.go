// Package source reads raw listings from each MLS, filters them for
// eligibility and assigns the subdivision grouping key.
package source

import (
	"context"

	"github.com/sells-group/community-cli/internal/model"
)

// Reader reads every raw listing from one source.
type Reader interface {
	Source() string
	Read(ctx context.Context) ([]model.RawListing, error)
}

// Record is one eligible listing with its grouping key.
type Record struct {
	Key     string
	City    string
	Listing model.RawListing
}

// Exclusion reasons.
const (
	ReasonInactive     = "inactive"
	ReasonMissingCity  = "missing_city"
	ReasonMissingPrice = "missing_price"
)

// Dropped identifies a listing that failed a required-field check.
type Dropped struct {
	Source     string
	ListingKey string
	Reason     string
}
