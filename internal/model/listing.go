package model

// Property type codes shared by the MLS feeds.
const (
	PropertyTypeResidential = "A"
	PropertyTypeLease       = "B"
	PropertyTypeMultiFamily = "C"
)

// RawListing is one listing row as read from an MLS source. Rows are owned
// by the source system and never written back.
type RawListing struct {
	ListingKey        string   `json:"listingKey"`
	Source            string   `json:"source"`
	Status            string   `json:"status"`
	Price             float64  `json:"price"`
	Bedrooms          int      `json:"bedrooms,omitempty"`
	Bathrooms         float64  `json:"bathrooms,omitempty"`
	LivingArea        float64  `json:"livingArea,omitempty"`
	PropertyType      string   `json:"propertyType,omitempty"`
	SubdivisionName   string   `json:"subdivisionName,omitempty"`
	City              string   `json:"city"`
	CountyOrParish    string   `json:"countyOrParish,omitempty"` // unreliable; never used for classification
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	CommunityFeatures string   `json:"communityFeatures,omitempty"`
	SeniorCommunity   bool     `json:"seniorCommunity,omitempty"`
	AssociationFee    float64  `json:"associationFee,omitempty"`
	AssociationFee2   float64  `json:"associationFee2,omitempty"`
	PhotoURL          string   `json:"photoUrl,omitempty"`
}

// HasCoordinates reports whether the listing carries a usable lat/lng pair.
func (l *RawListing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil && (*l.Latitude != 0 || *l.Longitude != 0)
}
