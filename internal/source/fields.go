package source

import (
	"strconv"
	"strings"

	"github.com/sells-group/community-cli/internal/model"
)

// Logical listing fields. Sources map these to their own column names.
const (
	FieldListingKey        = "listingKey"
	FieldStatus            = "standardStatus"
	FieldPrice             = "listPrice"
	FieldBedrooms          = "bedroomsTotal"
	FieldBathrooms         = "bathroomsTotalInteger"
	FieldLivingArea        = "livingArea"
	FieldPropertyType      = "propertyType"
	FieldSubdivision       = "subdivisionName"
	FieldCity              = "city"
	FieldCounty            = "countyOrParish"
	FieldLatitude          = "latitude"
	FieldLongitude         = "longitude"
	FieldCommunityFeatures = "communityFeatures"
	FieldSenior            = "seniorCommunityYn"
	FieldAssociationFee    = "associationFee"
	FieldAssociationFee2   = "associationFee2"
	FieldPhotoURL          = "primaryPhotoUrl"
)

// Fields lists every logical field in a stable order.
var Fields = []string{
	FieldListingKey, FieldStatus, FieldPrice, FieldBedrooms, FieldBathrooms, FieldLivingArea,
	FieldPropertyType, FieldSubdivision, FieldCity, FieldCounty, FieldLatitude, FieldLongitude,
	FieldCommunityFeatures, FieldSenior, FieldAssociationFee, FieldAssociationFee2, FieldPhotoURL,
}

// defaultColumns are the table column names used when a table source has
// no mapping for a field.
var defaultColumns = map[string]string{
	FieldListingKey:        "listing_key",
	FieldStatus:            "standard_status",
	FieldPrice:             "list_price",
	FieldBedrooms:          "bedrooms_total",
	FieldBathrooms:         "bathrooms_total_integer",
	FieldLivingArea:        "living_area",
	FieldPropertyType:      "property_type",
	FieldSubdivision:       "subdivision_name",
	FieldCity:              "city",
	FieldCounty:            "county_or_parish",
	FieldLatitude:          "latitude",
	FieldLongitude:         "longitude",
	FieldCommunityFeatures: "community_features",
	FieldSenior:            "senior_community_yn",
	FieldAssociationFee:    "association_fee",
	FieldAssociationFee2:   "association_fee2",
	FieldPhotoURL:          "primary_photo_url",
}

// ColumnMap resolves logical fields to source column or key names.
type ColumnMap map[string]string

// TableColumns returns the column map for a table source: defaults
// overlaid with the configured overrides.
func TableColumns(overrides map[string]string) ColumnMap {
	m := make(ColumnMap, len(defaultColumns))
	for k, v := range defaultColumns {
		m[k] = v
	}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}

// FeedColumns returns the column map for a feed: logical names as keys
// unless overridden.
func FeedColumns(overrides map[string]string) ColumnMap {
	m := make(ColumnMap, len(Fields))
	for _, f := range Fields {
		m[f] = f
	}
	for k, v := range overrides {
		m[k] = v
	}
	return m
}

// Column returns the source name for a logical field.
func (m ColumnMap) Column(field string) string {
	if c, ok := m[field]; ok && c != "" {
		return c
	}
	return field
}

// listingFromRow parses a row of text values keyed by source column.
func listingFromRow(source string, cols ColumnMap, row map[string]string) model.RawListing {
	get := func(field string) string {
		return strings.TrimSpace(row[cols.Column(field)])
	}

	l := model.RawListing{
		ListingKey:        get(FieldListingKey),
		Source:            source,
		Status:            get(FieldStatus),
		Price:             parseFloat(get(FieldPrice)),
		Bedrooms:          int(parseFloat(get(FieldBedrooms))),
		Bathrooms:         parseFloat(get(FieldBathrooms)),
		LivingArea:        parseFloat(get(FieldLivingArea)),
		PropertyType:      strings.ToUpper(get(FieldPropertyType)),
		SubdivisionName:   get(FieldSubdivision),
		City:              get(FieldCity),
		CountyOrParish:    get(FieldCounty),
		CommunityFeatures: get(FieldCommunityFeatures),
		SeniorCommunity:   parseBool(get(FieldSenior)),
		AssociationFee:    parseFloat(get(FieldAssociationFee)),
		AssociationFee2:   parseFloat(get(FieldAssociationFee2)),
		PhotoURL:          get(FieldPhotoURL),
	}

	lat, latOK := parseCoord(get(FieldLatitude))
	lng, lngOK := parseCoord(get(FieldLongitude))
	if latOK && lngOK {
		l.Latitude = &lat
		l.Longitude = &lng
	}
	return l
}

func parseFloat(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseCoord treats 0 and unparsable values as absent.
func parseCoord(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f == 0 {
		return 0, false
	}
	return f, true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "y", "yes":
		return true
	}
	return false
}
