package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowValues(key, status, price, sub, city string) []any {
	vals := make([]any, len(Fields))
	for i := range vals {
		vals[i] = ""
	}
	set := map[string]string{
		FieldListingKey: key, FieldStatus: status, FieldPrice: price,
		FieldSubdivision: sub, FieldCity: city, FieldPropertyType: "A",
	}
	for i, f := range Fields {
		if v, ok := set[f]; ok {
			vals[i] = v
		}
	}
	return vals
}

func TestPostgresReader_Read(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COALESCE\(listing_key::text, ''\) AS "listingKey", .* FROM gps_listings ORDER BY listing_key`).
		WillReturnRows(pgxmock.NewRows(Fields).
			AddRow(rowValues("G1", "Active", "350000", "Sun City Shadow Hills", "Indio")...).
			AddRow(rowValues("G2", "Closed", "620000", "", "Indio")...))

	r := NewPostgresReader("gps", mock, "gps_listings", nil)
	assert.Equal(t, "gps", r.Source())

	rows, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "G1", rows[0].ListingKey)
	assert.Equal(t, "gps", rows[0].Source)
	assert.InDelta(t, 350000, rows[0].Price, 0.001)
	assert.Equal(t, "Closed", rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteReader_Read(t *testing.T) {
	handle, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "mls.db"))
	require.NoError(t, err)
	defer handle.Close() //nolint:errcheck

	_, err = handle.Exec(`CREATE TABLE crmls (
		ListingKey TEXT, StandardStatus TEXT, ListPrice REAL, City TEXT, SubdivisionName TEXT,
		Latitude REAL, Longitude REAL, PropertyType TEXT
	)`)
	require.NoError(t, err)
	_, err = handle.Exec(`INSERT INTO crmls VALUES
		('C2', 'Active', 700000, 'Indio', 'Sun City Shadow Hills', 33.75, -116.21, 'A'),
		('C1', 'Active', 400000, 'Indio', NULL, NULL, NULL, 'B')`)
	require.NoError(t, err)

	cols := map[string]string{
		FieldListingKey:   "ListingKey",
		FieldStatus:       "StandardStatus",
		FieldPrice:        "ListPrice",
		FieldCity:         "City",
		FieldSubdivision:  "SubdivisionName",
		FieldLatitude:     "Latitude",
		FieldLongitude:    "Longitude",
		FieldPropertyType: "PropertyType",
		// Columns the table lacks are mapped to an existing column and
		// ignored by the assertions below.
		FieldBedrooms:          "ListPrice",
		FieldBathrooms:         "ListPrice",
		FieldLivingArea:        "ListPrice",
		FieldCounty:            "City",
		FieldCommunityFeatures: "PropertyType",
		FieldSenior:            "PropertyType",
		FieldAssociationFee:    "Latitude",
		FieldAssociationFee2:   "Latitude",
		FieldPhotoURL:          "SubdivisionName",
	}
	r := NewSQLiteReader("crmls", handle, "crmls", cols)

	rows, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C1", rows[0].ListingKey)
	assert.Empty(t, rows[0].SubdivisionName)
	assert.False(t, rows[0].HasCoordinates())
	assert.Equal(t, "C2", rows[1].ListingKey)
	assert.InDelta(t, 700000, rows[1].Price, 0.001)
	require.True(t, rows[1].HasCoordinates())
	assert.InDelta(t, -116.21, *rows[1].Longitude, 1e-9)
}
