package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/community-cli/internal/model"
)

func TestParseCollection(t *testing.T) {
	tests := []struct {
		in   string
		want model.Collection
	}{
		{"subdivisions", model.CollectionSubdivisions},
		{"subdivision", model.CollectionSubdivisions},
		{"Cities", model.CollectionCities},
		{"city", model.CollectionCities},
		{" county ", model.CollectionCounties},
		{"regions", model.CollectionRegions},
		{"region", model.CollectionRegions},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCollection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCollection_Unknown(t *testing.T) {
	_, err := parseCollection("states")
	assert.Error(t, err)
}

func TestFilterFlags(t *testing.T) {
	require.NoError(t, queryListCmd.Flags().Set("city", "Indio"))
	require.NoError(t, queryListCmd.Flags().Set("exclude-ocean", "true"))
	require.NoError(t, queryListCmd.Flags().Set("limit", "5"))
	t.Cleanup(func() {
		_ = queryListCmd.Flags().Set("city", "")
		_ = queryListCmd.Flags().Set("exclude-ocean", "false")
		_ = queryListCmd.Flags().Set("limit", "0")
	})

	f := filterFlags(queryListCmd)
	assert.Equal(t, "Indio", f.City)
	assert.True(t, f.ExcludeOcean)
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 0, f.Offset)
}
