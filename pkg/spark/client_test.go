package spark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/community-cli/internal/resilience"
)

func TestListingPhotos_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/listings/20230101/photos", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "test-agent", r.Header.Get("X-SparkApi-User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"D":{"Success":true,"Results":[
			{"Id":"1","Uri640":"https://cdn/640.jpg","Uri1024":"https://cdn/1024.jpg"},
			{"Id":"2","Primary":true,"Uri800":"https://cdn/primary-800.jpg"}
		]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithUserAgent("test-agent"), WithRateLimit(0))
	photos, err := c.ListingPhotos(context.Background(), "20230101")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "https://cdn/1024.jpg", photos[0].BestURI())
	assert.Equal(t, "https://cdn/primary-800.jpg", BestPhoto(photos))
}

func TestListingPhotos_TransientStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("tok", WithBaseURL(srv.URL)).ListingPhotos(context.Background(), "k1")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestListingPhotos_PermanentStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"D":{"Success":false,"Message":"Not found"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("tok", WithBaseURL(srv.URL)).ListingPhotos(context.Background(), "k1")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestListingPhotos_BadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := NewClient("tok", WithBaseURL(srv.URL)).ListingPhotos(context.Background(), "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spark: unmarshal response")
}

func TestBestPhoto_Empty(t *testing.T) {
	assert.Empty(t, BestPhoto(nil))
	assert.Empty(t, BestPhoto([]Photo{{ID: "x", URI300: "https://cdn/thumb.jpg"}}))
}
