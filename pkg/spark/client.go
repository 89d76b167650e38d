// Package spark provides a client for the Spark MLS API listing photos
// endpoint.
package spark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/community-cli/internal/resilience"
)

const defaultBaseURL = "https://sparkapi.com/v1"

// Client looks up listing photos.
type Client interface {
	// ListingPhotos returns the photos attached to a listing.
	ListingPhotos(ctx context.Context, listingKey string) ([]Photo, error)
}

// Photo is one listing photo with its rendered sizes.
type Photo struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Primary bool   `json:"Primary"`
	URI300  string `json:"Uri300"`
	URI640  string `json:"Uri640"`
	URI800  string `json:"Uri800"`
	URI1024 string `json:"Uri1024"`
	URI1280 string `json:"Uri1280"`
	URI1600 string `json:"Uri1600"`
	URI2048 string `json:"Uri2048"`
}

// BestURI returns the preferred display size, largest first from 1600 down.
func (p Photo) BestURI() string {
	for _, u := range []string{p.URI1600, p.URI1280, p.URI1024, p.URI800, p.URI640} {
		if u != "" {
			return u
		}
	}
	return ""
}

// BestPhoto picks the primary photo if one is marked, otherwise the first
// photo with a usable URI.
func BestPhoto(photos []Photo) string {
	for _, p := range photos {
		if p.Primary {
			if u := p.BestURI(); u != "" {
				return u
			}
		}
	}
	for _, p := range photos {
		if u := p.BestURI(); u != "" {
			return u
		}
	}
	return ""
}

type photosResponse struct {
	D struct {
		Success bool    `json:"Success"`
		Results []Photo `json:"Results"`
	} `json:"D"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent sets the X-SparkApi-User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token     string
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Spark API client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:     token,
		baseURL:   defaultBaseURL,
		userAgent: "community-cli",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ListingPhotos(ctx context.Context, listingKey string) ([]Photo, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "spark: rate limit")
		}
	}

	endpoint := fmt.Sprintf("%s/listings/%s/photos", c.baseURL, url.PathEscape(listingKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "spark: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-SparkApi-User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "spark: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "spark: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("spark: unexpected status %d for listing %s: %s", resp.StatusCode, listingKey, truncate(body, 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result photosResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "spark: unmarshal response")
	}
	return result.D.Results, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
