// Package notion reads curated community content from Notion databases.
package notion

import (
	"context"
	"errors"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/community-cli/internal/resilience"
)

// Client is the subset of the Notion API the override loader needs.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default 3 req/s throttle. Zero disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry sets how server errors and throttling are retried.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *notionClient) { c.retry = cfg }
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a rate-limited, retrying Notion client.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("notion", "query_database")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		if err := c.wait(ctx); err != nil {
			return nil, eris.Wrap(err, "notion: rate limit")
		}
		resp, err := c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
		if err != nil {
			return nil, classify(eris.Wrapf(err, "notion: query database %s", dbID))
		}
		return resp, nil
	})
}

// classify marks throttling and server-side API errors as transient.
func classify(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.Status) {
		return resilience.NewTransientError(err, apiErr.Status)
	}
	return err
}
