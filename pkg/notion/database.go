package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// DefaultPageSize is the Notion maximum for database queries.
const DefaultPageSize = 100

// QueryAll reads every page of a database by following cursors. The
// filter's Filter and Sorts are sent with each request. A cursor the API
// has already returned ends the walk with an error.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var (
		all    []notionapi.Page
		cursor notionapi.Cursor
		seen   = make(map[notionapi.Cursor]bool)
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "notion: query %s", dbID)
		}

		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor, PageSize: DefaultPageSize}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			if filter.PageSize > 0 {
				req.PageSize = filter.PageSize
			}
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query %s after %d pages", dbID, len(all))
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}
		if seen[resp.NextCursor] {
			return nil, eris.Errorf("notion: query %s repeated cursor %s", dbID, resp.NextCursor)
		}
		seen[resp.NextCursor] = true
		cursor = resp.NextCursor
	}
}
