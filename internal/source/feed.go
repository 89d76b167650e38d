package source

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/fetcher"
	"github.com/sells-group/community-cli/internal/model"
)

// Feed formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// FeedReader reads a CSV or JSON listing export from a path or URL.
type FeedReader struct {
	name   string
	fetch  fetcher.Fetcher
	url    string
	format string
	cols   ColumnMap
}

// NewFeedReader creates a feed reader. An empty format means CSV.
func NewFeedReader(name string, f fetcher.Fetcher, url, format string, cols map[string]string) *FeedReader {
	if format == "" {
		format = FormatCSV
	}
	return &FeedReader{name: name, fetch: f, url: url, format: format, cols: FeedColumns(cols)}
}

func (r *FeedReader) Source() string { return r.name }

func (r *FeedReader) Read(ctx context.Context) ([]model.RawListing, error) {
	body, err := r.fetch.Open(ctx, r.url)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open feed %s", r.name)
	}
	defer body.Close() //nolint:errcheck

	var rows []map[string]string
	switch r.format {
	case FormatCSV:
		rows, err = fetcher.ReadCSVRecords(ctx, body, fetcher.CSVOptions{LazyQuotes: true, TrimSpace: true})
	case FormatJSON:
		var items []map[string]any
		items, err = fetcher.ReadJSONArray[map[string]any](ctx, body)
		rows = make([]map[string]string, len(items))
		for i, item := range items {
			rows[i] = stringify(item)
		}
	default:
		return nil, eris.Errorf("source: unsupported feed format %q", r.format)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: decode feed %s", r.name)
	}

	out := make([]model.RawListing, len(rows))
	for i, row := range rows {
		out[i] = listingFromRow(r.name, r.cols, row)
	}
	return out, nil
}

func stringify(item map[string]any) map[string]string {
	row := make(map[string]string, len(item))
	for k, v := range item {
		switch t := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = t
		case float64:
			row[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			row[k] = strconv.FormatBool(t)
		case []any:
			parts := make([]string, 0, len(t))
			for _, e := range t {
				if str, ok := e.(string); ok {
					parts = append(parts, str)
				}
			}
			row[k] = strings.Join(parts, ", ")
		default:
			b, _ := json.Marshal(t)
			row[k] = string(b)
		}
	}
	return row
}
