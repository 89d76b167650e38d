// Package override loads curated community content and overlays it onto
// aggregated subdivisions.
package override

import (
	"context"
	"encoding/json"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/community-cli/internal/config"
	"github.com/sells-group/community-cli/internal/fetcher"
	"github.com/sells-group/community-cli/internal/model"
	"github.com/sells-group/community-cli/pkg/notion"
)

// Source yields manual override records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.ManualOverride, error)
}

// FileSource reads a JSON or YAML array of records from a path or URL, or
// the first (or named) sheet of a local XLSX workbook.
type FileSource struct {
	name  string
	path  string
	sheet string
	fetch fetcher.Fetcher
}

// NewFileSource creates a file-backed override source. The format follows
// the file extension.
func NewFileSource(name, path, sheet string, f fetcher.Fetcher) *FileSource {
	return &FileSource{name: name, path: path, sheet: sheet, fetch: f}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Load(ctx context.Context) ([]model.ManualOverride, error) {
	ext := strings.ToLower(path.Ext(s.path))
	if ext == ".xlsx" {
		rows, err := fetcher.ReadXLSXRecords(s.path, fetcher.XLSXOptions{SheetName: s.sheet})
		if err != nil {
			return nil, eris.Wrapf(err, "override: read %s", s.name)
		}
		return fromRows(rows), nil
	}

	body, err := s.fetch.Open(ctx, s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "override: open %s", s.name)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "override: read %s", s.name)
	}

	var records []model.ManualOverride
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &records)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, eris.Errorf("override: unsupported file type %q for %s", ext, s.name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "override: parse %s", s.name)
	}
	return records, nil
}

// fromRows maps spreadsheet rows to records. Headers match
// case-insensitively; list cells are comma separated.
func fromRows(rows []map[string]string) []model.ManualOverride {
	out := make([]model.ManualOverride, 0, len(rows))
	for _, row := range rows {
		cell := make(map[string]string, len(row))
		for k, v := range row {
			cell[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
		rec := model.ManualOverride{
			Name:        cell["name"],
			City:        cell["city"],
			Location:    cell["location"],
			Slug:        cell["slug"],
			Description: cell["description"],
			Photo:       cell["photo"],
			Features:    splitList(cell["features"]),
			Keywords:    splitList(cell["keywords"]),
		}
		lat, errLat := strconv.ParseFloat(cell["latitude"], 64)
		lng, errLng := strconv.ParseFloat(cell["longitude"], 64)
		if errLat == nil && errLng == nil && (lat != 0 || lng != 0) {
			rec.Coordinates = &model.Coordinates{Lat: lat, Lng: lng}
		}
		out = append(out, rec)
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// NotionSource reads records from a Notion database.
type NotionSource struct {
	name   string
	client notion.Client
	dbID   string
}

// NewNotionSource creates a Notion-backed override source.
func NewNotionSource(name string, client notion.Client, dbID string) *NotionSource {
	return &NotionSource{name: name, client: client, dbID: dbID}
}

func (s *NotionSource) Name() string { return s.name }

func (s *NotionSource) Load(ctx context.Context) ([]model.ManualOverride, error) {
	pages, err := notion.QueryAll(ctx, s.client, s.dbID, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "override: query %s", s.name)
	}

	out := make([]model.ManualOverride, 0, len(pages))
	for _, p := range pages {
		rec, ok := parsePage(p)
		if !ok {
			zap.L().Warn("override: skipping page without a name",
				zap.String("source", s.name),
				zap.String("page_id", string(p.ID)),
			)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parsePage(p notionapi.Page) (model.ManualOverride, bool) {
	props := p.Properties
	rec := model.ManualOverride{
		Name:        notion.Text(props, "Name"),
		City:        notion.Text(props, "City"),
		Location:    notion.Text(props, "Location"),
		Slug:        notion.Text(props, "Slug"),
		Description: notion.Text(props, "Description"),
		Photo:       notion.URL(props, "Photo"),
		Features:    notion.List(props, "Features"),
		Keywords:    notion.List(props, "Keywords"),
	}
	lat, okLat := notion.Number(props, "Latitude")
	lng, okLng := notion.Number(props, "Longitude")
	if okLat && okLng && (lat != 0 || lng != 0) {
		rec.Coordinates = &model.Coordinates{Lat: lat, Lng: lng}
	}
	return rec, rec.Name != ""
}

// Override source kinds.
const (
	KindFile   = "file"
	KindNotion = "notion"
)

// Open builds sources for the configured overrides, in order.
func Open(cfgs []config.OverrideConfig, f fetcher.Fetcher, nc notion.Client) ([]Source, error) {
	out := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Kind {
		case KindFile, "":
			out = append(out, NewFileSource(c.Name, c.Path, c.Sheet, f))
		case KindNotion:
			if nc == nil {
				return nil, eris.Errorf("override: %s needs a notion client", c.Name)
			}
			out = append(out, NewNotionSource(c.Name, nc, c.Database))
		default:
			return nil, eris.Errorf("override: unknown kind %q for %s", c.Kind, c.Name)
		}
	}
	return out, nil
}
