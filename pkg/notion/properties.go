package notion

import (
	"strings"

	"github.com/jomei/notionapi"
)

// PlainText concatenates the plain_text values from a slice of RichText.
func PlainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// Text returns a title, rich_text, select or url property as trimmed text.
func Text(props notionapi.Properties, name string) string {
	var s string
	switch p := props[name].(type) {
	case *notionapi.TitleProperty:
		s = PlainText(p.Title)
	case *notionapi.RichTextProperty:
		s = PlainText(p.RichText)
	case *notionapi.SelectProperty:
		s = p.Select.Name
	case *notionapi.URLProperty:
		s = p.URL
	}
	return strings.TrimSpace(s)
}

// URL returns a url property, or the first file's URL for a files property.
func URL(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case *notionapi.URLProperty:
		return strings.TrimSpace(p.URL)
	case *notionapi.FilesProperty:
		for _, f := range p.Files {
			if f.External != nil && f.External.URL != "" {
				return f.External.URL
			}
			if f.File != nil && f.File.URL != "" {
				return f.File.URL
			}
		}
	case *notionapi.RichTextProperty:
		return strings.TrimSpace(PlainText(p.RichText))
	}
	return ""
}

// List returns multi_select option names, or comma-separated rich text
// split into items.
func List(props notionapi.Properties, name string) []string {
	var out []string
	switch p := props[name].(type) {
	case *notionapi.MultiSelectProperty:
		for _, opt := range p.MultiSelect {
			if n := strings.TrimSpace(opt.Name); n != "" {
				out = append(out, n)
			}
		}
	case *notionapi.RichTextProperty:
		for _, item := range strings.Split(PlainText(p.RichText), ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Number returns a number property and whether it was present.
func Number(props notionapi.Properties, name string) (float64, bool) {
	if p, ok := props[name].(*notionapi.NumberProperty); ok {
		return p.Number, true
	}
	return 0, false
}
