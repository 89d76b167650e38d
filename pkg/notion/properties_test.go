package notion

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
)

func TestPropertyHelpers(t *testing.T) {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{
			Title: []notionapi.RichText{{PlainText: "PGA "}, {PlainText: "West "}},
		},
		"City":     &notionapi.SelectProperty{Select: notionapi.Option{Name: "La Quinta"}},
		"Location": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "La Quinta, CA"}}},
		"Photo":    &notionapi.URLProperty{URL: " https://cdn.example.org/pga.jpg "},
		"Hero": &notionapi.FilesProperty{Files: []notionapi.File{
			{Name: "hero.jpg", External: &notionapi.FileObject{URL: "https://cdn.example.org/hero.jpg"}},
		}},
		"Features": &notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "Golf"}, {Name: " "}, {Name: "Spa"}}},
		"Keywords": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "golf homes, , la quinta"}}},
		"Latitude": &notionapi.NumberProperty{Number: 33.65},
	}

	assert.Equal(t, "PGA West", Text(props, "Name"))
	assert.Equal(t, "La Quinta", Text(props, "City"))
	assert.Equal(t, "La Quinta, CA", Text(props, "Location"))
	assert.Empty(t, Text(props, "Missing"))

	assert.Equal(t, "https://cdn.example.org/pga.jpg", URL(props, "Photo"))
	assert.Equal(t, "https://cdn.example.org/hero.jpg", URL(props, "Hero"))
	assert.Empty(t, URL(props, "Latitude"))

	assert.Equal(t, []string{"Golf", "Spa"}, List(props, "Features"))
	assert.Equal(t, []string{"golf homes", "la quinta"}, List(props, "Keywords"))
	assert.Nil(t, List(props, "Name"))

	lat, ok := Number(props, "Latitude")
	assert.True(t, ok)
	assert.InDelta(t, 33.65, lat, 1e-9)
	_, ok = Number(props, "Longitude")
	assert.False(t, ok)
}
