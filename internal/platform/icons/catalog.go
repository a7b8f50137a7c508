package icons

import (
	"strings"
)

// Search is the search action icon shown next to the favorite avatars.
const Search = "ic_search"

// Definition describes one tile icon.
type Definition struct {
	ID          string
	Name        string
	Description string
	// Drawable is the resource name bundled with the watch client.
	Drawable string
	// Glyph stands in for the icon in terminal previews.
	Glyph string
}

var catalog = []Definition{
	{
		ID:          Search,
		Name:        "Search",
		Description: "Opens contact search to start a new conversation.",
		Drawable:    "ic_search_24",
		Glyph:       "⌕",
	},
}

// Catalog returns a copy of the icon definitions.
func Catalog() []Definition {
	result := make([]Definition, len(catalog))
	copy(result, catalog)
	return result
}

// IDs returns every icon id in catalog order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, def := range catalog {
		ids = append(ids, def.ID)
	}
	return ids
}

// Lookup returns the definition for id.
func Lookup(id string) (Definition, bool) {
	id = strings.TrimSpace(id)
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Drawable returns the client drawable name for id.
func Drawable(id string) (string, bool) {
	def, ok := Lookup(id)
	if !ok {
		return "", false
	}
	return def.Drawable, true
}

// GlyphOrDefault returns a terminal glyph even when id is unknown.
func GlyphOrDefault(id string) string {
	if def, ok := Lookup(id); ok && def.Glyph != "" {
		return def.Glyph
	}
	return "?"
}

// CatalogMarkdown renders the icon catalog as markdown.
func CatalogMarkdown() string {
	var builder strings.Builder
	builder.WriteString("# Tile Icons\n\n")
	builder.WriteString("| Icon ID | Drawable | Name | Description |\n")
	builder.WriteString("| --- | --- | --- | --- |\n")
	for _, def := range catalog {
		builder.WriteString("| ")
		builder.WriteString(def.ID)
		builder.WriteString(" | ")
		builder.WriteString(def.Drawable)
		builder.WriteString(" | ")
		builder.WriteString(def.Name)
		builder.WriteString(" | ")
		builder.WriteString(def.Description)
		builder.WriteString(" |\n")
	}
	return builder.String()
}
