package tilectl

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/louisbranch/wear-tiles/internal/platform/assets/catalog"
	"github.com/louisbranch/wear-tiles/internal/platform/icons"
)

// writeCatalog prints the icon and built-in avatar catalogs as markdown.
func writeCatalog(out io.Writer) error {
	if _, err := io.WriteString(out, icons.CatalogMarkdown()); err != nil {
		return err
	}

	manifest := catalog.ContactAvatarManifest()
	if manifest.ID == "" {
		return fmt.Errorf("avatar catalog is unavailable")
	}
	var b strings.Builder
	b.WriteString("\n# Contact Avatars\n\n")
	fmt.Fprintf(&b, "Default set: `%s`\n\n", manifest.DefaultSet)
	b.WriteString("| Set | Assets | Sheet | Portraits |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	setIDs := make([]string, 0, len(manifest.Sets))
	for id := range manifest.Sets {
		setIDs = append(setIDs, id)
	}
	slices.Sort(setIDs)
	for _, setID := range setIDs {
		set := manifest.Sets[setID]
		sheet := "-"
		portraits := "-"
		if s, ok := catalog.AvatarSheetBySetID(setID); ok {
			sheet = fmt.Sprintf("%dx%d", s.WidthPX, s.HeightPX)
			portraits = fmt.Sprintf("%d", len(s.Slots()))
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", setID, strings.Join(set.AssetIDs, ", "), sheet, portraits)
	}
	_, err := io.WriteString(out, b.String())
	return err
}
