// Package render turns tile state into the layout and resource payloads the
// watch client draws.
package render

import (
	"encoding/hex"
	"hash/fnv"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/louisbranch/wear-tiles/internal/platform/icons"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
)

const (
	defaultStartLabel  = "Start"
	defaultNewLabel    = "New"
	defaultSearchLabel = "Search contacts"
	defaultUnnamed     = "Contact"
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// DeviceParams describes the requesting screen.
type DeviceParams struct {
	ScreenWidthDP  int     `json:"screen_width_dp"`
	ScreenHeightDP int     `json:"screen_height_dp"`
	ScreenDensity  float64 `json:"screen_density"`
	Round          bool    `json:"round"`
}

// Tile is one rendered tile.
type Tile struct {
	ResourcesVersion string `json:"resources_version"`
	// FreshnessIntervalMillis is zero when the tile only changes on request.
	FreshnessIntervalMillis int64   `json:"freshness_interval_millis"`
	Layout                  Element `json:"layout"`
}

// Renderer builds tiles.
type Renderer struct {
	freshness time.Duration
}

// NewRenderer returns a renderer whose tiles ask to be refreshed after
// freshness. Zero leaves refreshes to explicit update requests.
func NewRenderer(freshness time.Duration) Renderer {
	if freshness < 0 {
		freshness = 0
	}
	return Renderer{freshness: freshness}
}

// RenderTile lays out state for one device.
func (r Renderer) RenderTile(loc Localizer, state domain.TileState, params DeviceParams) Tile {
	layout := Element{
		Kind:        KindPrimaryLayout,
		PrimaryChip: newChip(loc),
	}
	if state.Empty() {
		layout.Content = startChip(loc)
	} else {
		layout.Content = contactGrid(loc, state, params)
	}
	return Tile{
		ResourcesVersion:        ResourcesVersion(state),
		FreshnessIntervalMillis: r.freshness.Milliseconds(),
		Layout:                  layout,
	}
}

func startChip(loc Localizer) *Element {
	return &Element{
		Kind:      KindTitleChip,
		Text:      localizeWithFallback(loc, "tile.chip.start", defaultStartLabel),
		Colors:    &ChipColors{Background: Yellow, Content: Black},
		Clickable: clickable(),
	}
}

func newChip(loc Localizer) *Element {
	return &Element{
		Kind:      KindCompactChip,
		Text:      localizeWithFallback(loc, "tile.chip.new", defaultNewLabel),
		Colors:    &ChipColors{Background: DarkYellow, Content: White},
		Clickable: clickable(),
	}
}

// contactGrid places one button per contact plus the search button in rows.
func contactGrid(loc Localizer, state domain.TileState, params DeviceParams) *Element {
	buttonDP := buttonSizeDP(params)
	buttons := make([]Element, 0, len(state.Contacts)+1)
	for _, contact := range state.Contacts {
		buttons = append(buttons, Element{
			Kind:        KindImageButton,
			ResourceID:  domain.ContactAvatar(contact.ID).String(),
			Description: contactDescription(loc, contact),
			WidthDP:     buttonDP,
			HeightDP:    buttonDP,
			Clickable:   clickable(),
		})
	}
	buttons = append(buttons, Element{
		Kind:        KindImageButton,
		ResourceID:  domain.Icon(domain.IconSearch).String(),
		Description: localizeWithFallback(loc, "tile.search.description", defaultSearchLabel),
		WidthDP:     buttonDP,
		HeightDP:    buttonDP,
		Clickable:   clickable(),
	})

	column := Element{Kind: KindColumn}
	for start := 0; start < len(buttons); start += buttonsPerRow {
		if start > 0 {
			column.Children = append(column.Children, spacer(0, SpacingContactsVerticalDP))
		}
		row := Element{Kind: KindRow}
		for i, button := range buttons[start:min(start+buttonsPerRow, len(buttons))] {
			if i > 0 {
				row.Children = append(row.Children, spacer(SpacingContactsHorizontalDP, 0))
			}
			row.Children = append(row.Children, button)
		}
		column.Children = append(column.Children, row)
	}
	return &column
}

// buttonSizeDP shrinks buttons on small screens so a full row still fits.
func buttonSizeDP(params DeviceParams) float64 {
	const standard = 48
	width := params.ScreenWidthDP
	if width <= 0 {
		return standard
	}
	usable := float64(width)*0.75 - float64(SpacingContactsHorizontalDP*(buttonsPerRow-1))
	return min(standard, usable/buttonsPerRow)
}

func contactDescription(loc Localizer, contact domain.Contact) string {
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		name = localizeWithFallback(loc, "tile.contact.unnamed", defaultUnnamed)
	}
	description := strings.TrimSpace(localize(loc, "tile.contact.description", name))
	if description == "" || description == "tile.contact.description" {
		return name
	}
	return description
}

// ResourcesVersion fingerprints the displayed contacts. It changes whenever
// the set of images a tile references may change.
func ResourcesVersion(state domain.TileState) string {
	hasher := fnv.New64a()
	for _, contact := range state.Contacts {
		_, _ = hasher.Write([]byte(contact.ID))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.Write([]byte(contact.AvatarSource))
		_, _ = hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// ImageResource is either a drawable bundled with the client or an inline
// image.
type ImageResource struct {
	Drawable string       `json:"drawable,omitempty"`
	Inline   *InlineImage `json:"inline,omitempty"`
}

// InlineImage carries encoded image bytes.
type InlineImage struct {
	Format   string `json:"format"`
	WidthPX  int    `json:"width_px"`
	HeightPX int    `json:"height_px"`
	Data     []byte `json:"data"`
}

// Resources maps resource ids to images for one version.
type Resources struct {
	Version string                   `json:"version"`
	Images  map[string]ImageResource `json:"images"`
}

// ProduceResources packages a resolution for the client. Icons map to
// bundled drawables; avatars are sent inline under contact:<id>.
func ProduceResources(version string, resolution domain.Resolution) Resources {
	images := make(map[string]ImageResource, len(resolution.Icons)+len(resolution.Avatars))
	for _, icon := range resolution.Icons {
		drawable, ok := icons.Drawable(string(icon))
		if !ok {
			continue
		}
		images[domain.Icon(icon).String()] = ImageResource{Drawable: drawable}
	}
	for contact, image := range resolution.Avatars {
		images[domain.ContactAvatar(contact.ID).String()] = ImageResource{Inline: &InlineImage{
			Format:   image.Format,
			WidthPX:  image.WidthPX,
			HeightPX: image.HeightPX,
			Data:     image.Data,
		}}
	}
	return Resources{Version: version, Images: images}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
