// Package preview draws rendered tiles in a terminal.
package preview

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/louisbranch/wear-tiles/internal/platform/icons"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
)

// Options supplies what a tile layout does not carry itself.
type Options struct {
	// Names maps contact ids to display names for avatar initials.
	Names map[string]string
	// Loaded marks resource ids whose images were delivered. Nil treats every
	// resource as loaded.
	Loaded map[string]bool
}

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#585b70")).
			Padding(1, 2)
	avatarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(4).
			Align(lipgloss.Center)
	missingStyle = avatarStyle.
			BorderForeground(lipgloss.Color("#6c7086")).
			Foreground(lipgloss.Color("#6c7086"))
	chipStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)
)

// Render draws tile as a framed block of text.
func Render(tile render.Tile, opts Options) string {
	return frameStyle.Render(renderElement(tile.Layout, opts))
}

func renderElement(el render.Element, opts Options) string {
	switch el.Kind {
	case render.KindPrimaryLayout:
		var parts []string
		if el.Content != nil {
			parts = append(parts, renderElement(*el.Content, opts))
		}
		if el.PrimaryChip != nil {
			parts = append(parts, "", renderElement(*el.PrimaryChip, opts))
		}
		return lipgloss.JoinVertical(lipgloss.Center, parts...)
	case render.KindColumn:
		parts := make([]string, 0, len(el.Children))
		for _, child := range el.Children {
			parts = append(parts, renderElement(child, opts))
		}
		return lipgloss.JoinVertical(lipgloss.Center, parts...)
	case render.KindRow:
		parts := make([]string, 0, len(el.Children))
		for _, child := range el.Children {
			parts = append(parts, renderElement(child, opts))
		}
		return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	case render.KindSpacer:
		if el.WidthDP > 0 {
			return " "
		}
		return ""
	case render.KindTitleChip, render.KindCompactChip:
		style := chipStyle
		if el.Colors != nil {
			style = style.
				Background(lipgloss.Color(Hex(el.Colors.Background))).
				Foreground(lipgloss.Color(Hex(el.Colors.Content)))
		}
		return style.Render(el.Text)
	case render.KindImageButton:
		return renderButton(el, opts)
	default:
		return el.Text
	}
}

func renderButton(el render.Element, opts Options) string {
	style := avatarStyle
	if opts.Loaded != nil && !opts.Loaded[el.ResourceID] {
		style = missingStyle
	}
	id, err := domain.ParseResourceID(el.ResourceID)
	if err != nil {
		return style.Render("?")
	}
	if id.Kind == domain.ResourceKindIcon {
		return style.Render(icons.GlyphOrDefault(id.Name))
	}
	name := opts.Names[id.Name]
	if strings.TrimSpace(name) == "" {
		name = id.Name
	}
	return style.Render(Initials(name))
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r := []rune(word)[0]
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// Hex formats an ARGB color as #RRGGBB.
func Hex(c render.Color) string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}
