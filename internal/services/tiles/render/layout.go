package render

// ElementKind names one layout element type understood by the watch client.
type ElementKind string

const (
	KindPrimaryLayout ElementKind = "primary_layout"
	KindColumn        ElementKind = "column"
	KindRow           ElementKind = "row"
	KindSpacer        ElementKind = "spacer"
	KindTitleChip     ElementKind = "title_chip"
	KindCompactChip   ElementKind = "compact_chip"
	KindImageButton   ElementKind = "image_button"
)

// Color is an ARGB color.
type Color uint32

// Tile palette.
const (
	Yellow     Color = 0xFFFDD835
	DarkYellow Color = 0xFFC6A700
	Black      Color = 0xFF000000
	White      Color = 0xFFFFFFFF
)

// Spacing between contact buttons, in dp.
const (
	SpacingContactsHorizontalDP = 8
	SpacingContactsVerticalDP   = 4
)

// buttonsPerRow bounds how many round buttons share one row.
const buttonsPerRow = 3

// ChipColors pairs a chip background with its content color.
type ChipColors struct {
	Background Color `json:"background"`
	Content    Color `json:"content"`
}

// LoadAction asks the client to reload the tile.
type LoadAction struct{}

// Clickable makes an element tappable.
type Clickable struct {
	ID     string     `json:"id"`
	OnLoad LoadAction `json:"on_click"`
}

// emptyClickable reloads the tile without naming a target.
var emptyClickable = Clickable{}

// Element is one node of a tile layout tree.
type Element struct {
	Kind        ElementKind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	Description string      `json:"content_description,omitempty"`
	ResourceID  string      `json:"resource_id,omitempty"`
	Colors      *ChipColors `json:"colors,omitempty"`
	Clickable   *Clickable  `json:"clickable,omitempty"`
	WidthDP     float64     `json:"width_dp,omitempty"`
	HeightDP    float64     `json:"height_dp,omitempty"`
	// Content and PrimaryChip are only set on primary layouts.
	Content     *Element  `json:"content,omitempty"`
	PrimaryChip *Element  `json:"primary_chip,omitempty"`
	Children    []Element `json:"children,omitempty"`
}

func spacer(widthDP, heightDP float64) Element {
	return Element{Kind: KindSpacer, WidthDP: widthDP, HeightDP: heightDP}
}

func clickable() *Clickable {
	c := emptyClickable
	return &c
}
