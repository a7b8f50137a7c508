package render

import (
	"fmt"
	"testing"
	"time"

	"golang.org/x/text/message"

	"github.com/louisbranch/wear-tiles/internal/platform/i18n/catalog"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
)

type fakeLocalizer struct {
	values map[string]string
}

func (f fakeLocalizer) Sprintf(key message.Reference, args ...any) string {
	asString, ok := key.(string)
	if !ok {
		return ""
	}
	template := f.values[asString]
	if template == "" {
		return asString
	}
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}

func stateOf(ids ...string) domain.TileState {
	contacts := make([]domain.Contact, 0, len(ids))
	for _, id := range ids {
		contacts = append(contacts, domain.Contact{ID: id, Name: "Contact " + id})
	}
	return domain.TileState{Contacts: contacts}
}

// buttons flattens the image buttons of a contact grid in order.
func buttons(t *testing.T, layout Element) []Element {
	t.Helper()
	if layout.Content == nil || layout.Content.Kind != KindColumn {
		t.Fatalf("expected column content, got %+v", layout.Content)
	}
	var out []Element
	for _, row := range layout.Content.Children {
		for _, child := range row.Children {
			if child.Kind == KindImageButton {
				out = append(out, child)
			}
		}
	}
	return out
}

func TestRenderEmptyStateShowsStartAndNewChips(t *testing.T) {
	t.Parallel()

	tile := NewRenderer(0).RenderTile(nil, domain.TileState{}, DeviceParams{})
	layout := tile.Layout
	if layout.Kind != KindPrimaryLayout {
		t.Fatalf("expected primary layout, got %s", layout.Kind)
	}
	if layout.Content == nil || layout.Content.Kind != KindTitleChip || layout.Content.Text != "Start" {
		t.Fatalf("unexpected content %+v", layout.Content)
	}
	if *layout.Content.Colors != (ChipColors{Background: Yellow, Content: Black}) {
		t.Fatalf("unexpected start colors %+v", layout.Content.Colors)
	}
	chip := layout.PrimaryChip
	if chip == nil || chip.Kind != KindCompactChip || chip.Text != "New" {
		t.Fatalf("unexpected primary chip %+v", chip)
	}
	if *chip.Colors != (ChipColors{Background: DarkYellow, Content: White}) {
		t.Fatalf("unexpected new colors %+v", chip.Colors)
	}
	if chip.Clickable == nil || chip.Clickable.ID != "" {
		t.Fatalf("expected empty clickable, got %+v", chip.Clickable)
	}
}

func TestRenderContactsReferencesAvatarsAndSearch(t *testing.T) {
	t.Parallel()

	loc := fakeLocalizer{values: map[string]string{"tile.contact.description": "Message %s"}}
	tile := NewRenderer(time.Minute).RenderTile(loc, stateOf("a", "b", "c", "d"), DeviceParams{ScreenWidthDP: 192})

	got := buttons(t, tile.Layout)
	want := []string{"contact:a", "contact:b", "contact:c", "contact:d", "ic_search"}
	if len(got) != len(want) {
		t.Fatalf("expected %d buttons, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ResourceID != id {
			t.Fatalf("button %d = %q, want %q", i, got[i].ResourceID, id)
		}
	}
	if got[0].Description != "Message Contact a" {
		t.Fatalf("unexpected description %q", got[0].Description)
	}
	if got[4].Description != "Search contacts" {
		t.Fatalf("expected search fallback label, got %q", got[4].Description)
	}
	if rows := len(tile.Layout.Content.Children); rows != 3 {
		t.Fatalf("expected two rows and a spacer, got %d children", rows)
	}
	if tile.FreshnessIntervalMillis != time.Minute.Milliseconds() {
		t.Fatalf("unexpected freshness %d", tile.FreshnessIntervalMillis)
	}
}

func TestRenderUsesCatalogTranslations(t *testing.T) {
	t.Parallel()

	printer := catalog.Default().Printer("pt-BR")
	tile := NewRenderer(0).RenderTile(printer, domain.TileState{}, DeviceParams{})
	if tile.Layout.Content.Text != "Iniciar" {
		t.Fatalf("expected pt-BR start label, got %q", tile.Layout.Content.Text)
	}
	if tile.Layout.PrimaryChip.Text != "Nova" {
		t.Fatalf("expected pt-BR new label, got %q", tile.Layout.PrimaryChip.Text)
	}
}

func TestResourcesVersionTracksContacts(t *testing.T) {
	t.Parallel()

	first := ResourcesVersion(stateOf("a", "b"))
	if first != ResourcesVersion(stateOf("a", "b")) {
		t.Fatal("expected stable version")
	}
	if first == ResourcesVersion(stateOf("b", "a")) {
		t.Fatal("expected order to change the version")
	}
	changed := stateOf("a", "b")
	changed.Contacts[0].AvatarSource = "002"
	if first == ResourcesVersion(changed) {
		t.Fatal("expected avatar source to change the version")
	}
}

func TestButtonSizeShrinksOnSmallScreens(t *testing.T) {
	if got := buttonSizeDP(DeviceParams{}); got != 48 {
		t.Fatalf("expected default size, got %v", got)
	}
	if got := buttonSizeDP(DeviceParams{ScreenWidthDP: 160}); got >= 48 {
		t.Fatalf("expected smaller buttons, got %v", got)
	}
}

func TestProduceResources(t *testing.T) {
	t.Parallel()

	b := domain.Contact{ID: "b"}
	resources := ProduceResources("v1", domain.Resolution{
		Icons:   []domain.IconName{domain.IconSearch, "ic_unknown"},
		Avatars: map[domain.Contact]domain.Image{b: {Format: "png", WidthPX: 48, HeightPX: 48, Data: []byte("b")}},
	})
	if resources.Version != "v1" {
		t.Fatalf("unexpected version %q", resources.Version)
	}
	if len(resources.Images) != 2 {
		t.Fatalf("expected icon and avatar, got %+v", resources.Images)
	}
	if got := resources.Images["ic_search"].Drawable; got != "ic_search_24" {
		t.Fatalf("unexpected drawable %q", got)
	}
	inline := resources.Images["contact:b"].Inline
	if inline == nil || string(inline.Data) != "b" || inline.WidthPX != 48 {
		t.Fatalf("unexpected avatar resource %+v", inline)
	}
}
