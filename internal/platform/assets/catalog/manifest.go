package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/contact_avatars.v1.json
var contactAvatarsJSON []byte

type manifestJSON struct {
	ID           string            `json:"id"`
	DefaultSet   string            `json:"default_set"`
	Sets         []setJSON         `json:"sets"`
	SetAliases   map[string]string `json:"set_aliases"`
	AssetAliases map[string]string `json:"asset_aliases"`
}

type setJSON struct {
	ID       string   `json:"id"`
	AssetIDs []string `json:"asset_ids"`
}

type avatarDocumentJSON struct {
	Manifest manifestJSON      `json:"manifest"`
	Sheets   []avatarSheetJSON `json:"sheets"`
}

type avatarSheetJSON struct {
	SetID     string               `json:"set_id"`
	WidthPX   int                  `json:"width_px"`
	HeightPX  int                  `json:"height_px"`
	Portraits []avatarPortraitJSON `json:"portraits"`
}

type avatarPortraitJSON struct {
	Slot     int `json:"slot"`
	X        int `json:"x"`
	Y        int `json:"y"`
	WidthPX  int `json:"width_px"`
	HeightPX int `json:"height_px"`
}

type avatarCatalog struct {
	manifest Manifest
	sheets   map[string]AvatarSheet
}

var loadAvatarCatalog = sync.OnceValues(func() (avatarCatalog, error) {
	return decodeAvatarCatalog(contactAvatarsJSON)
})

// Validate reports any error in the embedded avatar catalog.
func Validate() error {
	_, err := loadAvatarCatalog()
	return err
}

func decodeAvatarCatalog(raw []byte) (avatarCatalog, error) {
	var document avatarDocumentJSON
	if err := json.Unmarshal(raw, &document); err != nil {
		return avatarCatalog{}, fmt.Errorf("decode avatar catalog: %w", err)
	}

	manifest := Manifest{
		ID:           strings.TrimSpace(document.Manifest.ID),
		DefaultSet:   strings.TrimSpace(document.Manifest.DefaultSet),
		Sets:         make(map[string]Set, len(document.Manifest.Sets)),
		SetAliases:   document.Manifest.SetAliases,
		AssetAliases: document.Manifest.AssetAliases,
	}
	for _, set := range document.Manifest.Sets {
		setID := strings.TrimSpace(set.ID)
		if setID == "" {
			return avatarCatalog{}, fmt.Errorf("decode avatar catalog: set id is required")
		}
		if _, exists := manifest.Sets[setID]; exists {
			return avatarCatalog{}, fmt.Errorf("decode avatar catalog: duplicate set %q", setID)
		}
		manifest.Sets[setID] = Set{ID: setID, AssetIDs: append([]string(nil), set.AssetIDs...)}
	}
	if _, ok := manifest.NormalizeSetID(""); !ok {
		return avatarCatalog{}, fmt.Errorf("decode avatar catalog: default set %q is not configured", manifest.DefaultSet)
	}

	sheets := make(map[string]AvatarSheet, len(document.Sheets))
	for _, sheet := range document.Sheets {
		setID := strings.TrimSpace(sheet.SetID)
		if _, ok := manifest.Sets[setID]; !ok {
			return avatarCatalog{}, fmt.Errorf("decode avatar catalog: sheet for unknown set %q", setID)
		}
		portraits := make(map[int]AvatarPortrait, len(sheet.Portraits))
		for _, portrait := range sheet.Portraits {
			if portrait.X+portrait.WidthPX > sheet.WidthPX || portrait.Y+portrait.HeightPX > sheet.HeightPX {
				return avatarCatalog{}, fmt.Errorf("decode avatar catalog: portrait %d exceeds sheet %q", portrait.Slot, setID)
			}
			portraits[portrait.Slot] = AvatarPortrait(portrait)
		}
		sheets[setID] = AvatarSheet{WidthPX: sheet.WidthPX, HeightPX: sheet.HeightPX, Portraits: portraits}
	}
	return avatarCatalog{manifest: manifest, sheets: sheets}, nil
}
