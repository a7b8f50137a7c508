package catalog

import (
	"sort"
	"strings"
)

// ContactAvatarSetV1 is the built-in contact avatar sprite set.
const ContactAvatarSetV1 = "contact_avatars_v1"

const portraitAlgorithm = "contact-portrait-v1"

// AvatarPortrait defines one crop region inside an avatar sprite sheet.
type AvatarPortrait struct {
	Slot     int
	X        int
	Y        int
	WidthPX  int
	HeightPX int
}

// AvatarSheet defines dimensions and portrait slices for one avatar set.
type AvatarSheet struct {
	WidthPX   int
	HeightPX  int
	Portraits map[int]AvatarPortrait
}

// Slots returns the portrait slots in ascending order.
func (s AvatarSheet) Slots() []int {
	slots := make([]int, 0, len(s.Portraits))
	for slot := range s.Portraits {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	return slots
}

// ContactAvatar is a resolved built-in avatar: one sheet asset plus the
// portrait to crop out of it.
type ContactAvatar struct {
	SetID    string
	AssetID  string
	Portrait AvatarPortrait
}

// ContactAvatarManifest returns a copy of the built-in contact avatar manifest.
func ContactAvatarManifest() Manifest {
	loaded, err := loadAvatarCatalog()
	if err != nil {
		return Manifest{}
	}
	return copyManifest(loaded.manifest)
}

// AvatarSheetBySetID returns sprite-sheet metadata for one set id.
func AvatarSheetBySetID(setID string) (AvatarSheet, bool) {
	loaded, err := loadAvatarCatalog()
	if err != nil {
		return AvatarSheet{}, false
	}
	canonicalSetID, ok := loaded.manifest.NormalizeSetID(setID)
	if !ok {
		return AvatarSheet{}, false
	}
	sheet, ok := loaded.sheets[canonicalSetID]
	if !ok {
		return AvatarSheet{}, false
	}
	return copyAvatarSheet(sheet), true
}

// ResolveContactAvatar picks the built-in avatar for a contact. An empty source
// selects a stable asset from the default set; otherwise source must name an
// asset (or alias) in that set. The portrait slot is always derived from the
// contact id so the same contact keeps the same face.
func ResolveContactAvatar(source, contactID string) (ContactAvatar, error) {
	contactID = strings.TrimSpace(contactID)
	if contactID == "" {
		return ContactAvatar{}, ErrEntityID
	}
	loaded, err := loadAvatarCatalog()
	if err != nil {
		return ContactAvatar{}, err
	}
	manifest := loaded.manifest
	setID, ok := manifest.NormalizeSetID("")
	if !ok {
		return ContactAvatar{}, ErrSetNotFound
	}

	var assetID string
	if strings.TrimSpace(source) == "" {
		assetID, err = manifest.DeterministicAsset(setID, contactID)
		if err != nil {
			return ContactAvatar{}, err
		}
	} else {
		if !manifest.HasAsset(setID, source) {
			return ContactAvatar{}, ErrAssetInvalid
		}
		assetID = manifest.NormalizeAssetID(source)
	}

	selection := ContactAvatar{SetID: setID, AssetID: assetID}
	sheet, ok := loaded.sheets[setID]
	if !ok || len(sheet.Portraits) == 0 {
		return selection, nil
	}
	slots := sheet.Slots()
	slot := slots[stableIndex(len(slots), portraitAlgorithm, setID, contactID)]
	selection.Portrait = sheet.Portraits[slot]
	return selection, nil
}

func copyManifest(source Manifest) Manifest {
	out := Manifest{
		ID:           source.ID,
		DefaultSet:   source.DefaultSet,
		Sets:         make(map[string]Set, len(source.Sets)),
		SetAliases:   make(map[string]string, len(source.SetAliases)),
		AssetAliases: make(map[string]string, len(source.AssetAliases)),
	}
	for id, set := range source.Sets {
		out.Sets[id] = Set{ID: set.ID, AssetIDs: append([]string(nil), set.AssetIDs...)}
	}
	for alias, canonical := range source.SetAliases {
		out.SetAliases[alias] = canonical
	}
	for alias, canonical := range source.AssetAliases {
		out.AssetAliases[alias] = canonical
	}
	return out
}

func copyAvatarSheet(source AvatarSheet) AvatarSheet {
	out := AvatarSheet{
		WidthPX:   source.WidthPX,
		HeightPX:  source.HeightPX,
		Portraits: make(map[int]AvatarPortrait, len(source.Portraits)),
	}
	for slot, portrait := range source.Portraits {
		out.Portraits[slot] = portrait
	}
	return out
}
