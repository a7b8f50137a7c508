// Package catalog describes the built-in image sets used when a contact has
// no avatar of its own, and picks stable defaults from them.
package catalog

import (
	"errors"
	"hash/fnv"
	"strings"
)

const defaultAlgorithm = "asset-default-v1"

var (
	ErrSetNotFound  = errors.New("asset set is not configured")
	ErrSetEmpty     = errors.New("asset set has no assets")
	ErrEntityID     = errors.New("entity id is required")
	ErrAssetInvalid = errors.New("asset id is invalid for set")
)

// Set defines one image set and its stable ordered assets.
type Set struct {
	ID       string
	AssetIDs []string
}

// Manifest lists the configured sets and their aliases.
type Manifest struct {
	ID           string
	DefaultSet   string
	Sets         map[string]Set
	SetAliases   map[string]string
	AssetAliases map[string]string
}

// NormalizeSetID resolves aliases and verifies configured set membership.
// An empty id selects the default set.
func (m Manifest) NormalizeSetID(raw string) (string, bool) {
	setID := strings.TrimSpace(raw)
	if setID == "" {
		setID = strings.TrimSpace(m.DefaultSet)
	}
	if canonical, ok := m.SetAliases[setID]; ok {
		setID = strings.TrimSpace(canonical)
	}
	_, ok := m.Sets[setID]
	return setID, ok && setID != ""
}

// NormalizeAssetID resolves aliases and trims whitespace.
func (m Manifest) NormalizeAssetID(raw string) string {
	assetID := strings.TrimSpace(raw)
	if canonical, ok := m.AssetAliases[assetID]; ok {
		assetID = strings.TrimSpace(canonical)
	}
	return assetID
}

// HasAsset reports whether assetID, after alias resolution, belongs to setID.
func (m Manifest) HasAsset(setID, assetID string) bool {
	canonicalSetID, ok := m.NormalizeSetID(setID)
	if !ok {
		return false
	}
	normalized := m.NormalizeAssetID(assetID)
	if normalized == "" {
		return false
	}
	for _, candidate := range m.Sets[canonicalSetID].AssetIDs {
		if candidate == normalized {
			return true
		}
	}
	return false
}

// DeterministicAsset chooses a stable asset from setID for entityID.
func (m Manifest) DeterministicAsset(setID, entityID string) (string, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return "", ErrEntityID
	}
	canonicalSetID, ok := m.NormalizeSetID(setID)
	if !ok {
		return "", ErrSetNotFound
	}
	set := m.Sets[canonicalSetID]
	if len(set.AssetIDs) == 0 {
		return "", ErrSetEmpty
	}
	index := stableIndex(len(set.AssetIDs), defaultAlgorithm, canonicalSetID, entityID)
	return set.AssetIDs[index], nil
}

// stableIndex hashes parts into [0, n).
func stableIndex(n int, parts ...string) int {
	hasher := fnv.New64a()
	for i, part := range parts {
		if i > 0 {
			_, _ = hasher.Write([]byte{0})
		}
		_, _ = hasher.Write([]byte(part))
	}
	return int(hasher.Sum64() % uint64(n))
}
