package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDisplayLimit is the number of favorite contacts shown on a tile.
const DefaultDisplayLimit = 4

var (
	// ErrContactIDRequired indicates a contact without an identifier.
	ErrContactIDRequired = errors.New("contact id is required")
	// ErrDuplicateContactID indicates two contacts sharing one identifier.
	ErrDuplicateContactID = errors.New("duplicate contact id")
)

// Contact is one favorite messaging contact.
//
// AvatarSource is optional and may hold an absolute image URL or an asset id
// from the avatar catalog.
type Contact struct {
	ID           string
	Name         string
	AvatarSource string
}

// TileState is the snapshot of favorites the tile renders from.
type TileState struct {
	Contacts []Contact
}

// Clone returns a copy whose contact slice can be modified freely.
func (s TileState) Clone() TileState {
	return TileState{Contacts: cloneContacts(s.Contacts)}
}

// Empty reports whether the state holds no contacts.
func (s TileState) Empty() bool {
	return len(s.Contacts) == 0
}

// Contact looks up a displayed contact by id.
func (s TileState) Contact(id string) (Contact, bool) {
	for _, contact := range s.Contacts {
		if contact.ID == id {
			return contact, true
		}
	}
	return Contact{}, false
}

// Equal reports whether two states display the same contacts in the same order.
func (s TileState) Equal(other TileState) bool {
	if len(s.Contacts) != len(other.Contacts) {
		return false
	}
	for i := range s.Contacts {
		if s.Contacts[i] != other.Contacts[i] {
			return false
		}
	}
	return true
}

// NewTileState keeps the first limit favorites in their original order.
func NewTileState(favorites []Contact, limit int) TileState {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	if len(favorites) > limit {
		favorites = favorites[:limit]
	}
	return TileState{Contacts: cloneContacts(favorites)}
}

// NormalizeContacts trims contact fields and rejects missing or repeated ids.
func NormalizeContacts(contacts []Contact) ([]Contact, error) {
	normalized := make([]Contact, 0, len(contacts))
	seen := make(map[string]struct{}, len(contacts))
	for _, contact := range contacts {
		contact.ID = strings.TrimSpace(contact.ID)
		contact.Name = strings.TrimSpace(contact.Name)
		contact.AvatarSource = strings.TrimSpace(contact.AvatarSource)
		if contact.ID == "" {
			return nil, ErrContactIDRequired
		}
		if _, ok := seen[contact.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContactID, contact.ID)
		}
		seen[contact.ID] = struct{}{}
		normalized = append(normalized, contact)
	}
	return normalized, nil
}

func cloneContacts(contacts []Contact) []Contact {
	if contacts == nil {
		return []Contact{}
	}
	out := make([]Contact, len(contacts))
	copy(out, contacts)
	return out
}
