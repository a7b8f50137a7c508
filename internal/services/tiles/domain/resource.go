package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/wear-tiles/internal/platform/icons"
)

// ContactResourcePrefix marks resource ids that name a contact avatar.
const ContactResourcePrefix = "contact:"

// IconName identifies one static tile icon.
type IconName string

// IconSearch is the search action icon shown next to the avatars.
const IconSearch IconName = icons.Search

// DefaultIcons lists the static icons every tile references.
var DefaultIcons = []IconName{IconSearch}

var (
	// ErrResourceIDRequired indicates an empty resource id.
	ErrResourceIDRequired = errors.New("resource id is required")
	// ErrInvalidResourceID indicates a resource id that cannot be parsed.
	ErrInvalidResourceID = errors.New("invalid resource id")
)

// ResourceKind discriminates resource identifiers.
type ResourceKind int

const (
	// ResourceKindUnspecified is the zero kind.
	ResourceKindUnspecified ResourceKind = iota
	// ResourceKindIcon names a static icon.
	ResourceKindIcon
	// ResourceKindContactAvatar names the avatar of one contact.
	ResourceKindContactAvatar
)

// ResourceID names one image resource a tile layout refers to.
type ResourceID struct {
	Kind ResourceKind
	// Name is the icon name or the contact id depending on Kind.
	Name string
}

// Icon builds the resource id of a static icon.
func Icon(name IconName) ResourceID {
	return ResourceID{Kind: ResourceKindIcon, Name: string(name)}
}

// ContactAvatar builds the resource id of a contact avatar.
func ContactAvatar(contactID string) ResourceID {
	return ResourceID{Kind: ResourceKindContactAvatar, Name: contactID}
}

// String returns the wire form of the id.
func (id ResourceID) String() string {
	switch id.Kind {
	case ResourceKindContactAvatar:
		return ContactResourcePrefix + id.Name
	case ResourceKindIcon:
		return id.Name
	default:
		return ""
	}
}

// ParseResourceID reads the wire form produced by ResourceID.String.
func ParseResourceID(raw string) (ResourceID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ResourceID{}, ErrResourceIDRequired
	}
	if contactID, ok := strings.CutPrefix(raw, ContactResourcePrefix); ok {
		if strings.TrimSpace(contactID) == "" {
			return ResourceID{}, fmt.Errorf("%w: %q has no contact id", ErrInvalidResourceID, raw)
		}
		return ContactAvatar(contactID), nil
	}
	if !validIconName(raw) {
		return ResourceID{}, fmt.Errorf("%w: %q", ErrInvalidResourceID, raw)
	}
	return Icon(IconName(raw)), nil
}

// ParseResourceIDs parses every raw id. Ids that do not parse are kept as
// unspecified resources, which match nothing, so the request still names
// only what the caller asked for.
func ParseResourceIDs(raw []string) []ResourceID {
	ids := make([]ResourceID, 0, len(raw))
	for _, value := range raw {
		id, err := ParseResourceID(value)
		if err != nil {
			id = ResourceID{Kind: ResourceKindUnspecified, Name: value}
		}
		ids = append(ids, id)
	}
	return ids
}

func validIconName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// ResourceRequest asks for the images a rendered tile refers to.
// An empty IDs list means every resource of the current state.
type ResourceRequest struct {
	Version string
	IDs     []ResourceID
}

// All reports whether the request asks for every resource.
func (r ResourceRequest) All() bool {
	return len(r.IDs) == 0
}

// Names reports whether the request asks for id.
func (r ResourceRequest) Names(id ResourceID) bool {
	if r.All() {
		return true
	}
	for _, candidate := range r.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// Image is a display-ready image encoded for transport.
type Image struct {
	Format   string
	WidthPX  int
	HeightPX int
	Data     []byte
}

// Resolution holds the resources produced for one request.
type Resolution struct {
	Icons   []IconName
	Avatars map[Contact]Image
}
