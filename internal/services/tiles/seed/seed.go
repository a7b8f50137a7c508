// Package seed provides the contacts written when the favorites list is empty.
package seed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/wear-tiles/internal/platform/id"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/spf13/viper"
)

// ErrPathRequired indicates Load was called without a file path.
var ErrPathRequired = errors.New("contacts file path is required")

var knownContacts = []domain.Contact{
	{ID: "1", Name: "Ali C", AvatarSource: "001"},
	{ID: "2", Name: "Taylor B", AvatarSource: "002"},
	{ID: "3", Name: "Alyssa P", AvatarSource: "003"},
	{ID: "4", Name: "Cami C", AvatarSource: "004"},
	{ID: "5", Name: "Jordan M", AvatarSource: "005"},
	{ID: "6", Name: "Sam R", AvatarSource: "006"},
}

// KnownContacts returns the built-in default favorites.
func KnownContacts() []domain.Contact {
	return append([]domain.Contact(nil), knownContacts...)
}

type contactFile struct {
	ID     string `mapstructure:"id"`
	Name   string `mapstructure:"name"`
	Avatar string `mapstructure:"avatar"`
}

// Load reads a contacts list from a YAML, TOML or JSON file.
//
// The file holds a top-level "contacts" list. Entries without an id get a
// generated one.
func Load(path string) ([]domain.Contact, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}
	var entries []contactFile
	if err := v.UnmarshalKey("contacts", &entries); err != nil {
		return nil, fmt.Errorf("decode contacts file: %w", err)
	}
	contacts := make([]domain.Contact, 0, len(entries))
	for _, entry := range entries {
		contactID := strings.TrimSpace(entry.ID)
		if contactID == "" {
			generated, err := id.NewID()
			if err != nil {
				return nil, fmt.Errorf("generate contact id: %w", err)
			}
			contactID = generated
		}
		contacts = append(contacts, domain.Contact{
			ID:           contactID,
			Name:         entry.Name,
			AvatarSource: entry.Avatar,
		})
	}
	normalized, err := domain.NormalizeContacts(contacts)
	if err != nil {
		return nil, fmt.Errorf("contacts file %s: %w", path, err)
	}
	return normalized, nil
}

// Defaults returns the contacts from path, or the built-in list when path is empty.
func Defaults(path string) ([]domain.Contact, error) {
	if strings.TrimSpace(path) == "" {
		return KnownContacts(), nil
	}
	return Load(path)
}
