package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestKnownContactsAreValidAndCopied(t *testing.T) {
	t.Parallel()

	contacts := KnownContacts()
	if _, err := domain.NormalizeContacts(contacts); err != nil {
		t.Fatalf("known contacts invalid: %v", err)
	}
	if len(contacts) <= domain.DefaultDisplayLimit {
		t.Fatalf("known contacts = %d, want more than the display limit", len(contacts))
	}
	contacts[0].Name = "changed"
	if KnownContacts()[0].Name == "changed" {
		t.Fatal("KnownContacts exposed internal slice")
	}
}

func TestLoadFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: "contacts.yaml",
			body: "contacts:\n  - id: a\n    name: Ann\n    avatar: \"002\"\n  - id: b\n    name: Bo\n",
		},
		{
			name: "toml",
			file: "contacts.toml",
			body: "[[contacts]]\nid = \"a\"\nname = \"Ann\"\navatar = \"002\"\n\n[[contacts]]\nid = \"b\"\nname = \"Bo\"\n",
		},
		{
			name: "json",
			file: "contacts.json",
			body: `{"contacts":[{"id":"a","name":"Ann","avatar":"002"},{"id":"b","name":"Bo"}]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			contacts, err := Load(writeFile(t, tc.file, tc.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want := []domain.Contact{
				{ID: "a", Name: "Ann", AvatarSource: "002"},
				{ID: "b", Name: "Bo"},
			}
			if len(contacts) != len(want) {
				t.Fatalf("contacts = %+v, want %+v", contacts, want)
			}
			for i := range want {
				if contacts[i] != want[i] {
					t.Fatalf("contacts[%d] = %+v, want %+v", i, contacts[i], want[i])
				}
			}
		})
	}
}

func TestLoadGeneratesMissingIDs(t *testing.T) {
	t.Parallel()

	contacts, err := Load(writeFile(t, "contacts.yaml", "contacts:\n  - name: Ann\n  - name: Bo\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("contacts = %d, want 2", len(contacts))
	}
	if contacts[0].ID == "" || contacts[1].ID == "" || contacts[0].ID == contacts[1].ID {
		t.Fatalf("generated ids = %q, %q", contacts[0].ID, contacts[1].ID)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFile(t, "contacts.yaml", "contacts:\n  - id: a\n  - id: a\n"))
	if !errors.Is(err, domain.ErrDuplicateContactID) {
		t.Fatalf("Load error = %v, want duplicate id", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	if _, err := Load("  "); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("empty path error = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	contacts, err := Defaults("")
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if len(contacts) != len(knownContacts) {
		t.Fatalf("defaults = %d, want built-in list", len(contacts))
	}
	contacts, err = Defaults(writeFile(t, "c.json", `{"contacts":[{"id":"z"}]}`))
	if err != nil {
		t.Fatalf("Defaults file: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != "z" {
		t.Fatalf("defaults = %+v", contacts)
	}
}
