// Package catalog loads the embedded message catalogs and registers them with
// golang.org/x/text/message.
//
// Catalog files live at locales/<locale>/<namespace>.yaml. Each file names its
// locale and namespace, which must match its path, and holds a flat map of
// message keys. Keys are unique per locale across namespaces.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseLocale is the source locale every other catalog falls back to.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	namespaces map[string]map[string]string
	messages   map[string]string
}

// Bundle holds every loaded locale catalog.
type Bundle struct {
	locales map[string]*localeCatalog
	tags    []language.Tag
	matcher language.Matcher
}

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

var loadDefault = sync.OnceValues(func() (*Bundle, error) {
	bundle, err := LoadFromFS(embeddedFS)
	if err != nil {
		return nil, err
	}
	return bundle, bundle.Register()
})

// Default returns the embedded bundle, registered with x/text on first use.
func Default() *Bundle {
	bundle, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("load embedded catalogs: %v", err))
	}
	return bundle
}

// LoadFromFS loads locales/*/*.yaml from catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]*localeCatalog{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.addFile(p, file); err != nil {
			return nil, err
		}
	}
	if !bundle.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale leads so the matcher falls back to it.
	base := language.MustParse(BaseLocale)
	bundle.tags = []language.Tag{base}
	for _, locale := range bundle.Locales() {
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		bundle.tags = append(bundle.tags, tag)
	}
	bundle.matcher = language.NewMatcher(bundle.tags)
	return bundle, nil
}

func (b *Bundle) addFile(p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	namespace := strings.TrimSpace(file.Namespace)
	if namespace != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename %q", p, namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages are required", p)
	}

	catalog, ok := b.locales[locale]
	if !ok {
		catalog = &localeCatalog{namespaces: map[string]map[string]string{}, messages: map[string]string{}}
		b.locales[locale] = catalog
	}
	if _, exists := catalog.namespaces[namespace]; exists {
		return fmt.Errorf("catalog %s: namespace %q already defined for %q", p, namespace, locale)
	}
	namespaceMessages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, exists := catalog.messages[key]; exists {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		catalog.messages[key] = value
		namespaceMessages[key] = value
	}
	catalog.namespaces[namespace] = namespaceMessages
	return nil
}

// Register adds every message to the x/text default catalog, under both the
// full locale tag and its base language.
func (b *Bundle) Register() error {
	for _, tag := range b.tags {
		tags := []language.Tag{tag}
		if base, confidence := tag.Base(); confidence != language.No {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag != tag {
				tags = append(tags, baseTag)
			}
		}
		for key, value := range b.locales[tag.String()].messages {
			for _, registerTag := range tags {
				if err := message.SetString(registerTag, key, value); err != nil {
					return fmt.Errorf("register %s %q: %w", registerTag, key, err)
				}
			}
		}
	}
	return nil
}

// HasLocale reports whether locale has a catalog.
func (b *Bundle) HasLocale(locale string) bool {
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Match picks the closest loaded locale for a requested one, such as an
// Accept-Language header value.
func (b *Bundle) Match(requested string) string {
	tag, index := language.MatchStrings(b.matcher, strings.TrimSpace(requested))
	if index >= 0 && index < len(b.tags) {
		return b.tags[index].String()
	}
	return tag.String()
}

// Printer returns a message printer for the closest loaded locale.
func (b *Bundle) Printer(requested string) *message.Printer {
	return message.NewPrinter(language.MustParse(b.Match(requested)))
}

// Message returns one message with base-locale fallback.
func (b *Bundle) Message(locale string, key string) (string, bool) {
	if catalog, ok := b.locales[strings.TrimSpace(locale)]; ok {
		if value, exists := catalog.messages[key]; exists {
			return value, true
		}
	}
	value, ok := b.locales[BaseLocale].messages[key]
	return value, ok
}

// NamespaceMessages returns a copy of one namespace's messages for a locale.
func (b *Bundle) NamespaceMessages(locale string, namespace string) map[string]string {
	catalog, ok := b.locales[strings.TrimSpace(locale)]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(catalog.namespaces[namespace]))
	for key, value := range catalog.namespaces[namespace] {
		out[key] = value
	}
	return out
}
