package categories

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tablemoney/moneybot/internal/model"
)

// Category is one selectable label of an entry flow.
type Category struct {
	Key    string       `yaml:"key"`
	Label  string       `yaml:"label,omitempty"` // shown on buttons; defaults to the title-cased key
	Kind   model.Kind   `yaml:"kind"`
	Status model.Status `yaml:"status"`
}

type catalogKey struct {
	kind model.Kind
	key  string
}

// Catalog provides lookup over the configured categories.
type Catalog struct {
	categories []Category
	byKey      map[catalogKey]Category
}

// NewCatalog builds a Catalog, filling in missing labels. Keys are
// case-insensitive and must be unique per kind.
func NewCatalog(list []Category) (*Catalog, error) {
	caser := cases.Title(language.Russian)
	c := &Catalog{byKey: make(map[catalogKey]Category, len(list))}
	for _, cat := range list {
		cat.Key = strings.ToLower(strings.TrimSpace(cat.Key))
		if cat.Key == "" {
			return nil, fmt.Errorf("category with empty key")
		}
		if !cat.Kind.Valid() {
			return nil, fmt.Errorf("category %q: unknown kind %q", cat.Key, cat.Kind)
		}
		if !cat.Status.Valid() {
			return nil, fmt.Errorf("category %q: unknown status %q", cat.Key, cat.Status)
		}
		if cat.Label == "" {
			cat.Label = caser.String(cat.Key)
		}
		k := catalogKey{kind: cat.Kind, key: cat.Key}
		if _, dup := c.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate %s category %q", cat.Kind, cat.Key)
		}
		c.byKey[k] = cat
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// MustDefault returns the built-in catalog.
func MustDefault() *Catalog {
	c, err := NewCatalog(Default())
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every category in declaration order.
func (c *Catalog) All() []Category {
	return c.categories
}

// Lookup finds a category by kind and key.
func (c *Catalog) Lookup(kind model.Kind, key string) (Category, bool) {
	cat, ok := c.byKey[catalogKey{kind: kind, key: strings.ToLower(strings.TrimSpace(key))}]
	return cat, ok
}

// ByKind returns the categories of one kind in declaration order.
func (c *Catalog) ByKind(kind model.Kind) []Category {
	var result []Category
	for _, cat := range c.categories {
		if cat.Kind == kind {
			result = append(result, cat)
		}
	}
	return result
}

// StatusFor derives the entry status for a category. Unknown categories of an
// income flow are one-off (active); unknown expenses stay active as well.
func (c *Catalog) StatusFor(kind model.Kind, key string) model.Status {
	if cat, ok := c.Lookup(kind, key); ok {
		return cat.Status
	}
	return model.StatusActive
}
