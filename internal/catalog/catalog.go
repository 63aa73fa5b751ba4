// Package catalog holds the immutable reference table of protein sources.
// The table is compiled into the binary and never changes at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"protiq/models"
)

//go:embed sources.yaml
var sourcesYAML []byte

type sourceFile struct {
	Sources []models.ProteinSource `yaml:"sources"`
}

// Catalog is a read-only, name-sorted view over the protein source table.
// Construct one per composition root; there is no shared mutable state.
type Catalog struct {
	byTableOrder []models.ProteinSource
	byName       []models.ProteinSource
	byID         map[string]models.ProteinSource
	collator     *collate.Collator
}

// New parses the embedded source table and builds the catalog. It fails on
// malformed data rather than serving a partial table.
func New() (*Catalog, error) {
	return parse(sourcesYAML)
}

// MustNew builds the catalog and panics on data errors. The embedded table
// is validated by tests, so a panic here means a broken build.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

func parse(data []byte) (*Catalog, error) {
	var file sourceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source table: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source table is empty")
	}

	c := &Catalog{
		byTableOrder: make([]models.ProteinSource, 0, len(file.Sources)),
		byID:         make(map[string]models.ProteinSource, len(file.Sources)),
		collator:     collate.New(language.English, collate.IgnoreCase),
	}

	for idx, source := range file.Sources {
		if strings.TrimSpace(source.Name) == "" {
			return nil, fmt.Errorf("source %d: name must not be empty", idx)
		}
		if !models.ValidCategory(source.Category) {
			return nil, fmt.Errorf("source %q: invalid category %q", source.Name, source.Category)
		}
		if source.DIAASScore != nil && *source.DIAASScore < 0 {
			return nil, fmt.Errorf("source %q: negative DIAAS score", source.Name)
		}
		if source.PDCAASScore != nil && *source.PDCAASScore < 0 {
			return nil, fmt.Errorf("source %q: negative PDCAAS score", source.Name)
		}

		source.ID = models.Slug(source.Name)
		if _, exists := c.byID[source.ID]; exists {
			return nil, fmt.Errorf("source %q: duplicate id %q", source.Name, source.ID)
		}

		c.byTableOrder = append(c.byTableOrder, source)
		c.byID[source.ID] = source
	}

	c.byName = append([]models.ProteinSource(nil), c.byTableOrder...)
	sort.SliceStable(c.byName, func(i, j int) bool {
		return c.collator.CompareString(c.byName[i].Name, c.byName[j].Name) < 0
	})

	return c, nil
}

// Len reports the number of sources in the table.
func (c *Catalog) Len() int {
	return len(c.byTableOrder)
}

// All returns every source sorted by name ascending.
func (c *Catalog) All() []models.ProteinSource {
	return append([]models.ProteinSource(nil), c.byName...)
}

// ByCategory returns the sources of one category sorted by name. The "all"
// pseudo-category returns the full table.
func (c *Catalog) ByCategory(category models.Category) []models.ProteinSource {
	if category == models.CategoryAll {
		return c.All()
	}

	matches := make([]models.ProteinSource, 0, len(c.byName))
	for _, source := range c.byName {
		if source.Category == category {
			matches = append(matches, source)
		}
	}
	return matches
}

// Search filters a category (or the whole table for "all") to sources whose
// name or description contains the query, case-insensitively. A blank query
// returns the unfiltered category list.
func (c *Catalog) Search(query string, category models.Category) []models.ProteinSource {
	candidates := c.ByCategory(category)

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return candidates
	}

	matches := candidates[:0]
	for _, source := range candidates {
		if strings.Contains(strings.ToLower(source.Name), needle) ||
			strings.Contains(strings.ToLower(source.Description), needle) {
			matches = append(matches, source)
		}
	}
	return matches
}

// TopByQuality returns up to limit sources with the highest effective score
// (DIAAS preferred, else PDCAAS, else zero), descending. Ties keep the
// original table order.
func (c *Catalog) TopByQuality(limit int) []models.ProteinSource {
	if limit <= 0 {
		return nil
	}

	ranked := append([]models.ProteinSource(nil), c.byTableOrder...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score().Value > ranked[j].Score().Value
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit]
}

// FindByID looks up a source by its slug identifier.
func (c *Catalog) FindByID(id string) (models.ProteinSource, bool) {
	source, ok := c.byID[strings.TrimSpace(id)]
	return source, ok
}
