// Package taxonomy holds the reference catalogs that mappings point into:
// accreditation competencies, sustainable development goals and graduate
// capabilities. Catalogs are read once at start-up and never change afterwards;
// extending one is a data change in catalogs/*.yaml.
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// Kind names one of the catalogs.
type Kind string

// Catalog kinds
const (
	KindCompetency         Kind = "competency"
	KindSDG                Kind = "sdg"
	KindGraduateCapability Kind = "graduate_capability"
)

// Kinds lists every catalog kind in load order.
var Kinds = []Kind{KindCompetency, KindSDG, KindGraduateCapability}

// ParseKind converts s to a Kind, returning a NotFoundError for unknown names.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", domain.NewNotFoundError("catalog", s)
}

// Entry is a single catalog item.
type Entry struct {
	Code             string   `json:"code" yaml:"code"`
	Name             string   `json:"name" yaml:"name"`
	ShortDescription string   `json:"short_description" yaml:"short_description"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
}

func (e Entry) clone() Entry {
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}

// Catalog is an ordered, immutable list of entries of one kind.
type Catalog struct {
	kind    Kind
	entries []Entry
	index   map[string]int
}

// NewCatalog validates entries and builds a catalog from them. Keywords are
// lowercased. An entry is rejected when it has no keywords or when one of its
// keywords contains another, since a single occurrence in text would then be
// counted twice.
func NewCatalog(kind Kind, entries []Entry) (*Catalog, error) {
	c := &Catalog{
		kind:    kind,
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, raw := range entries {
		e := raw.clone()
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			return nil, fmt.Errorf("%s catalog: entry %d has no code", kind, i)
		}
		if _, dup := c.index[e.Code]; dup {
			return nil, fmt.Errorf("%s catalog: duplicate code %q", kind, e.Code)
		}
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("%s catalog: entry %q has no keywords", kind, e.Code)
		}
		for j, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("%s catalog: entry %q has an empty keyword", kind, e.Code)
			}
			e.Keywords[j] = kw
		}
		if err := checkKeywordOverlap(e); err != nil {
			return nil, fmt.Errorf("%s catalog: %w", kind, err)
		}

		c.index[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

func checkKeywordOverlap(e Entry) error {
	for i, a := range e.Keywords {
		for j, b := range e.Keywords {
			if i != j && strings.Contains(b, a) {
				return fmt.Errorf("entry %q: keyword %q is contained in %q", e.Code, a, b)
			}
		}
	}
	return nil
}

// Kind returns the catalog kind.
func (c *Catalog) Kind() Kind { return c.kind }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// At returns the entry at position i in catalog order.
func (c *Catalog) At(i int) Entry {
	return c.entries[i].clone()
}

// Lookup returns the entry with the given code.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	i, ok := c.index[code]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i].clone(), true
}

// Has reports whether code exists in the catalog.
func (c *Catalog) Has(code string) bool {
	_, ok := c.index[code]
	return ok
}
