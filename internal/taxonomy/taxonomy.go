// Package taxonomy maps free-form expense categories onto the fixed MBA
// category set and exposes its parent/child hierarchy.
package taxonomy

import (
	_ "embed"
	"fmt"
	"hash/fnv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Other is the fallback category and its own parent.
const Other = "Other"

// ParentSelectorPrefix introduces a parent-category selector such as
// "parent:Education".
const ParentSelectorPrefix = "parent:"

//go:embed taxonomy.yaml
var defaultDefinition []byte

var defaultTaxonomy = mustParse(defaultDefinition)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Name     string   `yaml:"name"`
	Parent   string   `yaml:"parent"`
	Keywords []string `yaml:"keywords"`
}

type definition struct {
	Parents    []string `yaml:"parents"`
	Categories []Rule   `yaml:"categories"`
}

// Taxonomy is an ordered keyword table plus a two-level hierarchy.
// It is immutable after Parse and safe for concurrent use.
type Taxonomy struct {
	parents  []string
	rules    []Rule
	parentOf map[string]string
	children map[string][]string
}

// Default returns the embedded MBA taxonomy.
func Default() *Taxonomy {
	return defaultTaxonomy
}

// Map classifies a transaction using the default taxonomy.
func Map(rawCategory, description string) string {
	return defaultTaxonomy.Map(rawCategory, description)
}

// Parse builds a Taxonomy from its YAML definition. Every category must be
// declared once, under a declared parent, and Other must exist.
func Parse(data []byte) (*Taxonomy, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("taxonomy: decode: %w", err)
	}

	t := &Taxonomy{
		parents:  def.Parents,
		parentOf: make(map[string]string, len(def.Categories)),
		children: make(map[string][]string, len(def.Parents)),
	}
	for _, p := range def.Parents {
		if _, dup := t.children[p]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate parent %q", p)
		}
		t.children[p] = nil
	}

	for _, r := range def.Categories {
		if r.Name == "" {
			return nil, fmt.Errorf("taxonomy: category without a name")
		}
		if _, dup := t.parentOf[r.Name]; dup {
			return nil, fmt.Errorf("taxonomy: category %q declared twice", r.Name)
		}
		if _, ok := t.children[r.Parent]; !ok {
			return nil, fmt.Errorf("taxonomy: category %q has undeclared parent %q", r.Name, r.Parent)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		r.Keywords = kws
		t.rules = append(t.rules, r)
		t.parentOf[r.Name] = r.Parent
		t.children[r.Parent] = append(t.children[r.Parent], r.Name)
	}

	if _, ok := t.parentOf[Other]; !ok {
		return nil, fmt.Errorf("taxonomy: %q category is required", Other)
	}
	return t, nil
}

func mustParse(data []byte) *Taxonomy {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Map returns the first category whose keyword occurs in rawCategory, then
// tries description the same way, then falls back to Other.
func (t *Taxonomy) Map(rawCategory, description string) string {
	if c, ok := t.match(rawCategory); ok {
		return c
	}
	if c, ok := t.match(description); ok {
		return c
	}
	return Other
}

func (t *Taxonomy) match(s string) (string, bool) {
	s = strings.ToLower(s)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	for _, r := range t.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(s, kw) {
				return r.Name, true
			}
		}
	}
	return "", false
}

// ParentOf returns the declared parent of category, or Other when the
// category is unknown.
func (t *Taxonomy) ParentOf(category string) string {
	if p, ok := t.parentOf[category]; ok {
		return p
	}
	return Other
}

// Children returns the categories declared under parent. The parent name is
// matched case-insensitively.
func (t *Taxonomy) Children(parent string) []string {
	for _, p := range t.parents {
		if strings.EqualFold(p, strings.TrimSpace(parent)) {
			return append([]string(nil), t.children[p]...)
		}
	}
	return nil
}

// InParent reports whether category is declared under parent.
func (t *Taxonomy) InParent(category, parent string) bool {
	p, ok := t.parentOf[category]
	return ok && strings.EqualFold(p, strings.TrimSpace(parent))
}

// Categories lists every category in rule order.
func (t *Taxonomy) Categories() []string {
	out := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Name)
	}
	return out
}

// Parents lists parent categories in declared order.
func (t *Taxonomy) Parents() []string {
	return append([]string(nil), t.parents...)
}

// IsCategory reports whether name is a declared category.
func (t *Taxonomy) IsCategory(name string) bool {
	_, ok := t.parentOf[name]
	return ok
}

// ColorIndex picks a stable palette slot for a category name.
func ColorIndex(name string, paletteSize int) int {
	if paletteSize <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(paletteSize))
}
