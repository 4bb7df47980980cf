package catalog

import (
	"slices"
	"sort"

	"github.com/tkingovr/rulesel/api"
)

// Catalog is the set of rules known to rulesel, as read from a YAML file.
type Catalog struct {
	Version int        `yaml:"version" json:"version"`
	Items   []api.Rule `yaml:"rules" json:"rules"`

	byName map[string]int
}

// New builds a catalog from rules already in memory. It applies the same
// validation as LoadBytes.
func New(rules ...api.Rule) (*Catalog, error) {
	c := &Catalog{Version: 1, Items: slices.Clone(rules)}
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rules returns the catalog rules sorted by name.
func (c *Catalog) Rules() []api.Rule {
	out := slices.Clone(c.Items)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of rules in the catalog.
func (c *Catalog) Len() int {
	return len(c.Items)
}

// Get returns the rule with the given name. Names are matched exactly.
func (c *Catalog) Get(name string) (api.Rule, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return api.Rule{}, false
	}
	return c.Items[idx], true
}

// Values returns the distinct, non-empty values the catalog holds for the
// attribute inspected by t, sorted.
func (c *Catalog) Values(t api.FilterType) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range c.Items {
		v := c.Items[i].Attribute(t)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
