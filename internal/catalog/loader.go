package catalog

import (
	"fmt"
	"os"

	"github.com/tkingovr/rulesel/api"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates a YAML rule catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates YAML catalog data.
func LoadBytes(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog YAML: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *Catalog) error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported catalog version: %d (expected 1)", c.Version)
	}

	validSeverities := map[string]bool{
		"":                 true,
		api.SeverityLow:    true,
		api.SeverityMedium: true,
		api.SeverityHigh:   true,
	}

	c.byName = make(map[string]int, len(c.Items))
	for i, rule := range c.Items {
		if rule.Name == "" {
			return fmt.Errorf("rule %d: name is required", i)
		}
		if _, dup := c.byName[rule.Name]; dup {
			return fmt.Errorf("rule %q: duplicate name", rule.Name)
		}
		if !validSeverities[rule.Severity] {
			return fmt.Errorf("rule %q: invalid severity %q", rule.Name, rule.Severity)
		}
		c.byName[rule.Name] = i
	}

	return nil
}
