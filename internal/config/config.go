package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkingovr/rulesel/api"
	"gopkg.in/yaml.v3"
)

// SelectionFile is the top-level YAML selection configuration.
type SelectionFile struct {
	Version  int          `yaml:"version"`
	Settings Settings     `yaml:"settings"`
	Filters  []FilterSpec `yaml:"filters"`
}

// Settings contains global selection settings.
type Settings struct {
	Engine      string `yaml:"engine,omitempty"`
	OPAPolicy   string `yaml:"opa_policy,omitempty"`
	LogDir      string `yaml:"log_dir,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// FilterSpec is the YAML form of a single rule filter.
type FilterSpec struct {
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
}

// Config is the runtime configuration for rulesel.
type Config struct {
	Path        string
	Engine      string
	OPAPolicy   string
	LogDir      string
	MetricsFile string
	Filters     []api.RuleFilter
}

// Load reads a selection YAML file and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	if cfg.OPAPolicy != "" && !filepath.IsAbs(cfg.OPAPolicy) {
		cfg.OPAPolicy = filepath.Join(filepath.Dir(path), cfg.OPAPolicy)
	}
	return cfg, nil
}

// LoadBytes parses YAML data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	var sf SelectionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return fromFile(&sf)
}

func fromFile(sf *SelectionFile) (*Config, error) {
	if sf.Version != 1 {
		return nil, &Error{
			Field: "version",
			Value: fmt.Sprint(sf.Version),
			Err:   errors.New("unsupported version (expected 1)"),
		}
	}

	cfg := &Config{
		Engine:      strings.ToLower(strings.TrimSpace(sf.Settings.Engine)),
		OPAPolicy:   sf.Settings.OPAPolicy,
		MetricsFile: sf.Settings.MetricsFile,
	}

	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}
	switch cfg.Engine {
	case EngineFilters:
	case EngineOPA:
		if cfg.OPAPolicy == "" {
			return nil, &Error{Field: "settings.opa_policy", Err: errors.New("required when engine is opa")}
		}
	default:
		return nil, &Error{Field: "settings.engine", Value: sf.Settings.Engine, Err: errors.New("unknown engine")}
	}

	cfg.LogDir = sf.Settings.LogDir
	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	cfg.LogDir = expandHome(cfg.LogDir)

	for i, spec := range sf.Filters {
		f, err := spec.RuleFilter()
		if err != nil {
			var cerr *Error
			if errors.As(err, &cerr) {
				cerr.Field = fmt.Sprintf("filters[%d].%s", i, cerr.Field)
			}
			return nil, err
		}
		cfg.Filters = append(cfg.Filters, f)
	}

	return cfg, nil
}

// RuleFilter converts the YAML form into an api.RuleFilter.
func (s FilterSpec) RuleFilter() (api.RuleFilter, error) {
	if strings.TrimSpace(s.Type) == "" {
		return api.RuleFilter{}, &Error{Field: "type", Err: errors.New("filter type is required")}
	}
	t, err := api.ParseFilterType(s.Type)
	if err != nil {
		return api.RuleFilter{}, &Error{Field: "type", Value: s.Type, Err: err}
	}
	return api.NewRuleFilter(t, s.Values...), nil
}

// ParseFilterFlag parses a command-line filter of the form
// "type=value1,value2". An empty value list yields a filter that matches
// nothing.
func ParseFilterFlag(s string) (api.RuleFilter, error) {
	typ, rest, ok := strings.Cut(s, "=")
	if !ok {
		return api.RuleFilter{}, &Error{Field: "filter", Value: s, Err: errors.New("expected type=value[,value...]")}
	}

	var values []string
	for _, v := range strings.Split(rest, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	f, err := FilterSpec{Type: typ, Values: values}.RuleFilter()
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Field = "filter"
		}
		return api.RuleFilter{}, err
	}
	return f, nil
}

// AddFilters appends filters to the configuration.
func (c *Config) AddFilters(filters ...api.RuleFilter) {
	c.Filters = append(c.Filters, filters...)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfig returns a config with defaults for when no config file is given.
func DefaultConfig() *Config {
	return &Config{
		Engine: DefaultEngine,
		LogDir: expandHome(DefaultLogDir()),
	}
}

// MarshalYAML serializes the effective selection for display/export.
func (c *Config) MarshalYAML() ([]byte, error) {
	sf := SelectionFile{
		Version: 1,
		Settings: Settings{
			Engine:      c.Engine,
			OPAPolicy:   c.OPAPolicy,
			LogDir:      c.LogDir,
			MetricsFile: c.MetricsFile,
		},
	}
	for _, f := range c.Filters {
		sf.Filters = append(sf.Filters, FilterSpec{Type: f.Type().String(), Values: f.Values()})
	}
	return yaml.Marshal(sf)
}
