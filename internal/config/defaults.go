package config

const (
	EngineFilters = "filters"
	EngineOPA     = "opa"

	DefaultEngine = EngineFilters
)

// DefaultLogDir returns the default decision log directory path.
func DefaultLogDir() string {
	return "~/.rulesel/logs"
}
