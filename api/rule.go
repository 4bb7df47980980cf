package api

// Severity levels a catalog rule may declare.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Rule describes one named check in a rule catalog.
type Rule struct {
	Name          string `yaml:"name" json:"name"`
	Category      string `yaml:"category,omitempty" json:"category,omitempty"`
	RuleSet       string `yaml:"ruleset,omitempty" json:"ruleset,omitempty"`
	Language      string `yaml:"language,omitempty" json:"language,omitempty"`
	SourcePackage string `yaml:"source_package,omitempty" json:"source_package,omitempty"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	Severity      string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// Attribute returns the value of the rule attribute a filter of type t
// inspects. Unknown types yield the empty string.
func (r *Rule) Attribute(t FilterType) string {
	switch t {
	case FilterRuleName:
		return r.Name
	case FilterCategory:
		return r.Category
	case FilterRuleSet:
		return r.RuleSet
	case FilterLanguage:
		return r.Language
	case FilterSourcePackage:
		return r.SourcePackage
	}
	return ""
}

// MatchesFilter reports whether the attribute of rule selected by f's type is
// accepted by f.
func MatchesFilter(rule *Rule, f RuleFilter) bool {
	return f.Matches(rule.Attribute(f.Type()))
}
