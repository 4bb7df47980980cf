package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownFilterType is returned when text does not name a FilterType.
var ErrUnknownFilterType = errors.New("unknown filter type")

// FilterType identifies which attribute of a rule a RuleFilter inspects.
type FilterType uint8

const (
	FilterRuleName FilterType = iota
	FilterCategory
	FilterRuleSet
	FilterLanguage
	FilterSourcePackage
)

var filterTypeNames = [...]string{
	FilterRuleName:      "rulename",
	FilterCategory:      "category",
	FilterRuleSet:       "ruleset",
	FilterLanguage:      "language",
	FilterSourcePackage: "sourcepackage",
}

// aliases accepted by ParseFilterType in addition to the canonical names.
var filterTypeAliases = map[string]FilterType{
	"name":    FilterRuleName,
	"rule":    FilterRuleName,
	"lang":    FilterLanguage,
	"package": FilterSourcePackage,
	"pkg":     FilterSourcePackage,
}

// FilterTypes returns every FilterType in declaration order.
func FilterTypes() []FilterType {
	return []FilterType{
		FilterRuleName,
		FilterCategory,
		FilterRuleSet,
		FilterLanguage,
		FilterSourcePackage,
	}
}

// Valid reports whether t is one of the declared filter types.
func (t FilterType) Valid() bool {
	return int(t) < len(filterTypeNames)
}

func (t FilterType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("FilterType(%d)", uint8(t))
	}
	return filterTypeNames[t]
}

// ParseFilterType maps user-supplied text onto a FilterType. Case, surrounding
// whitespace, dashes and underscores are ignored, so "source_package",
// "Source-Package" and "SOURCEPACKAGE" are equivalent.
func ParseFilterType(s string) (FilterType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	for i, name := range filterTypeNames {
		if key == name {
			return FilterType(i), nil
		}
	}
	if t, ok := filterTypeAliases[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilterType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t FilterType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilterType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FilterType) UnmarshalText(text []byte) error {
	parsed, err := ParseFilterType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RuleFilter is an immutable pairing of a FilterType with the values it
// accepts. The zero value is an empty rule-name filter that matches nothing.
//
// A RuleFilter is safe for concurrent use once constructed.
type RuleFilter struct {
	filterType FilterType
	values     []string
	set        map[string]struct{}
}

// NewRuleFilter returns a filter over t accepting the given values. The values
// are copied; insertion order is kept for display only.
func NewRuleFilter(t FilterType, values ...string) RuleFilter {
	f := RuleFilter{
		filterType: t,
		values:     slices.Clone(values),
		set:        make(map[string]struct{}, len(values)),
	}
	for _, v := range values {
		f.set[v] = struct{}{}
	}
	return f
}

// Type returns the rule attribute the filter inspects.
func (f RuleFilter) Type() FilterType {
	return f.filterType
}

// Values returns a copy of the accepted values in insertion order.
func (f RuleFilter) Values() []string {
	if f.values == nil {
		return []string{}
	}
	return slices.Clone(f.values)
}

// Len returns the number of accepted values, duplicates included.
func (f RuleFilter) Len() int {
	return len(f.values)
}

// IsEmpty reports whether the filter accepts no values at all.
func (f RuleFilter) IsEmpty() bool {
	return len(f.set) == 0
}

// Matches reports whether candidate is one of the accepted values. Comparison
// is exact and case-sensitive. An empty filter, or one whose type is not a
// known FilterType, matches nothing.
func (f RuleFilter) Matches(candidate string) bool {
	if !f.filterType.Valid() {
		return false
	}
	_, ok := f.set[candidate]
	return ok
}

// Equal reports whether f and other inspect the same attribute and accept the
// same set of values, regardless of order or duplicates.
func (f RuleFilter) Equal(other RuleFilter) bool {
	if f.filterType != other.filterType || len(f.set) != len(other.set) {
		return false
	}
	for v := range f.set {
		if _, ok := other.set[v]; !ok {
			return false
		}
	}
	return true
}

// With returns a new filter with values appended. f is left unchanged.
func (f RuleFilter) With(values ...string) RuleFilter {
	merged := make([]string, 0, len(f.values)+len(values))
	merged = append(merged, f.values...)
	merged = append(merged, values...)
	return NewRuleFilter(f.filterType, merged...)
}

// String renders the filter as "type=v1,v2".
func (f RuleFilter) String() string {
	return f.filterType.String() + "=" + strings.Join(f.values, ",")
}

type ruleFilterJSON struct {
	Type   FilterType `json:"type"`
	Values []string   `json:"values"`
}

// MarshalJSON implements json.Marshaler.
func (f RuleFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleFilterJSON{Type: f.filterType, Values: f.Values()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *RuleFilter) UnmarshalJSON(data []byte) error {
	var raw ruleFilterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = NewRuleFilter(raw.Type, raw.Values...)
	return nil
}
