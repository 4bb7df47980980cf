package api

import (
	"errors"
	"testing"
)

func TestParseFilterType(t *testing.T) {
	tests := []struct {
		in   string
		want FilterType
	}{
		{"rulename", FilterRuleName},
		{"RuleName", FilterRuleName},
		{"rule-name", FilterRuleName},
		{"name", FilterRuleName},
		{"category", FilterCategory},
		{"  CATEGORY ", FilterCategory},
		{"ruleset", FilterRuleSet},
		{"rule_set", FilterRuleSet},
		{"language", FilterLanguage},
		{"lang", FilterLanguage},
		{"sourcepackage", FilterSourcePackage},
		{"source_package", FilterSourcePackage},
		{"pkg", FilterSourcePackage},
	}

	for _, tt := range tests {
		got, err := ParseFilterType(tt.in)
		if err != nil {
			t.Errorf("ParseFilterType(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilterType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseFilterType_Unknown(t *testing.T) {
	for _, in := range []string{"", "severity", "rules", "source package"} {
		_, err := ParseFilterType(in)
		if !errors.Is(err, ErrUnknownFilterType) {
			t.Errorf("ParseFilterType(%q): expected ErrUnknownFilterType, got %v", in, err)
		}
	}
}

func TestFilterType_StringRoundTrip(t *testing.T) {
	types := FilterTypes()
	if len(types) != 5 {
		t.Fatalf("expected 5 filter types, got %d", len(types))
	}
	for _, ft := range types {
		if !ft.Valid() {
			t.Errorf("%s reported invalid", ft)
		}
		parsed, err := ParseFilterType(ft.String())
		if err != nil || parsed != ft {
			t.Errorf("round trip of %s gave %s, %v", ft, parsed, err)
		}
	}
}

func TestFilterType_Invalid(t *testing.T) {
	bad := FilterType(42)
	if bad.Valid() {
		t.Error("FilterType(42) should be invalid")
	}
	if bad.String() != "FilterType(42)" {
		t.Errorf("String() = %q", bad.String())
	}
	if _, err := bad.MarshalText(); !errors.Is(err, ErrUnknownFilterType) {
		t.Errorf("expected ErrUnknownFilterType, got %v", err)
	}
	if f := NewRuleFilter(bad, "", "x"); f.Matches("") || f.Matches("x") {
		t.Error("filter with unknown type should match nothing")
	}
}
