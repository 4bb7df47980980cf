package selection

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/config"
)

const testRegoPolicy = `package rulesel

import rego.v1

field := {
	"rulename": "name",
	"category": "category",
	"ruleset": "ruleset",
	"language": "language",
	"sourcepackage": "source_package",
}

passes_filters if {
	every f in input.filters {
		input.rule[field[f.type]] in f.values
	}
}

default include := false

include if passes_filters

include if input.rule.severity == "high"

reason := "high severity" if {
	input.rule.severity == "high"
} else := "matched all filters" if {
	passes_filters
} else := "rejected by policy"
`

func decisionFor(t *testing.T, r *Result, name string) Decision {
	t.Helper()
	for _, d := range r.Decisions {
		if d.Rule.Name == name {
			return d
		}
	}
	t.Fatalf("no decision for %s", name)
	return Decision{}
}

func TestOPAEngine_FiltersFromInput(t *testing.T) {
	engine, err := NewOPAEngineFromSource(testRegoPolicy,
		api.NewRuleFilter(api.FilterRuleSet, "core"),
		api.NewRuleFilter(api.FilterLanguage, "java", "go"),
	)
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	if result.Engine != config.EngineOPA {
		t.Errorf("expected engine opa, got %s", result.Engine)
	}

	got := strings.Join(selectedNames(result), ",")
	if got != "NoEmptyBlock,SqlInjection,SlowLoop" {
		t.Errorf("unexpected selection %s", got)
	}

	if d := decisionFor(t, result, "AvoidGlobals"); d.Included || d.Reason != "rejected by policy" {
		t.Errorf("AvoidGlobals: %+v", d)
	}
	if d := decisionFor(t, result, "SqlInjection"); !d.Included || d.Reason != "high severity" {
		t.Errorf("SqlInjection: %+v", d)
	}
	if d := decisionFor(t, result, "NoEmptyBlock"); !d.Included || d.Reason != "matched all filters" {
		t.Errorf("NoEmptyBlock: %+v", d)
	}
}

func TestOPAEngine_EmptyFilterValues(t *testing.T) {
	engine, err := NewOPAEngineFromSource(testRegoPolicy, api.NewRuleFilter(api.FilterLanguage))
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	// Only the severity override gets through a vacuous filter.
	if got := strings.Join(selectedNames(result), ","); got != "SqlInjection" {
		t.Errorf("unexpected selection %s", got)
	}
}

func TestOPAEngine_MissingInclude(t *testing.T) {
	policy := `package rulesel

import rego.v1

reason := "nothing here"
`
	engine, err := NewOPAEngineFromSource(policy)
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Select(context.Background(), testRules()[:1])
	if err != nil {
		t.Fatal(err)
	}
	d := result.Decisions[0]
	if d.Included || d.Reason != "_opa_default" {
		t.Errorf("expected _opa_default exclusion, got %+v", d)
	}
}

func TestOPAEngine_ConflictExcludes(t *testing.T) {
	policy := `package rulesel

import rego.v1

include := true if input.rule.ruleset == "core"

include := false if input.rule.language == "java"
`
	engine, err := NewOPAEngineFromSource(policy)
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	d := decisionFor(t, result, "NoEmptyBlock")
	if d.Included || !strings.HasPrefix(d.Reason, "_opa_error") {
		t.Errorf("expected _opa_error exclusion, got %+v", d)
	}
	if d := decisionFor(t, result, "SlowLoop"); !d.Included {
		t.Errorf("expected SlowLoop to be included, got %+v", d)
	}
}

func TestOPAEngine_InvalidPolicy(t *testing.T) {
	_, err := NewOPAEngineFromSource("package rulesel\n\ninclude if {")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOPAEngine_FileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select.rego")
	allowAll := "package rulesel\n\nimport rego.v1\n\ninclude := true\n"
	if err := os.WriteFile(path, []byte(allowAll), 0o600); err != nil {
		t.Fatal(err)
	}

	engine, err := NewOPAEngine(path)
	if err != nil {
		t.Fatal(err)
	}
	result, err := engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Selected) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(result.Selected))
	}

	denyAll := "package rulesel\n\nimport rego.v1\n\ninclude := false\n"
	if err := os.WriteFile(path, []byte(denyAll), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := engine.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err = engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Selected) != 0 {
		t.Errorf("expected no rules after reload, got %d", len(result.Selected))
	}
}

func TestNew_OPA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select.rego")
	if err := os.WriteFile(path, []byte(testRegoPolicy), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Engine = config.EngineOPA
	cfg.OPAPolicy = path

	engine, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := engine.(*OPAEngine); !ok {
		t.Errorf("expected *OPAEngine, got %T", engine)
	}
}

func TestOPAEngine_ExamplePolicy(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "testdata", "select-opa.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	engine, err := New(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	result, err := engine.Select(context.Background(), testRules())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(selectedNames(result), ","); got != "NoEmptyBlock,AvoidGlobals,SqlInjection,SlowLoop" {
		t.Errorf("unexpected selection %s", got)
	}
}
