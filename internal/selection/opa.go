package selection

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/open-policy-agent/opa/topdown"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/config"
)

// OPAEngine implements the Engine interface using embedded OPA/Rego.
type OPAEngine struct {
	mu      sync.RWMutex
	path    string
	filters []api.RuleFilter

	// Compiled query for evaluation
	query rego.PreparedEvalQuery
}

// NewOPAEngine creates a new OPA engine from a .rego policy file.
func NewOPAEngine(path string, filters ...api.RuleFilter) (*OPAEngine, error) {
	e := &OPAEngine{path: path, filters: slices.Clone(filters)}
	if err := e.Reload(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// NewOPAEngineFromSource creates a new OPA engine from raw Rego source.
func NewOPAEngineFromSource(source string, filters ...api.RuleFilter) (*OPAEngine, error) {
	e := &OPAEngine{filters: slices.Clone(filters)}
	if err := e.loadSource(source); err != nil {
		return nil, err
	}
	return e, nil
}

// Select runs the OPA policy once per rule.
//
// The Rego policy must define the following in package rulesel:
//
//	include: bool
//	reason: string (optional)
//
// Input available to the policy:
//
//	input.rule: {name, category, ruleset, language, source_package, severity}
//	input.filters: [{type, values}]
func (e *OPAEngine) Select(ctx context.Context, rules []api.Rule) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	filters := make([]map[string]any, 0, len(e.filters))
	for _, f := range e.filters {
		values := make([]any, 0, f.Len())
		for _, v := range f.Values() {
			values = append(values, v)
		}
		filters = append(filters, map[string]any{
			"type":   f.Type().String(),
			"values": values,
		})
	}

	result := &Result{Engine: config.EngineOPA}
	for i := range rules {
		d, err := e.decide(ctx, &rules[i], filters)
		if err != nil {
			return nil, err
		}
		result.add(d)
	}
	return result, nil
}

func (e *OPAEngine) decide(ctx context.Context, rule *api.Rule, filters []map[string]any) (Decision, error) {
	input := map[string]any{
		"rule": map[string]any{
			"name":           rule.Name,
			"category":       rule.Category,
			"ruleset":        rule.RuleSet,
			"language":       rule.Language,
			"source_package": rule.SourcePackage,
			"severity":       rule.Severity,
		},
		"filters": filters,
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		// Policy errors exclude the rule rather than abort the run
		if topdown.IsError(err) {
			return Decision{Rule: *rule, Reason: "_opa_error: " + err.Error()}, nil
		}
		return Decision{}, fmt.Errorf("OPA evaluation failed for rule %q: %w", rule.Name, err)
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{Rule: *rule, Reason: "_opa_default"}, nil
	}

	resultMap, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return Decision{Rule: *rule, Reason: "_opa_parse_error"}, nil
	}

	return parseOPAResult(rule, resultMap), nil
}

// Reload re-reads the Rego policy file from disk and recompiles.
func (e *OPAEngine) Reload(_ context.Context) error {
	if e.path == "" {
		return nil
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("reading OPA policy file: %w", err)
	}
	return e.loadSource(string(data))
}

func (e *OPAEngine) loadSource(source string) error {
	// Parse to validate
	_, err := ast.ParseModuleWithOpts("select.rego", source, ast.ParserOptions{RegoVersion: ast.RegoV1})
	if err != nil {
		return fmt.Errorf("parsing Rego policy: %w", err)
	}

	r := rego.New(
		rego.Query("data.rulesel"),
		rego.Module("select.rego", source),
		rego.Store(inmem.New()),
	)

	query, err := r.PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("preparing OPA query: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = query

	return nil
}

func parseOPAResult(rule *api.Rule, m map[string]any) Decision {
	d := Decision{Rule: *rule}

	include, ok := m["include"].(bool)
	if !ok {
		d.Reason = "_opa_default"
		return d
	}
	d.Included = include

	if reason, ok := m["reason"].(string); ok {
		d.Reason = reason
	}
	return d
}
