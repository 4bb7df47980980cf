package selection

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/config"
)

const (
	ReasonNoFilters  = "no filters configured"
	ReasonMatchedAll = "matched all filters"
)

// FilterEngine selects rules that pass every configured filter. Within a
// single filter any accepted value is enough; across filters all must match.
type FilterEngine struct {
	mu      sync.RWMutex
	filters []api.RuleFilter
	logger  *slog.Logger
}

// NewFilterEngine creates a filter engine with the given filters.
func NewFilterEngine(logger *slog.Logger, filters ...api.RuleFilter) *FilterEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilterEngine{
		filters: slices.Clone(filters),
		logger:  logger,
	}
}

// Select evaluates each rule against the filters in order, stopping at the
// first filter that rejects it.
func (e *FilterEngine) Select(ctx context.Context, rules []api.Rule) (*Result, error) {
	e.mu.RLock()
	filters := e.filters
	e.mu.RUnlock()

	result := &Result{Engine: config.EngineFilters}
	for i := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.add(e.decide(&rules[i], filters))
	}
	return result, nil
}

func (e *FilterEngine) decide(rule *api.Rule, filters []api.RuleFilter) Decision {
	if len(filters) == 0 {
		return Decision{Rule: *rule, Included: true, Reason: ReasonNoFilters}
	}

	for i := range filters {
		f := filters[i]
		matched := api.MatchesFilter(rule, f)
		e.logger.Debug("filter applied",
			"rule", rule.Name,
			"filter", f.String(),
			"value", rule.Attribute(f.Type()),
			"matched", matched,
		)
		if !matched {
			return Decision{
				Rule:   *rule,
				Reason: "rejected by " + f.String(),
				Filter: &f,
			}
		}
	}

	return Decision{Rule: *rule, Included: true, Reason: ReasonMatchedAll}
}

// Filters returns the filters currently applied.
func (e *FilterEngine) Filters() []api.RuleFilter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.filters)
}

// SetFilters replaces the filters used by subsequent Select calls.
func (e *FilterEngine) SetFilters(filters ...api.RuleFilter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters = slices.Clone(filters)
}

// Reload is a no-op; filters are supplied in memory.
func (e *FilterEngine) Reload(_ context.Context) error {
	return nil
}
