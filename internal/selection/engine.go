package selection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/config"
)

// Engine is the interface for rule selection backends.
type Engine interface {
	// Select decides, for every rule, whether it is part of the selection.
	Select(ctx context.Context, rules []api.Rule) (*Result, error)

	// Reload reloads selection logic from its source (file, remote, etc.).
	Reload(ctx context.Context) error
}

// Decision is the outcome of selection for one rule.
type Decision struct {
	Rule     api.Rule        `json:"rule"`
	Included bool            `json:"included"`
	Reason   string          `json:"reason,omitempty"`
	Filter   *api.RuleFilter `json:"filter,omitempty"`
}

// Result is the output of a selection run. Selected and Decisions keep the
// order of the input rules.
type Result struct {
	Engine    string     `json:"engine"`
	Selected  []api.Rule `json:"selected"`
	Decisions []Decision `json:"decisions"`
}

func (r *Result) add(d Decision) {
	r.Decisions = append(r.Decisions, d)
	if d.Included {
		r.Selected = append(r.Selected, d.Rule)
	}
}

// New builds the engine named by cfg.
func New(cfg *config.Config, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine {
	case "", config.EngineFilters:
		return NewFilterEngine(logger, cfg.Filters...), nil
	case config.EngineOPA:
		return NewOPAEngine(cfg.OPAPolicy, cfg.Filters...)
	default:
		return nil, fmt.Errorf("unknown selection engine %q", cfg.Engine)
	}
}
