package api

import "time"

// QueryFilter defines criteria for querying decision records.
type QueryFilter struct {
	Since    time.Time `json:"since,omitempty"`
	Until    time.Time `json:"until,omitempty"`
	RunID    string    `json:"run_id,omitempty"`
	Rule     string    `json:"rule,omitempty"`
	Included *bool     `json:"included,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// DecisionStats summarises logged decisions.
type DecisionStats struct {
	TotalDecisions int            `json:"total_decisions"`
	IncludedCount  int            `json:"included_count"`
	ExcludedCount  int            `json:"excluded_count"`
	ByFilterType   map[string]int `json:"by_filter_type"`
	ByEngine       map[string]int `json:"by_engine"`
}
