package api

import "time"

// DecisionRecord is one logged include/exclude decision for a rule.
type DecisionRecord struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	RunID     string      `json:"run_id"`
	Engine    string      `json:"engine"`
	Rule      string      `json:"rule"`
	Included  bool        `json:"included"`
	Reason    string      `json:"reason,omitempty"`
	Filter    *RuleFilter `json:"filter,omitempty"`
}

// MatchResponse is the result of testing a single candidate against a filter,
// as printed by the CLI `match` command.
type MatchResponse struct {
	Filter    RuleFilter `json:"filter"`
	Candidate string     `json:"candidate"`
	Matches   bool       `json:"matches"`
}
