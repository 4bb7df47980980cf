package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/config"
)

var (
	matchType      string
	matchValues    []string
	matchCandidate string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Test a single value against a rule filter",
	Long: `Check whether a candidate value is accepted by a rule filter, without
loading a catalog. Matching is exact and case-sensitive.`,
	Example: `  rulesel match --type category --values security,performance --candidate performance
  rulesel match --type sourcepackage --values com.example --candidate com.example.sub`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchType, "type", "", "filter type (rulename, category, ruleset, language, sourcepackage)")
	matchCmd.Flags().StringSliceVar(&matchValues, "values", nil, "accepted values, comma separated")
	matchCmd.Flags().StringVar(&matchCandidate, "candidate", "", "value to test")
	_ = matchCmd.MarkFlagRequired("type")
	_ = matchCmd.MarkFlagRequired("candidate")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	f, err := config.FilterSpec{Type: matchType, Values: matchValues}.RuleFilter()
	if err != nil {
		return fmt.Errorf("building filter: %w", err)
	}

	output := api.MatchResponse{
		Filter:    f,
		Candidate: matchCandidate,
		Matches:   f.Matches(matchCandidate),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
