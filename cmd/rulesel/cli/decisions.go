package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/audit"
)

var (
	decisionsRule     string
	decisionsRun      string
	decisionsIncluded string
	decisionsSince    string
	decisionsUntil    string
	decisionsLimit    int
	decisionsOffset   int
	decisionsStats    bool
	decisionsLogDir   string
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Query the decision log written by select",
	Long: `Read the JSONL decision log and print the matching records, or
aggregate counts with --stats. The log directory comes from the config
file's log_dir setting unless --log-dir is given.`,
	Example: `  rulesel decisions --rule SqlInjection
  rulesel decisions --included=false --since 24h
  rulesel decisions -c select.yaml --stats`,
	RunE: runDecisions,
}

func init() {
	decisionsCmd.Flags().StringVar(&decisionsRule, "rule", "", "only decisions for this rule name")
	decisionsCmd.Flags().StringVar(&decisionsRun, "run", "", "only decisions from this run ID")
	decisionsCmd.Flags().StringVar(&decisionsIncluded, "included", "", "only included (true) or excluded (false) rules")
	decisionsCmd.Flags().StringVar(&decisionsSince, "since", "", "earliest decision, as RFC 3339 time or a duration back from now")
	decisionsCmd.Flags().StringVar(&decisionsUntil, "until", "", "latest decision, as RFC 3339 time or a duration back from now")
	decisionsCmd.Flags().IntVar(&decisionsLimit, "limit", 0, "maximum number of records (0 for all)")
	decisionsCmd.Flags().IntVar(&decisionsOffset, "offset", 0, "records to skip")
	decisionsCmd.Flags().BoolVar(&decisionsStats, "stats", false, "print aggregate counts instead of records")
	decisionsCmd.Flags().StringVar(&decisionsLogDir, "log-dir", "", "decision log directory (overrides config)")
	rootCmd.AddCommand(decisionsCmd)
}

func runDecisions(cmd *cobra.Command, args []string) (err error) {
	filter, err := decisionsQuery(time.Now())
	if err != nil {
		return err
	}

	dir := decisionsLogDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.LogDir
	}

	store, err := audit.NewJSONLStore(dir)
	if err != nil {
		return fmt.Errorf("opening decision log: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing decision log: %w", cerr)
		}
	}()

	ctx := context.Background()
	if decisionsStats {
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	records, err := store.Query(ctx, filter)
	if err != nil {
		return err
	}
	logger.Debug("decisions queried", "dir", dir, "records", len(records))
	if records == nil {
		records = []*api.DecisionRecord{}
	}
	return writeJSON(cmd.OutOrStdout(), records)
}

// decisionsQuery builds the query from the flag values.
func decisionsQuery(now time.Time) (api.QueryFilter, error) {
	filter := api.QueryFilter{
		Rule:   decisionsRule,
		RunID:  decisionsRun,
		Limit:  decisionsLimit,
		Offset: decisionsOffset,
	}

	if decisionsIncluded != "" {
		v, err := strconv.ParseBool(decisionsIncluded)
		if err != nil {
			return filter, fmt.Errorf("invalid --included value %q", decisionsIncluded)
		}
		filter.Included = &v
	}

	var err error
	if filter.Since, err = parseTimeFlag("since", decisionsSince, now); err != nil {
		return filter, err
	}
	if filter.Until, err = parseTimeFlag("until", decisionsUntil, now); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseTimeFlag accepts an RFC 3339 timestamp or a duration such as 24h,
// taken as that long before now. The empty string gives the zero time.
func parseTimeFlag(name, value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q: want RFC 3339 time or duration", name, value)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
