package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tkingovr/rulesel/api"
	"github.com/tkingovr/rulesel/internal/audit"
	"github.com/tkingovr/rulesel/internal/config"
	"github.com/tkingovr/rulesel/internal/metrics"
	"github.com/tkingovr/rulesel/internal/selection"
)

var (
	selectFilters     []string
	selectOutput      string
	selectExplain     bool
	selectNoLog       bool
	selectMetricsFile string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select rules from a catalog",
	Long: `Apply the configured rule filters to a catalog and print the rules
that remain. Filters from the config file and --filter flags all have to
match; within one filter any listed value is accepted.`,
	Example: `  rulesel select --catalog rules.yaml --filter ruleset=core --filter language=java,go
  rulesel select -c select.yaml --catalog rules.yaml --output json --explain`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringArrayVarP(&selectFilters, "filter", "f", nil, "rule filter as type=value[,value...] (repeatable)")
	selectCmd.Flags().StringVarP(&selectOutput, "output", "o", "table", "output format: table or json")
	selectCmd.Flags().BoolVar(&selectExplain, "explain", false, "show the decision for every rule")
	selectCmd.Flags().BoolVar(&selectNoLog, "no-log", false, "do not write the decision log")
	selectCmd.Flags().StringVar(&selectMetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) error {
	if selectOutput != "table" && selectOutput != "json" {
		return fmt.Errorf("unknown output format %q", selectOutput)
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, raw := range selectFilters {
		f, err := config.ParseFilterFlag(raw)
		if err != nil {
			return err
		}
		cfg.AddFilters(f)
	}

	engine, err := selection.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating selection engine: %w", err)
	}

	ctx := context.Background()
	start := time.Now()
	result, err := engine.Select(ctx, cat.Items)
	if err != nil {
		return fmt.Errorf("selecting rules: %w", err)
	}
	elapsed := time.Since(start)

	logger.Info("selection complete",
		"engine", result.Engine,
		"filters", len(cfg.Filters),
		"rules", cat.Len(),
		"selected", len(result.Selected),
		"duration", elapsed,
	)

	if !selectNoLog {
		if err := recordDecisions(ctx, cfg.LogDir, result); err != nil {
			return err
		}
	}

	metricsFile := selectMetricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}
	if metricsFile != "" {
		m := metrics.New()
		m.Observe(result, elapsed)
		if err := m.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if selectOutput == "json" {
		return writeSelectJSON(cmd.OutOrStdout(), result)
	}
	return writeSelectTable(cmd.OutOrStdout(), result)
}

func recordDecisions(ctx context.Context, dir string, result *selection.Result) (err error) {
	store, err := audit.NewJSONLStore(dir)
	if err != nil {
		return fmt.Errorf("creating decision log: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing decision log: %w", cerr)
		}
	}()

	runID, err := audit.NewRecorder(store).Record(ctx, result)
	if err != nil {
		return err
	}
	logger.Debug("decisions recorded", "run_id", runID, "dir", dir)
	return nil
}

func writeSelectJSON(w io.Writer, result *selection.Result) error {
	output := struct {
		Engine    string               `json:"engine"`
		Selected  []api.Rule           `json:"selected"`
		Decisions []selection.Decision `json:"decisions,omitempty"`
	}{
		Engine:   result.Engine,
		Selected: result.Selected,
	}
	if output.Selected == nil {
		output.Selected = []api.Rule{}
	}
	if selectExplain {
		output.Decisions = result.Decisions
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func writeSelectTable(w io.Writer, result *selection.Result) error {
	table := tablewriter.NewWriter(w)
	if selectExplain {
		table.Header("Rule", "Included", "Reason")
		for _, d := range result.Decisions {
			if err := table.Append(d.Rule.Name, strconv.FormatBool(d.Included), d.Reason); err != nil {
				return err
			}
		}
		return table.Render()
	}

	table.Header("Rule", "Category", "Ruleset", "Language", "Package")
	for _, r := range result.Selected {
		if err := table.Append(r.Name, r.Category, r.RuleSet, r.Language, r.SourcePackage); err != nil {
			return err
		}
	}
	return table.Render()
}
