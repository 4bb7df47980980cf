package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkingovr/rulesel/internal/catalog"
	"github.com/tkingovr/rulesel/internal/config"
)

var (
	cfgFile     string
	catalogFile string
	verbose     bool
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rulesel",
	Short: "Select rules from a rule catalog with rule filters",
	Long: `rulesel selects rules from a catalog of analysis rules by name,
category, ruleset, language or source package. Filters come from a YAML
selection file or from --filter flags, and can be extended with an
embedded Rego policy.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "selection config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "rule catalog file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if catalogFile == "" {
		return nil, fmt.Errorf("--catalog is required")
	}
	c, err := catalog.LoadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return c, nil
}
