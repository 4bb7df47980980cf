package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a catalog and/or selection config",
	Example: `  rulesel validate --catalog rules.yaml
  rulesel validate -c select.yaml --catalog rules.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" && catalogFile == "" {
		return fmt.Errorf("nothing to validate: pass --config and/or --catalog")
	}
	out := cmd.OutOrStdout()

	if catalogFile != "" {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "catalog %s: %d rules\n", catalogFile, cat.Len())
	}

	if cfgFile != "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "config %s: engine %s, %d filters\n", cfgFile, cfg.Engine, len(cfg.Filters))
		for _, f := range cfg.Filters {
			note := ""
			if f.IsEmpty() {
				note = " (matches nothing)"
			}
			fmt.Fprintf(out, "  %s%s\n", f, note)
		}
	}

	return nil
}
