package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkingovr/rulesel/api"
)

var facetsType string

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "List the values a catalog offers for each filter type",
	Example: `  rulesel facets --catalog rules.yaml
  rulesel facets --catalog rules.yaml --type language`,
	RunE: runFacets,
}

func init() {
	facetsCmd.Flags().StringVar(&facetsType, "type", "", "only list this filter type")
	rootCmd.AddCommand(facetsCmd)
}

func runFacets(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	types := api.FilterTypes()
	if facetsType != "" {
		t, err := api.ParseFilterType(facetsType)
		if err != nil {
			return err
		}
		types = []api.FilterType{t}
	}

	out := cmd.OutOrStdout()
	for _, t := range types {
		fmt.Fprintf(out, "%s: %s\n", t, strings.Join(cat.Values(t), ", "))
	}
	return nil
}
