package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var rulesFormat string

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesFormat, "format", "f", "text", "Output format (text|json)")
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List detection rules and broad data types",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	_, table, err := newEngine()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if rulesFormat == "json" {
		data, err := json.MarshalIndent(map[string]any{
			"rules":       table.Rules(),
			"broad_types": table.BroadTypes(),
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if rulesFormat != "text" {
		return fmt.Errorf("unknown format: %s", rulesFormat)
	}

	fmt.Fprintln(out, "Rules:")
	for _, r := range table.Rules() {
		pattern := "keyword"
		if r.HasPattern() {
			pattern = "keyword+pattern"
		}
		fmt.Fprintf(out, "  %-18s %-13s %-16s %s (%d keywords)\n",
			r.Subtype, r.Category, pattern, r.Subtype.Label(), len(r.Keywords))
	}

	fmt.Fprintln(out, "Broad types:")
	for _, b := range table.BroadTypes() {
		fmt.Fprintf(out, "  %s %v\n", b.Name, b.Categories)
	}
	return nil
}
