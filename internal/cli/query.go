package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var queryCmd = &cobra.Command{
	Use:   "query <report.json> <path>",
	Short: "Extract values from a saved JSON coverage report",
	Long: `Query a JSON report produced by 'covtrace run --json' with a gjson
path expression.

Examples:
  covtrace query coverage.json totalBytes
  covtrace query coverage.json 'grouped.#'
  covtrace query coverage.json 'ranges.0.min'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, args[0], args[1])
	},
}

func runQuery(cmd *cobra.Command, path, expr string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading report: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("report %s is not valid JSON", path)
	}

	result := gjson.GetBytes(data, expr)
	if !result.Exists() {
		return fmt.Errorf("path not found: %s", expr)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.String())
	return nil
}
