package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/covtrace/internal/config"
	"github.com/wesleyorama2/covtrace/internal/coverage"
	"github.com/wesleyorama2/covtrace/internal/replay"
	"github.com/wesleyorama2/covtrace/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <trace-file>",
	Short: "Replay a trace script and report the covered address ranges",
	Long: `Run the coverage analysis over a trace script (YAML or JSON).

The script's segments are replayed on a pool of worker goroutines; the
observed accesses are merged at watermark checkpoints into one global,
coalesced coverage set, printed as a grouped text report or as JSON.

Examples:
  covtrace run trace.yaml
  covtrace run trace.yaml --async --workers 8
  covtrace run trace.json --json --output coverage.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0])
	},
}

func init() {
	runCmd.Flags().Int("workers", 0, "number of replay workers (overrides the script)")
	runCmd.Flags().Int("checkpoint-every", 0, "segments between progress checkpoints (overrides the script)")
	runCmd.Flags().Bool("async", false, "offload checkpoint merges from the driver goroutine")
	runCmd.Flags().Bool("ranges", false, "list every precise range instead of the grouped view")
	runCmd.Flags().Bool("stats", false, "include run statistics in the text report")
	runCmd.Flags().Bool("json", false, "emit the report as JSON")
	runCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	runCmd.Flags().Bool("no-color", false, "disable colored output")
}

// runAnalysis loads the trace script, executes the coverage run, and
// writes the report.
func runAnalysis(cmd *cobra.Command, path string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	checkpointEvery, _ := cmd.Flags().GetInt("checkpoint-every")
	async, _ := cmd.Flags().GetBool("async")
	showRanges, _ := cmd.Flags().GetBool("ranges")
	showStats, _ := cmd.Flags().GetBool("stats")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	noColor, _ := cmd.Flags().GetBool("no-color")

	script, err := config.Load(path)
	if err != nil {
		return err
	}
	if workers > 0 {
		script.Workers = workers
	}
	if checkpointEvery > 0 {
		script.CheckpointEvery = checkpointEvery
	}

	driver := replay.NewScriptedDriver(script.ToScript())
	run := coverage.NewRun(coverage.Options{Async: async, Log: cmd.ErrOrStderr()})

	result, runErr := run.Execute(cmd.Context(), driver)

	rep := report.Build(script.Name, result)

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
		defer f.Close()
		out = f
		noColor = true
	} else if f, ok := out.(*os.File); ok && !report.IsTerminal(f) {
		noColor = true
	}

	if jsonOutput {
		if err := rep.WriteJSON(out); err != nil {
			return err
		}
	} else {
		formatter := report.NewFormatter(noColor)
		formatter.ShowRanges = showRanges
		formatter.ShowStats = showStats
		if err := formatter.Write(out, rep); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("coverage run failed: %w", runErr)
	}
	return nil
}
