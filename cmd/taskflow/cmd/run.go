package cmd

import (
	"fmt"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/definition"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow>",
	Short: "Execute a workflow",
	Long: `Execute a workflow from the definitions file and print its report.

Task failures are part of the report and do not make the command fail
unless --fail-on-task-error is set. An unknown workflow or a dependency
cycle does.

Examples:
  # Run with the definitions in ./workflows.yaml
  taskflow run order_processing

  # Seed the run context and print JSON
  taskflow run order_processing --set order_id=42 --output json

  # Run independent tasks on four workers
  taskflow run order_processing --concurrent 4`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

var (
	runSets          []string
	runReportOut     string
	runConcurrent    int
	runFailOnTaskErr bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runSets, "set", nil,
		"set a run context value (key=value, repeatable)")
	runCmd.Flags().StringP("output", "o", "text",
		"report format (text, json, yaml)")
	runCmd.Flags().StringVar(&runReportOut, "report-out", "",
		"also write the report to this file (format from extension)")
	runCmd.Flags().String("report-dir", "",
		"save a report for every run in this directory")
	runCmd.Flags().IntVar(&runConcurrent, "concurrent", 0,
		"run ready tasks on up to N workers (0 uses the configured mode)")
	runCmd.Flags().String("timeout", "",
		"per-task timeout, e.g. 30s")
	runCmd.Flags().Bool("skip-failed", false,
		"skip tasks whose dependencies failed")
	runCmd.Flags().BoolVar(&runFailOnTaskErr, "fail-on-task-error", false,
		"exit non-zero when any task did not complete")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg := appConfig
	logger := newLogger(cfg)

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	overrides, err := parseAssignments(runSets)
	if err != nil {
		return err
	}

	doc, err := loadDocument(cfg)
	if err != nil {
		return err
	}
	def, ok := doc.Lookup(name)
	if !ok {
		return workflowNotFound(name, doc.Names())
	}

	// Only the selected workflow has to be valid.
	single := definition.Document{Workflows: []definition.WorkflowDef{*def}}
	built, err := single.Build(actions.Default())
	if err != nil {
		return err
	}

	opts := cfg.EngineOptions(logger, nil)
	if runConcurrent > 0 {
		opts = append(opts, engine.WithConcurrency(runConcurrent))
	}
	eng := engine.New(opts...)
	eng.RegisterWorkflow(built[0])

	initial := make(map[string]any, len(def.Context)+len(overrides))
	maps.Copy(initial, def.Context)
	maps.Copy(initial, overrides)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := eng.ExecuteWorkflow(ctx, name, core.NewRunContext(initial))
	if err != nil {
		return err
	}

	if err := report.Render(cmd.OutOrStdout(), result, format); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if runReportOut != "" {
		if err := report.WriteFile(runReportOut, result, ""); err != nil {
			return err
		}
		logger.Info("report written", "path", runReportOut)
	}
	if cfg.Report.Dir != "" {
		path, err := report.Save(cfg.Report.Dir, result, format)
		if err != nil {
			return err
		}
		logger.Info("report saved", "path", path)
	}

	if runFailOnTaskErr && !result.Succeeded() {
		return fmt.Errorf("workflow %s: %d of %d tasks completed",
			name, result.Completed(), len(result.Tasks))
	}
	return nil
}
