package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/definition"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the definitions file without running anything",
	Long: `Check the definitions file: names, actions and their parameters, and
the dependency graph of every workflow. Cycles and dependencies on tasks
that do not exist are reported, since they would stop a run.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path := appConfig.Definitions.Path
	doc, err := loadDocument(appConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reg := actions.Default()
	problems := 0

	if err := doc.Validate(reg); err != nil {
		var errs definition.Errors
		if !errors.As(err, &errs) {
			return err
		}
		for _, p := range errs {
			fmt.Fprintf(out, "✗ %s [%s]\n", p, p.Code)
		}
		problems += len(errs)
	}

	for i := range doc.Workflows {
		def := &doc.Workflows[i]
		wf, err := def.Build(reg)
		if err != nil {
			// Already reported above.
			continue
		}
		a := engine.Analyze(wf)
		if err := a.Err(); err != nil {
			fmt.Fprintf(out, "✗ %s: %s\n", def.Name, message(err))
			problems++
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d tasks in %d levels\n", def.Name, wf.Len(), len(a.Levels))
	}

	if problems > 0 {
		return fmt.Errorf("%s: %d problem(s) found", path, problems)
	}
	fmt.Fprintf(out, "%s is valid\n", path)
	return nil
}
