package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the workflows in the definitions file",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	doc, err := loadDocument(appConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(doc.Workflows) == 0 {
		fmt.Fprintf(out, "No workflows defined in %s\n", appConfig.Definitions.Path)
		return nil
	}

	r := lipgloss.NewRenderer(out)
	rows := make([][]string, 0, len(doc.Workflows))
	for _, wf := range doc.Workflows {
		rows = append(rows, []string{wf.Name, strconv.Itoa(len(wf.Tasks)), wf.Description})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("#6b7280"))).
		Headers("WORKFLOW", "TASKS", "DESCRIPTION").
		Rows(rows...)
	fmt.Fprintln(out, tbl.Render())
	return nil
}
