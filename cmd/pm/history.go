package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/permmatch/internal/display"
	"github.com/daviddao/permmatch/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded match runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			if runs == nil {
				runs = []*types.Run{}
			}
			return writeJSON(cmd.OutOrStdout(), runs)
		}

		if len(runs) == 0 {
			fmt.Println(display.Dim.Render("No runs recorded yet. Run 'pm match' inside an initialized project."))
			return nil
		}

		display.Header(fmt.Sprintf("Runs (%d)", len(runs)))
		fmt.Println()
		for _, r := range runs {
			id := r.ID
			if len(id) > 8 {
				id = id[:8]
			}
			pending := display.Success.Render("all resolved")
			if r.Unresolved > 0 {
				pending = display.Warn.Render(fmt.Sprintf("%d need a decision", r.Unresolved))
			}
			fmt.Printf("  %s  %-14s %3d/%-3d  %s\n",
				display.Bold.Render(id),
				display.Dim.Render(display.TimeAgo(r.StartedAt)),
				r.Matched, r.Employees, pending)
			fmt.Printf("            %s\n", display.Muted.Render(r.Roster+" ← "+display.Truncate(r.Source, 60)))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
