package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daviddao/permmatch/internal/beads"
	"github.com/daviddao/permmatch/internal/db"
	"github.com/daviddao/permmatch/internal/display"
	"github.com/daviddao/permmatch/internal/types"
)

var escalateDryRun bool

type escalateOutput struct {
	RunID   string             `json:"run_id"`
	Created []types.Escalation `json:"created"`
	Skipped int                `json:"skipped"`
	Failed  int                `json:"failed"`
}

var escalateCmd = &cobra.Command{
	Use:   "escalate RUN_ID",
	Short: "File each needs-decision row of a run as a beads issue",
	Long: `Create one bd issue per roster row of the run that no message resolved.
Rows that already have an issue are skipped, so the command can be re-run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !escalateDryRun && !beads.Available() {
			return fmt.Errorf("%s not found on PATH", beads.Binary)
		}

		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		unresolved, err := store.Unresolved(run.ID)
		if err != nil {
			return fmt.Errorf("fetch unresolved: %w", err)
		}
		existing, err := store.Escalations(run.ID)
		if err != nil {
			return fmt.Errorf("fetch escalations: %w", err)
		}

		out := escalateOutput{RunID: run.ID, Created: []types.Escalation{}}
		for _, r := range unresolved {
			if _, ok := existing[r.Employee.Row]; ok {
				out.Skipped++
				continue
			}
			if escalateDryRun {
				if !jsonOutput {
					fmt.Printf("  would file: %s\n", beads.Title(r.Employee))
				}
				continue
			}

			issue, err := beads.Escalate(run.ID, run.Roster, r.Employee)
			if err != nil {
				out.Failed++
				logger.Warn("escalation failed", zap.Int("row", r.Employee.Row), zap.Error(err))
				continue
			}
			esc := types.Escalation{RunID: run.ID, Row: r.Employee.Row, BeadID: issue.ID, CreatedAt: db.Now()}
			if err := store.InsertEscalation(&esc); err != nil {
				return fmt.Errorf("record escalation for row %d: %w", r.Employee.Row, err)
			}
			out.Created = append(out.Created, esc)
			if !jsonOutput && !quietFlag {
				display.SuccessMsg("%s  %s", issue.ID, beads.Title(r.Employee))
			}
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		fmt.Printf("Escalated %d, skipped %d already filed", len(out.Created), out.Skipped)
		if out.Failed > 0 {
			fmt.Printf(", %s", display.ErrStyle.Render(fmt.Sprintf("%d failed", out.Failed)))
		}
		fmt.Println()
		if out.Failed > 0 {
			return fmt.Errorf("%d escalations failed", out.Failed)
		}
		return nil
	},
}

func init() {
	escalateCmd.Flags().BoolVar(&escalateDryRun, "dry-run", false, "List the issues without creating them")
	rootCmd.AddCommand(escalateCmd)
}
