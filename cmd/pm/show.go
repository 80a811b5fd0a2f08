package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/permmatch/internal/beads"
	"github.com/daviddao/permmatch/internal/display"
	"github.com/daviddao/permmatch/internal/types"
)

var showUnresolved bool

type showResult struct {
	types.MatchResult
	Escalation *types.Escalation `json:"escalation,omitempty"`
	Bead       *beads.Issue      `json:"bead,omitempty"`
}

type showOutput struct {
	Run     *types.Run   `json:"run"`
	Results []showResult `json:"results"`
}

var showCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Display one recorded run with its results and escalations",
	Long:  "Display a recorded run. RUN_ID may be any unique prefix of the run ID.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}

		var results []types.MatchResult
		if showUnresolved {
			results, err = store.Unresolved(run.ID)
		} else {
			results, err = store.RunResults(run.ID)
		}
		if err != nil {
			return fmt.Errorf("fetch results: %w", err)
		}

		escalations, err := store.Escalations(run.ID)
		if err != nil {
			return fmt.Errorf("fetch escalations: %w", err)
		}

		haveBeads := len(escalations) > 0 && beads.Available()
		out := showOutput{Run: run, Results: make([]showResult, 0, len(results))}
		for _, r := range results {
			sr := showResult{MatchResult: r}
			if esc, ok := escalations[r.Employee.Row]; ok {
				sr.Escalation = &esc
				if haveBeads {
					sr.Bead, _ = beads.Show(esc.BeadID) // bead may have been deleted
				}
			}
			out.Results = append(out.Results, sr)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), out)
		}

		fmt.Printf("Run: %s\n", display.Bold.Render(run.ID))
		fmt.Printf("Started: %s %s\n", run.StartedAt, display.Dim.Render("("+display.TimeAgo(run.StartedAt)+")"))
		fmt.Printf("Roster: %s\n", run.Roster)
		fmt.Printf("Messages: %s (%d parsed)\n", run.Source, run.Messages)
		fmt.Printf("Output: %s\n", run.Output)
		fmt.Printf("Resolved %d of %d, %d need a decision\n\n", run.Matched, run.Employees, run.Unresolved)

		for i, r := range out.Results {
			fmt.Println(display.ResultLine(r.MatchResult))
			connector := "├─"
			if i == len(out.Results)-1 {
				connector = "└─"
			}
			if r.Matched {
				display.Snippet(connector, r.Snippet)
				continue
			}
			switch {
			case r.Bead != nil:
				fmt.Printf("  %s Bead: %s %s [%s]\n", display.Muted.Render(connector), r.Bead.ID, r.Bead.Title, r.Bead.Status)
			case r.Escalation != nil:
				fmt.Printf("  %s Bead: %s %s\n", display.Muted.Render(connector), r.Escalation.BeadID, display.Dim.Render("(not found in beads)"))
			default:
				fmt.Printf("  %s %s\n", display.Muted.Render(connector), display.Dim.Render("not escalated"))
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showUnresolved, "unresolved", false, "Only show rows that need a decision")
	rootCmd.AddCommand(showCmd)
}
