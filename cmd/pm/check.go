package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/permmatch/internal/display"
	"github.com/daviddao/permmatch/internal/eml"
	"github.com/daviddao/permmatch/internal/extract"
	"github.com/daviddao/permmatch/internal/match"
	"github.com/daviddao/permmatch/internal/roster"
	"github.com/daviddao/permmatch/internal/types"
)

var checkEmployee string

type checkMessage struct {
	File       string            `json:"file"`
	Date       string            `json:"date,omitempty"`
	Subject    string            `json:"subject"`
	Candidates []match.Candidate `json:"candidates"`
	Counts     match.Counts      `json:"counts"`
	Scenario   types.Scenario    `json:"scenario"`
	Valid      bool              `json:"valid"`
}

type checkOutput struct {
	Employee types.Employee    `json:"employee"`
	Messages []checkMessage    `json:"messages"`
	Result   types.MatchResult `json:"result"`
}

var checkCmd = &cobra.Command{
	Use:   "check FILE.eml...",
	Short: "Explain how messages match one roster entry",
	Long: `Show every occurrence of the employee's name or ID in the given messages,
whether it was suppressed (quoted header line or manager context), and the
scenario keyword counts. The final line is the result pm match would report.`,
	Example: `  pm check --employee "张三, E12345" request.eml reply.eml
  pm check --employee E12345 mails/*.eml --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, id := roster.ParseEntry(checkEmployee)
		if name == "" && id == "" {
			return fmt.Errorf("--employee is required")
		}
		emp := types.Employee{Name: name, ID: id, Raw: checkEmployee}

		parser := eml.NewParser(extract.New(settings.Extract), logger)
		msgs := make([]types.Message, 0, len(args))
		for i, path := range args {
			msg, err := parser.ParseFile(path, i)
			if err != nil {
				return err
			}
			msgs = append(msgs, *msg)
		}

		resolver := match.NewResolver(settings.Match, logger)
		out := checkOutput{Employee: emp, Result: resolver.Resolve(emp, msgs)}
		for i := range msgs {
			msg := &msgs[i]
			counts := resolver.Classifier().Counts(msg.CombinedText())
			cm := checkMessage{
				File:       msg.Ref(),
				Subject:    msg.Subject,
				Candidates: resolver.Scanner().Scan(emp, msg),
				Counts:     counts,
				Scenario:   counts.Scenario(),
			}
			if !msg.Date.IsZero() {
				cm.Date = msg.Date.Format(settings.Report.DateLayout)
			}
			if cm.Candidates == nil {
				cm.Candidates = []match.Candidate{}
			}
			for _, c := range cm.Candidates {
				if c.Valid() {
					cm.Valid = true
					break
				}
			}
			out.Messages = append(out.Messages, cm)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), out)
		}

		display.Header("Employee: " + emp.Label())
		fmt.Println()
		for _, m := range out.Messages {
			date := m.Date
			if date == "" {
				date = "no date"
			}
			fmt.Printf("%s  %s\n", display.Bold.Render(m.File), display.Dim.Render(date))
			fmt.Printf("  Subject: %s\n", m.Subject)
			if len(m.Candidates) == 0 {
				fmt.Println(display.Dim.Render("  no occurrences"))
			}
			for _, c := range m.Candidates {
				status := display.Success.Render("valid")
				if !c.Valid() {
					status = display.Warn.Render("suppressed: " + string(c.Suppressed))
				}
				where := c.Source.Label()
				if c.Source == types.SourceAttachment && c.Attachment >= 0 {
					where += " " + msgAttachmentName(msgs, m.File, c.Attachment)
				}
				fmt.Printf("  %-8s %q at %d  %s\n", where, c.Needle, c.Position, status)
				if c.Snippet != "" {
					fmt.Printf("           %s\n", display.Dim.Render(display.Truncate(c.Snippet, 100)))
				}
			}
			fmt.Printf("  Counts: add=%d remove=%d modify=%d -> %s\n\n",
				m.Counts.Add, m.Counts.Remove, m.Counts.Modify, display.ScenarioLabel(m.Scenario))
		}
		fmt.Println(display.ResultLine(out.Result))
		return nil
	},
}

func msgAttachmentName(msgs []types.Message, ref string, idx int) string {
	for i := range msgs {
		if msgs[i].Ref() == ref && idx < len(msgs[i].Attachments) {
			return msgs[i].Attachments[idx].Filename
		}
	}
	return ""
}

func init() {
	checkCmd.Flags().StringVarP(&checkEmployee, "employee", "e", "", `Roster entry, e.g. "张三, E12345"`)
	rootCmd.AddCommand(checkCmd)
}
